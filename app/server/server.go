package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"canvasd/app/config"
	"canvasd/app/service/canvas"
	"canvasd/app/service/conversation"
	"canvasd/app/service/session"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the document workshop over a JSON HTTP API. All state
// lives in the session registry; handlers resolve the session and delegate
// to the conversation and canvas services.
type Server struct {
	cfg      *config.Config
	registry *session.Registry
	convSvc  *conversation.Service
	canvas   *canvas.Service
}

func New(di *do.Injector) (*Server, error) {
	return &Server{
		cfg:      do.MustInvoke[*config.Config](di),
		registry: do.MustInvoke[*session.Registry](di),
		convSvc:  do.MustInvoke[*conversation.Service](di),
		canvas:   do.MustInvoke[*canvas.Service](di),
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	app := s.buildApp()

	go func() {
		<-ctx.Done()

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	slog.Info("Listening", "addr", addr)

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "canvasd",
		DisableStartupMessage: true,
	})

	api := app.Group("/api")

	api.Post("/sessions", s.handleSessionCreate)
	api.Get("/sessions", s.handleSessionList)
	api.Get("/sessions/:id", s.handleSessionGet)
	api.Delete("/sessions/:id", s.handleSessionDelete)

	api.Post("/sessions/:id/messages", s.handleMessage)
	api.Post("/sessions/:id/prompt/enhance", s.handlePromptEnhance)
	api.Post("/sessions/:id/proposal/apply", s.handleProposalApply)
	api.Post("/sessions/:id/proposal/cancel", s.handleProposalCancel)

	api.Get("/sessions/:id/chat", s.handleChatGet)
	api.Post("/sessions/:id/chat/clear", s.handleChatClear)

	api.Get("/sessions/:id/document", s.handleDocumentGet)
	api.Put("/sessions/:id/document", s.handleDocumentPut)
	api.Post("/sessions/:id/document/new", s.handleDocumentNew)
	api.Post("/sessions/:id/document/import", s.handleDocumentImport)
	api.Post("/sessions/:id/document/undo", s.handleDocumentUndo)
	api.Post("/sessions/:id/document/toc", s.handleDocumentTOC)
	api.Post("/sessions/:id/document/format", s.handleDocumentFormat)
	api.Post("/sessions/:id/document/enhance", s.handleDocumentEnhance)
	api.Post("/sessions/:id/document/summarize", s.handleDocumentSummarize)
	api.Get("/sessions/:id/document/preview", s.handleDocumentPreview)
	api.Get("/sessions/:id/document/outline", s.handleDocumentOutline)
	api.Get("/sessions/:id/document/sections", s.handleDocumentSections)
	api.Get("/sessions/:id/document/code", s.handleDocumentCodeBlocks)

	return app
}

func (s *Server) lookupSession(c *fiber.Ctx) (*session.Session, error) {
	sess, ok := s.registry.Get(c.Params("id"))
	if !ok {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session not found",
		})
	}

	return sess, nil
}
