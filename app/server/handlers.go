package server

import (
	"time"

	"canvasd/app/service/chatlog"
	"canvasd/app/service/session"

	"github.com/gofiber/fiber/v2"
)

type sessionResponse struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Document    string         `json:"document"`
	PendingEdit *string        `json:"pending_edit"`
	Chat        []chatlog.Turn `json:"chat"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type documentRequest struct {
	Content string `json:"content"`
}

type importRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type enhanceRequest struct {
	Type string `json:"type"`
}

type promptEnhanceRequest struct {
	Prompt string `json:"prompt"`
}

func sessionState(sess *session.Session) sessionResponse {
	resp := sessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Document:  sess.Document.Get(),
		Chat:      sess.Chat.All(),
	}

	if p, ok := sess.Tracker.Pending(); ok {
		content := p.Content
		resp.PendingEdit = &content
	}

	return resp
}

func (s *Server) handleSessionCreate(c *fiber.Ctx) error {
	sess := s.registry.Create()

	sess.Lock()
	defer sess.Unlock()

	s.convSvc.InitSession(sess)

	return c.Status(fiber.StatusCreated).JSON(sessionState(sess))
}

func (s *Server) handleSessionList(c *fiber.Ctx) error {
	sessions := s.registry.List()

	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		out = append(out, sessionState(sess))
		sess.Unlock()
	}

	return c.JSON(out)
}

func (s *Server) handleSessionGet(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	return c.JSON(sessionState(sess))
}

func (s *Server) handleSessionDelete(c *fiber.Ctx) error {
	if !s.registry.Delete(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMessage(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// model failures surface as error turns inside, never as a 5xx here
	s.convSvc.ProcessInput(c.UserContext(), sess, req.Text)

	return c.JSON(sessionState(sess))
}

func (s *Server) handlePromptEnhance(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	var req promptEnhanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	enhanced := s.convSvc.EnhancePrompt(c.UserContext(), sess, req.Prompt)

	return c.JSON(fiber.Map{"prompt": enhanced})
}

func (s *Server) handleProposalApply(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	if !s.convSvc.ApplyProposal(sess) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no pending edit"})
	}

	return c.JSON(sessionState(sess))
}

func (s *Server) handleProposalCancel(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	if !s.convSvc.CancelProposal(sess) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no pending edit"})
	}

	return c.JSON(sessionState(sess))
}

func (s *Server) handleChatGet(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	return c.JSON(sess.Chat.All())
}

func (s *Server) handleChatClear(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	s.convSvc.ClearChat(sess)

	return c.JSON(sess.Chat.All())
}

func (s *Server) handleDocumentGet(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	return c.JSON(fiber.Map{"content": sess.Document.Get()})
}

func (s *Server) handleDocumentPut(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	var req documentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.canvas.Edit(sess, req.Content)

	return c.JSON(fiber.Map{"content": sess.Document.Get()})
}

func (s *Server) handleDocumentNew(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	s.canvas.NewDocument(sess)

	return c.JSON(fiber.Map{"content": ""})
}

func (s *Server) handleDocumentImport(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.canvas.Import(sess, req.Content)

	return c.JSON(fiber.Map{"content": sess.Document.Get()})
}

func (s *Server) handleDocumentUndo(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	_, undone := s.canvas.Undo(sess)

	return c.JSON(fiber.Map{
		"undone":  undone,
		"content": sess.Document.Get(),
	})
}

func (s *Server) handleDocumentTOC(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	inserted := s.canvas.InsertTOC(sess)

	return c.JSON(fiber.Map{
		"inserted": inserted,
		"content":  sess.Document.Get(),
	})
}

func (s *Server) handleDocumentFormat(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	s.canvas.Format(sess)

	return c.JSON(fiber.Map{"content": sess.Document.Get()})
}

func (s *Server) handleDocumentEnhance(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	var req enhanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.canvas.Enhance(c.UserContext(), sess, req.Type); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"content": sess.Document.Get()})
}

func (s *Server) handleDocumentSummarize(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	summary, err := s.canvas.Summarize(c.UserContext(), sess)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"summary": summary})
}

func (s *Server) handleDocumentPreview(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	html, err := s.canvas.Preview(sess)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func (s *Server) handleDocumentOutline(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	return c.JSON(s.canvas.Outline(sess))
}

func (s *Server) handleDocumentSections(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	sections, err := s.canvas.Sections(sess)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"sections": sections})
}

func (s *Server) handleDocumentCodeBlocks(c *fiber.Ctx) error {
	sess, err := s.lookupSession(c)
	if sess == nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	return c.JSON(s.canvas.CodeBlocks(sess))
}
