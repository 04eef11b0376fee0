package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"canvasd/app/client/llm"
	"canvasd/app/client/n8n"
	"canvasd/app/client/perplexity"
	"canvasd/app/config"
	"canvasd/app/server"
	"canvasd/app/service/canvas"
	"canvasd/app/service/conversation"
	"canvasd/app/service/markdown"
	"canvasd/app/service/session"
	"canvasd/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, func(_ *do.Injector) (llm.Client, error) {
		return llm.NewOpenAIClient(cfg.OpenAI.Chat), nil
	})
	do.Provide(di, func(_ *do.Injector) (*markdown.Processor, error) {
		return markdown.NewProcessor(), nil
	})
	do.Provide(di, perplexity.NewClient)
	do.Provide(di, n8n.NewClient)
	do.Provide(di, session.NewRegistry)
	do.Provide(di, conversation.New)
	do.Provide(di, canvas.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	g, gCtx := errgroup.WithContext(appCtx)

	g.Go(func() error {
		return do.MustInvoke[*server.Server](di).Run(gCtx)
	})

	g.Go(func() error {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)

		select {
		case <-sigint:
			log.Info("Shutting down...")
			cancel()
		case <-gCtx.Done():
		}

		return nil
	})

	if err = g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}
}
