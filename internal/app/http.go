package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/handlers"
	"alfredoptarigan/agentic-curie/internal/mcpserver"
)

const AppName = "Agentic Curie API"

var endpoints = []string{
	"POST /api/files/upload",
	"GET /api/files",
	"GET /api/files/:id/download",
	"DELETE /api/files/:id",
	"POST /api/chat",
	"POST /api/summarize",
	"POST /api/match",
	"GET /health",
	"POST /mcp",
}

// NewHTTPApp builds the Fiber app with every route mounted.
func NewHTTPApp(c *Container) (*fiber.App, error) {
	maxFileSize := c.Config.Storage.MaxFileSize

	fileHandler := handlers.NewFileHandler(c.Files, c.Index, maxFileSize, c.Logger)
	chatHandler := handlers.NewChatHandler(c.Agent, c.Logger)
	pipelineHandler := handlers.NewPipelineHandler(c.Summarizer, c.Matcher, c.Extractor, maxFileSize, c.Logger)

	mcpServer, err := mcpserver.NewServer(c.Toolbox, c.Files, mcpserver.Options{}, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    bodyLimit(maxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Mcp-Session-Id",
		ExposeHeaders: "Content-Disposition, X-Token-Input, X-Token-Output, X-Token-Total",
	}))

	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"status":       "healthy",
			"time":         time.Now(),
			"llm":          c.LLM.Configured(),
			"search_index": c.Index != nil,
		})
	})

	api := app.Group("/api")
	api.Post("/files/upload", fileHandler.HandleUpload)
	api.Get("/files", fileHandler.HandleList)
	api.Get("/files/:id/download", fileHandler.HandleDownload)
	api.Delete("/files/:id", fileHandler.HandleDelete)
	api.Post("/chat", chatHandler.HandleChat)
	api.Post("/summarize", pipelineHandler.HandleSummarize)
	api.Post("/match", pipelineHandler.HandleMatch)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.HTTPHandler()))

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message":   AppName,
			"version":   mcpserver.Version,
			"endpoints": endpoints,
		})
	})

	return app, nil
}

// Serve runs the janitor and the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, c *Container) error {
	app, err := NewHTTPApp(c)
	if err != nil {
		return err
	}

	c.Janitor.Start(ctx)

	go func() {
		<-ctx.Done()
		c.Logger.Info("🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			c.Logger.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", c.Config.Server.Port)
	c.Logger.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// bodyLimit leaves room for several files plus multipart framing.
func bodyLimit(maxFileSize int64) int {
	const minLimit = 4 * 1024 * 1024
	limit := maxFileSize * 10
	if limit < minLimit {
		return minLimit
	}
	return int(limit)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
