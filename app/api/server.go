package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"maven/app/config"
	"maven/app/service/assistant"
	"maven/app/service/braindump"
	"maven/app/service/registry"
	"maven/app/service/search"
	"maven/app/service/voice"
	"maven/app/service/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	maxBodySize       = 8 << 20
	heartbeatInterval = 15 * time.Second
)

var _ do.Shutdownable = (*Server)(nil)

// Server is the HTTP surface over the assistant and the workspace.
type Server struct {
	ctx       context.Context
	listen    string
	app       *fiber.App
	assistant *assistant.Service
	voice     *voice.Service
	braindump *braindump.Service
	search    *search.Service
	workspace *workspace.Service
	registry  *registry.Registry
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewServer(
		do.MustInvoke[context.Context](di),
		cfg.HTTP.Listen,
		do.MustInvoke[*assistant.Service](di),
		do.MustInvoke[*voice.Service](di),
		do.MustInvoke[*braindump.Service](di),
		do.MustInvoke[*search.Service](di),
		do.MustInvoke[*workspace.Service](di),
		do.MustInvoke[*registry.Registry](di),
	), nil
}

// NewServer wires the routes. ctx bounds the lifetime of voice captures and streams.
func NewServer(
	ctx context.Context,
	listen string,
	assistantSvc *assistant.Service,
	voiceSvc *voice.Service,
	braindumpSvc *braindump.Service,
	searchSvc *search.Service,
	workspaceSvc *workspace.Service,
	reg *registry.Registry,
) *Server {
	s := &Server{
		ctx:       ctx,
		listen:    listen,
		assistant: assistantSvc,
		voice:     voiceSvc,
		braindump: braindumpSvc,
		search:    searchSvc,
		workspace: workspaceSvc,
		registry:  reg,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "maven",
		BodyLimit:             maxBodySize,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	api.Post("/chat", s.chat)
	api.Get("/chat/transcript", s.transcript)
	api.Get("/chat/stream", s.stream)
	api.Get("/chat/state", s.state)

	api.Put("/input", s.setInput)
	api.Post("/input/send", s.sendInput)

	api.Post("/voice/start", s.startVoice)
	api.Post("/voice/stop", s.stopVoice)

	api.Get("/actions", s.actions)

	api.Post("/braindump", s.extract)
	api.Post("/braindump/toggle", s.toggle)
	api.Post("/braindump/commit", s.commit)
	api.Delete("/braindump", s.discard)

	api.Post("/search", s.searchNotes)

	api.Get("/workspace", s.snapshot)
	api.Put("/pages/:id/banner", s.putBanner)
	api.Get("/pages/:id/banner", s.getBanner)

	api.Post("/classes", s.addClass)
	api.Delete("/classes/:id", s.deleteClass)
	api.Post("/classes/:id/students", s.addStudents)
	api.Delete("/students/:id", s.deleteStudent)
	api.Put("/attendance/:date/:student", s.setAttendance)
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP server listening", "addr", s.listen)
		errCh <- s.app.Listen(s.listen)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return oops.In("api").With("addr", s.listen).Wrapf(err, "http server failed")
	}
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	message := err.Error()
	if fiberErr != nil {
		message = fiberErr.Message
	}

	return c.Status(code).JSON(errorResponse{Error: message})
}
