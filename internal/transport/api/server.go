// Package api exposes the ticket pipeline over HTTP: a server-sent-events
// session stream per meeting plus one-shot JSON endpoints.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

// Pipeline is the conversation processor as seen by the endpoints.
type Pipeline interface {
	Process(ctx context.Context, newText, window, existingTicketID string) (core.ProcessResult, error)
	Analyze(ctx context.Context, current, window string) (core.ActionDecision, error)
	Create(ctx context.Context, current, window string) (core.TicketDraft, core.TicketResult, error)
}

// Sessions starts a transcript session for a bot; the stream ends when ctx does.
type Sessions interface {
	Run(ctx context.Context, botID string) <-chan core.Event
}

type Deps struct {
	Bot      core.MeetingBot
	Tracker  core.IssueTracker
	Pipeline Pipeline
	Sessions Sessions
}

type Server struct {
	echo           *echo.Echo
	addr           string
	defaultBotName string
	deps           Deps
}

func NewServer(addr, defaultBotName string, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		addr:           addr,
		defaultBotName: defaultBotName,
		deps:           deps,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)

	s.echo.POST("/connect-to-meets", s.connectToMeets)
	s.echo.POST("/get-transcript", s.getTranscript)
	s.echo.POST("/analyze-ticket", s.analyzeTicket)
	s.echo.POST("/create-ticket", s.createTicket)
	s.echo.POST("/process-conversation", s.processConversation)
	s.echo.POST("/create-task", s.createTask)
	s.echo.POST("/update-task", s.updateTask)
}

// Start serves until Shutdown. Request contexts derive from ctx, so cancelling
// it ends open session streams.
func (s *Server) Start(ctx context.Context) error {
	s.echo.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	log.FromCtx(ctx).Info().Str("addr", s.addr).Msg("starting http server")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := log.FromCtx(c.Request().Context())
			ev := logger.Info()
			if v.Error != nil {
				ev = logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("http request")
			return nil
		},
	})
}
