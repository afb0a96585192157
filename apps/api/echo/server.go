// Package echoapi serves the class portal stores over a JSON HTTP API.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/dig"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/analytics"
	"github.com/trezcool/classportal/core/announcement"
	"github.com/trezcool/classportal/core/assignment"
	"github.com/trezcool/classportal/core/collaboration"
	"github.com/trezcool/classportal/core/feedback"
	"github.com/trezcool/classportal/core/forum"
	"github.com/trezcool/classportal/core/grade"
	"github.com/trezcool/classportal/core/knowledge"
	"github.com/trezcool/classportal/core/material"
	"github.com/trezcool/classportal/core/report"
	"github.com/trezcool/classportal/core/user"
	"github.com/trezcool/classportal/services/metrics"
)

// Deps holds everything the Server needs. It is filled by the dig container, or by hand in tests.
type Deps struct {
	dig.In

	Conf    *core.Config
	Logger  core.Logger
	Metrics *metrics.Metrics `optional:"true"`

	Users         *user.Service
	Announcements *announcement.Service
	Assignments   *assignment.Service
	Grades        *grade.Service
	Feedback      *feedback.Service
	Forums        *forum.Service
	Knowledge     *knowledge.Service
	Collaboration *collaboration.Service
	Materials     *material.Service
	Reports       *report.Generator
	Analytics     *analytics.Engine
}

type Server struct {
	deps     Deps
	app      *echo.Echo
	auth     *authenticator
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps Deps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.Users),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.auth, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerUserAPI(v1, authed, s.auth, s.deps.Users)
	registerAnnouncementAPI(v1.Group("/announcements", authed), s.auth, s.deps.Announcements)
	registerAssignmentAPI(v1.Group("/assignments", authed), s.auth, s.deps.Assignments)
	registerGradeAPI(v1.Group("/grades", authed), s.auth, s.deps.Grades)
	registerFeedbackAPI(v1.Group("/feedback", authed), s.auth, s.deps.Feedback)
	registerForumAPI(v1.Group("/forums", authed), s.auth, s.deps.Forums)
	registerKnowledgeAPI(v1.Group("/knowledge", authed), s.auth, s.deps.Knowledge)
	registerCollaborationAPI(v1.Group("", authed), s.auth, s.deps.Collaboration)
	registerMaterialAPI(v1.Group("/materials", authed), s.auth, s.deps.Materials, s.deps.Assignments)
	registerReportAPI(v1.Group("/reports", authed), s.auth, s.deps.Reports)
	registerAnalyticsAPI(v1.Group("/analytics", authed), s.auth, s.deps.Analytics)
}

// Start blocks until the server stops. Listen errors are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
