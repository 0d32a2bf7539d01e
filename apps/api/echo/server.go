package echoapi

import (
	"context"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc        *user.Service
		ActivitySvc    *activity.Service
		PatientSvc     *patient.Service
		AchievementSvc *achievement.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, shutdown chan os.Signal) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: shutdown,
	}
	initAuth(opts.Conf)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerActivityAPI(v1, jwt, s.opts.ActivitySvc)
	registerPatientAPI(v1, jwt, s.opts.PatientSvc, s.opts.ActivitySvc, s.opts.AchievementSvc)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// signalShutdown triggers a graceful shutdown when an unrecoverable error is caught.
func (s *server) signalShutdown() {
	s.shutdown <- os.Interrupt
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Pictotea API!")
}
