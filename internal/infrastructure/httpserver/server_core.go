package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/ports"
	customMiddleware "github.com/avatarctic/dashboard-cache/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
	AdminScope   string
	Backend      string
}

type ServerDeps struct {
	CacheAdmin     ports.CacheAdminService
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	cacheAdmin     ports.CacheAdminService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, jwtSecret string, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		cacheAdmin:     deps.CacheAdmin,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			logger,
			jwtSecret,
			serverConfig.AdminScope,
			GetRequestsTotal(),
			GetRequestDuration(),
			"/metrics", "/health",
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
