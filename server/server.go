package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/plasma-umass/llm-utils/chat"
	"github.com/plasma-umass/llm-utils/logger"
	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/server/endpoint"
	"github.com/plasma-umass/llm-utils/server/middleware"
	"github.com/plasma-umass/llm-utils/tokens"
	"github.com/plasma-umass/llm-utils/version"
)

// Deps are the collaborators the handlers serve.
type Deps struct {
	// Pricing prices /v1/cost. Defaults to tokens.DefaultPricing.
	Pricing *tokens.PriceTable
	// Chat answers /v1/chat. Nil leaves the endpoint returning 503.
	Chat chat.ChatAPI
	// Checkers contribute components to /health.
	Checkers []observability.HealthChecker
	// Metrics records request durations when set.
	Metrics *observability.Metrics
	// Logger defaults to the global logger.
	Logger *logger.Logger
}

// Server is the llm-utils HTTP API backed by Gin.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	deps       Deps
	log        *logger.Logger
	listener   net.Listener
}

// New creates a Server with the middleware stack and every route registered.
func New(cfg Config, deps Deps) *Server {
	cfg.ApplyDefaults()
	if deps.Logger == nil {
		deps.Logger = logger.GetGlobalLogger()
	}
	if deps.Pricing == nil {
		deps.Pricing = tokens.DefaultPricing()
	}

	// Set Gin mode based on global zerolog level unless tests pinned it.
	if gin.Mode() != gin.TestMode {
		if zerolog.GlobalLevel() <= zerolog.DebugLevel {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	s := &Server{
		engine: gin.New(),
		config: cfg,
		deps:   deps,
		log:    deps.Logger.WithComponent("server"),
	}
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	s.applyMiddleware()
	s.registerRoutes()
	return s
}

// Name identifies the server in the component registry.
func (s *Server) Name() string { return "http-server" }

// GinEngine returns the underlying Gin engine.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// applyMiddleware installs recovery, request-ID, CORS, body-size limit,
// metrics and request logging.
func (s *Server) applyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.CORS(s.config.CORS))
	s.engine.Use(middleware.BodySizeLimit(s.config.MaxBodyBytes))
	s.engine.Use(middleware.Metrics(s.deps.Metrics))
	s.engine.Use(middleware.RequestLogger(s.log))
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", endpoint.Health(version.Name, 0, s.deps.Checkers...))
	s.engine.GET("/version", endpoint.Version())

	h := &handlers{pricing: s.deps.Pricing, chat: s.deps.Chat, log: s.log}
	v1 := s.engine.Group("/v1")
	v1.POST("/tokens/count", h.countTokens)
	v1.POST("/cost", h.cost)
	v1.GET("/pricing", h.pricingTable)
	v1.POST("/text/wrap", h.wrapText)
	v1.POST("/text/number", h.numberLines)
	v1.POST("/extract/json", h.extractJSON)
	v1.POST("/extract/code", h.extractCode)
	v1.POST("/chatlog/parse", h.parseChatlog)
	v1.POST("/chatlog/generate", h.generateChatlog)
	v1.POST("/chat", h.chatHandler)

	s.engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, notFound(c.Request.URL.Path))
	})
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(_ context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	s.log.Info("Starting HTTP server", map[string]any{
		"addr": s.httpServer.Addr,
	})

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]any{
		"addr": listener.Addr().String(),
	})
	return nil
}

// Stop gracefully shuts down the server within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
