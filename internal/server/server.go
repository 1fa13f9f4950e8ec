package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"llmconf/internal/config"
	"llmconf/internal/exchange"
	"llmconf/internal/manager"
	"llmconf/internal/models"
	"llmconf/internal/router"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 45 * time.Second
	idleTimeout         = 120 * time.Second
)

// ModelService is the model configuration surface exposed over HTTP.
type ModelService interface {
	GetAllModels(ctx context.Context) ([]models.TextModelConfig, error)
	GetEnabledModels(ctx context.Context) ([]models.TextModelConfig, error)
	GetModel(ctx context.Context, key string) (models.TextModelConfig, bool, error)
	AddModel(ctx context.Context, key string, cfg models.TextModelConfig) error
	UpdateModel(ctx context.Context, key string, patch models.Patch) error
	DeleteModel(ctx context.Context, key string) error
	EnableModel(ctx context.Context, key string) error
	DisableModel(ctx context.Context, key string) error
	ExportData(ctx context.Context) ([]models.TextModelConfig, error)
	ImportData(ctx context.Context, data json.RawMessage) (manager.ImportResult, error)
	ValidateData(data json.RawMessage) bool
}

// Resolver turns configuration keys into call targets.
type Resolver interface {
	Resolve(ctx context.Context, key string) (router.Target, error)
	Discover(ctx context.Context, key string) ([]models.TextModel, error)
}

type Server struct {
	cfg      config.Config
	models   ModelService
	resolver Resolver
	log      zerolog.Logger
	app      *echo.Echo
	address  string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, svc ModelService, resolver Resolver, log zerolog.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("model service must not be nil")
	}
	if resolver == nil {
		return nil, errors.New("resolver must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))

	srv := &Server{
		cfg:      cfg,
		models:   svc,
		resolver: resolver,
		log:      log,
		app:      e,
		address:  fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	s.log.Info().Str("addr", s.address).Msg("starting server")

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.log.Info().Msg("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)

	v1 := s.app.Group("/v1")
	v1.GET("/models", s.handleListModels)
	v1.GET("/models/enabled", s.handleListEnabled)
	v1.GET("/models/:key", s.handleGetModel)
	v1.POST("/models/:key", s.handleAddModel)
	v1.PATCH("/models/:key", s.handleUpdateModel)
	v1.DELETE("/models/:key", s.handleDeleteModel)
	v1.POST("/models/:key/enable", s.handleEnable)
	v1.POST("/models/:key/disable", s.handleDisable)
	v1.GET("/models/:key/resolve", s.handleResolve)
	v1.GET("/models/:key/discover", s.handleDiscover)
	v1.GET("/export", s.handleExport)
	v1.POST("/import", s.handleImport)
	v1.POST("/import/validate", s.handleValidateImport)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListModels(c echo.Context) error {
	list, err := s.models.GetAllModels(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, listResponse(list))
}

func (s *Server) handleListEnabled(c echo.Context) error {
	list, err := s.models.GetEnabledModels(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, listResponse(list))
}

func (s *Server) handleGetModel(c echo.Context) error {
	return s.respondModel(c, http.StatusOK)
}

func (s *Server) handleAddModel(c echo.Context) error {
	var cfg models.TextModelConfig
	if err := decodeRequestBody(c, &cfg); err != nil {
		return err
	}

	key := c.Param("key")
	if cfg.ID == "" {
		cfg.ID = key
	}
	if err := s.models.AddModel(c.Request().Context(), key, cfg); err != nil {
		return toHTTPError(err)
	}
	return s.respondModel(c, http.StatusCreated)
}

func (s *Server) handleUpdateModel(c echo.Context) error {
	var patch models.Patch
	if err := decodeRequestBody(c, &patch); err != nil {
		return err
	}

	if err := s.models.UpdateModel(c.Request().Context(), c.Param("key"), patch); err != nil {
		return toHTTPError(err)
	}
	return s.respondModel(c, http.StatusOK)
}

func (s *Server) handleDeleteModel(c echo.Context) error {
	if err := s.models.DeleteModel(c.Request().Context(), c.Param("key")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleEnable(c echo.Context) error {
	if err := s.models.EnableModel(c.Request().Context(), c.Param("key")); err != nil {
		return toHTTPError(err)
	}
	return s.respondModel(c, http.StatusOK)
}

func (s *Server) handleDisable(c echo.Context) error {
	if err := s.models.DisableModel(c.Request().Context(), c.Param("key")); err != nil {
		return toHTTPError(err)
	}
	return s.respondModel(c, http.StatusOK)
}

func (s *Server) handleResolve(c echo.Context) error {
	target, err := s.resolver.Resolve(c.Request().Context(), c.Param("key"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, target.Masked())
}

func (s *Server) handleDiscover(c echo.Context) error {
	list, err := s.resolver.Discover(c.Request().Context(), c.Param("key"))
	if err != nil {
		return toHTTPError(err)
	}
	if list == nil {
		list = []models.TextModel{}
	}
	return c.JSON(http.StatusOK, map[string]any{"object": "list", "data": list})
}

func (s *Server) handleExport(c echo.Context) error {
	format, err := exchange.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return toHTTPError(err)
	}

	list, err := s.models.ExportData(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}

	contentType := echo.MIMEApplicationJSON
	if format == exchange.FormatYAML {
		contentType = "application/yaml"
	}
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	return exchange.Encode(c.Response(), format, list)
}

func (s *Server) handleImport(c echo.Context) error {
	data, err := s.readDocument(c)
	if err != nil {
		return err
	}

	result, err := s.models.ImportData(c.Request().Context(), data)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleValidateImport(c echo.Context) error {
	data, err := s.readDocument(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": s.models.ValidateData(data)})
}

func (s *Server) respondModel(c echo.Context, status int) error {
	key := c.Param("key")
	cfg, ok, err := s.models.GetModel(c.Request().Context(), key)
	if err != nil {
		return toHTTPError(err)
	}
	if !ok {
		return requestError{
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("Model %s does not exist", key),
			Type:    "not_found_error",
		}
	}
	return c.JSON(status, cfg)
}

// readDocument reads an import document, converting YAML bodies to JSON.
func (s *Server) readDocument(c echo.Context) (json.RawMessage, error) {
	format := exchange.FormatJSON
	if name := c.QueryParam("format"); name != "" {
		parsed, err := exchange.ParseFormat(name)
		if err != nil {
			return nil, toHTTPError(err)
		}
		format = parsed
	}

	req := c.Request()
	defer req.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes))
	if err != nil {
		return nil, requestError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("read request body: %v", err),
			Type:    "invalid_request_error",
		}
	}
	if len(body) == 0 {
		return nil, requestError{
			Status:  http.StatusBadRequest,
			Message: "request body is required",
			Type:    "invalid_request_error",
		}
	}

	data, err := exchange.Decode(body, format)
	if err != nil {
		return nil, requestError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
			Type:    "invalid_request_error",
		}
	}
	return data, nil
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
				Type:    "invalid_request_error",
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
			Type:    "invalid_request_error",
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
			Type:    "invalid_request_error",
		}
	}
	return nil
}

func listResponse(list []models.TextModelConfig) map[string]any {
	if list == nil {
		list = []models.TextModelConfig{}
	}
	return map[string]any{"object": "list", "data": list}
}

func printStartupBanner(port int) {
	host := "127.0.0.1"
	fmt.Println()
	fmt.Println("llmconf ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET    /health")
	fmt.Println("  GET    /v1/models[/enabled]")
	fmt.Println("  GET    /v1/models/:key[/resolve|/discover]")
	fmt.Println("  POST   /v1/models/:key[/enable|/disable]")
	fmt.Println("  PATCH  /v1/models/:key")
	fmt.Println("  DELETE /v1/models/:key")
	fmt.Println("  GET    /v1/export?format=json|yaml")
	fmt.Println("  POST   /v1/import[/validate]")
	fmt.Printf("Example:\n  curl -X POST http://%s:%d/v1/models/openai/enable\n\n", host, port)
}
