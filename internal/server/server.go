package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkrutov/wb-catalog/internal/services/catalog"
)

const readHeaderTimeout = 5 * time.Second

// Server is the HTTP front of the catalog: the product listing endpoint plus
// the interactive documentation surface.
type Server struct {
	log     *slog.Logger
	catalog catalog.Interface
	httpSrv *http.Server
}

// NewServer builds the gin engine with its routes and wraps it in an
// http.Server bound to all interfaces on the given port.
func NewServer(log *slog.Logger, service catalog.Interface, port int) *Server {
	srv := &Server{log: log, catalog: service}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), corsMiddleware())

	router.GET("/", srv.handleRoot)
	router.GET("/health", srv.handleHealth)
	router.GET("/docs", srv.handleDocs)
	router.GET("/openapi.json", srv.handleOpenAPI)

	api := router.Group("/api")
	api.GET("/products", srv.handleListProducts)
	api.GET("/products/:product_id", srv.handleGetProduct)

	srv.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// Handler is a getter for the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Run() error {
	s.log.Info("HTTP server listening", "addr", s.httpSrv.Addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}
