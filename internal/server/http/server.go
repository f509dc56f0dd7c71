// Package http exposes the upload service over a plupload-style multipart
// endpoint served by gin.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophupload/internal/logging"
	"github.com/dmitrijs2005/gophupload/internal/server/models"
	"github.com/dmitrijs2005/gophupload/internal/server/services"
	"github.com/gin-gonic/gin"
)

// UploadService is what the HTTP transport needs from the service layer.
type UploadService interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
	Recent(ctx context.Context, limit int) ([]*models.CompletedUpload, error)
	Pending() int
}

type HTTPServer struct {
	address   string
	uploads   UploadService
	logger    logging.Logger
	jwtSecret []byte
	metrics   http.Handler
	maxMemory int64
}

// NewHTTPServer builds the server. metrics may be nil, in which case
// GET /metrics is not routed.
func NewHTTPServer(a string, l logging.Logger, us UploadService, secretKey string, metrics http.Handler) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		uploads:   us,
		jwtSecret: []byte(secretKey),
		metrics:   metrics,
		maxMemory: 32 << 20,
	}
}

// Router returns the gin engine with every route mounted.
func (s *HTTPServer) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID())
	router.MaxMultipartMemory = s.maxMemory

	router.GET("/ping", s.ping)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	authorized := router.Group("/", s.accessToken())
	authorized.POST("/upload", s.upload)
	authorized.GET("/uploads/recent", s.recent)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
