// Package server exposes the orchestrator over HTTP and a websocket chat.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xhad/courseplan/internal/logger"
	"github.com/xhad/courseplan/pkg/agents"
	"github.com/xhad/courseplan/pkg/pdf"
	"github.com/xhad/courseplan/pkg/processor"
	"github.com/xhad/courseplan/pkg/store"
	"go.uber.org/zap"
)

// UserHeader carries the caller's id; requests without it use the
// anonymous collection.
const UserHeader = "X-User-ID"

type Config struct {
	Port          int
	MaxUploadMB   int
	ImageCacheDir string
	// Mode is the gin mode: debug, release or test.
	Mode string
}

type Server struct {
	config Config
	orch   *agents.Orchestrator
	engine *gin.Engine
}

func NewWithConfig(config Config, orch *agents.Orchestrator) *Server {
	if config.Port == 0 {
		config.Port = 8000
	}
	if config.MaxUploadMB == 0 {
		config.MaxUploadMB = 20
	}
	if config.ImageCacheDir == "" {
		config.ImageCacheDir = "image_cache"
	}
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	s := &Server{config: config, orch: orch}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = int64(s.config.MaxUploadMB) << 20

	r.GET("/health", health)
	r.HEAD("/health", health)
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	api.GET("/health", health)
	api.HEAD("/health", health)
	api.POST("/decompose", s.decompose)
	api.DELETE("/documents/:document_id", s.deleteDocument)
	api.GET("/images/:document_id/:filename", s.image)

	chat := api.Group("/chat")
	chat.POST("/", s.chat)
	chat.DELETE("/:session_id", s.clearSession)
	chat.GET("/sessions/count", s.sessionCount)

	return r
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %d", s.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "courseplan"})
}

func userID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(UserHeader)); id != "" {
		return id
	}
	return "anonymous"
}

func fail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// clientError reports whether err is something the caller can fix.
func clientError(err error) bool {
	return errors.Is(err, agents.ErrInvalidInput) ||
		errors.Is(err, pdf.ErrParse) ||
		errors.Is(err, processor.ErrNoText)
}

func (s *Server) decompose(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		fail(c, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}
	maxBytes := int64(s.config.MaxUploadMB) << 20
	if fh.Size > maxBytes {
		fail(c, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %dMB", s.config.MaxUploadMB))
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, "failed to read upload")
		return
	}

	var metadata map[string]interface{}
	if courseURL := strings.TrimSpace(c.PostForm("course_url")); courseURL != "" {
		metadata = map[string]interface{}{"course_url": courseURL}
	}

	res, err := s.orch.RunDecomposition(c.Request.Context(), content, userID(c), metadata)
	if err != nil {
		if clientError(err) {
			fail(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Errorw("decomposition failed", "file", fh.Filename, "error", err)
		fail(c, http.StatusInternalServerError, "Processing failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, newDecomposeResponse(res))
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := s.orch.RunChat(c.Request.Context(), req.Question, req.SessionID, store.CollectionName(userID(c)))
	if err != nil {
		if errors.Is(err, agents.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Errorw("chat failed", "session_id", req.SessionID, "error", err)
		fail(c, http.StatusInternalServerError, "Chat failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) clearSession(c *gin.Context) {
	id := c.Param("session_id")
	if err := s.orch.ClearSession(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "session_id": id})
}

func (s *Server) sessionCount(c *gin.Context) {
	n, err := s.orch.SessionCount(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_sessions": n})
}

func (s *Server) deleteDocument(c *gin.Context) {
	id := c.Param("document_id")
	if err := s.orch.DeleteDocument(c.Request.Context(), userID(c), id); err != nil {
		if clientError(err) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "document_id": id})
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func (s *Server) image(c *gin.Context) {
	root, err := filepath.Abs(s.config.ImageCacheDir)
	if err != nil {
		fail(c, http.StatusInternalServerError, "image cache unavailable")
		return
	}
	path, err := filepath.Abs(filepath.Join(root, c.Param("document_id"), c.Param("filename")))
	if err != nil || !strings.HasPrefix(path, root+string(filepath.Separator)) {
		fail(c, http.StatusForbidden, "Access denied")
		return
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		fail(c, http.StatusNotFound, "Image not found")
		return
	}

	contentType, ok := imageTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.File(path)
}
