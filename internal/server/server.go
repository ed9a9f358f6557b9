package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo/internal/list"
	"todo/internal/storage"
)

// Server provides the HTTP surface over the item store: CRUD, reorder,
// and a websocket snapshot stream.
type Server struct {
	engine    *gin.Engine
	store     storage.Gateway
	recon     *list.Reconciler
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured
// and attaches the list reconciler to the store.
func New(store storage.Gateway, logger *slog.Logger, staticDir string) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	recon := list.New(store, logger)
	if err := recon.Attach(context.Background()); err != nil {
		return nil, fmt.Errorf("attach reconciler: %w", err)
	}

	srv := &Server{
		engine:    router,
		store:     store,
		recon:     recon,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv, nil
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Close releases the reconciler's store subscription.
func (s *Server) Close() {
	s.recon.Close()
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		todos := api.Group("/todos")
		{
			todos.GET("", s.handleListTodos)
			todos.POST("", s.handleCreateTodo)
			todos.GET("/ws", s.handleWatchTodos)
			todos.PUT("/reorder", s.handleReorderTodos)
			todos.POST("/move", s.handleMoveTodo)
			todos.PATCH(":id", s.handleUpdateTodo)
			todos.DELETE(":id", s.handleDeleteTodo)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
