package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo/internal/models"
)

type todoRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *int             `json:"priority"`
	Completed   *bool            `json:"completed"`
	Category    *models.Category `json:"category"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// handleListTodos serves the reconciler's current view of the list.
func (s *Server) handleListTodos(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"todos": s.recon.Items()})
}

// handleCreateTodo inserts a new item at the end of the list. The store
// itself accepts empty titles; this layer does not.
func (s *Server) handleCreateTodo(c *gin.Context) {
	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}

	item := models.Item{Title: *req.Title, Description: getString(req.Description)}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if req.Completed != nil {
		item.Completed = *req.Completed
	}
	if req.Category != nil {
		item.Category = *req.Category
	}

	created, err := s.store.Create(c.Request.Context(), item)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"todo": created})
}

// handleUpdateTodo applies a partial change to one item.
func (s *Server) handleUpdateTodo(c *gin.Context) {
	id := c.Param("id")

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	patch := models.Patch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
		Category:    req.Category,
	}
	if patch.IsZero() {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("empty update"))
		return
	}

	item, err := s.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"todo": item})
}

// handleReorderTodos persists a full new ordering in one batch. The body
// lists every item id in its desired position.
func (s *Server) handleReorderTodos(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if len(req.IDs) == 0 {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("ids are required"))
		return
	}

	items := make([]models.Item, len(req.IDs))
	for i, id := range req.IDs {
		items[i] = models.Item{ID: id}
	}
	if err := s.store.Reorder(c.Request.Context(), items); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "reordered"})
}

// handleMoveTodo handles a drag-end gesture: the item at index from is
// shifted to index to, optimistically in memory first, then persisted.
func (s *Server) handleMoveTodo(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	if err := s.recon.Move(req.From, req.To); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"todos": s.recon.Items()})
}

// handleDeleteTodo removes an item completely.
func (s *Server) handleDeleteTodo(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
