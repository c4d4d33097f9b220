package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// syncRequest keeps records raw so one bad record cannot fail the batch.
type syncRequest struct {
	Tasks *[]json.RawMessage `json:"tasks"`
}

// SyncTasks - POST /tasks/sync
func (h *Handler) SyncTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tasks == nil {
		badRequest(c, "tasks must be an array")
		return
	}

	res, err := h.Sync.Reconcile(c.Request.Context(), userID, *req.Tasks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"syncedTasks": res.SyncedTasks,
		"conflicts":   res.Conflicts,
		"serverTasks": res.ServerTasks,
		"skipped":     res.Skipped,
	})
}
