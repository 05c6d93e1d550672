package handlers

import (
	"net/http"

	"qcmanager/services"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	attemptService *services.AttemptService
	hub            *services.Hub
}

func NewAttemptHandler(attemptService *services.AttemptService, hub *services.Hub) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		hub:            hub,
	}
}

func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	attempts, err := h.attemptService.ListAttempts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (h *AttemptHandler) ListUserAttempts(c *gin.Context) {
	userID, ok := parseID(c, "id_user")
	if !ok || !allowSelfOrAdmin(c, userID) {
		return
	}

	attempts, err := h.attemptService.ListUserAttempts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (h *AttemptHandler) GetAttemptDetails(c *gin.Context) {
	attemptID, ok := parseID(c, "id_attempt")
	if !ok {
		return
	}

	details, err := h.attemptService.GetAttemptDetails(c.Request.Context(), attemptID)
	if err != nil {
		respondError(c, err)
		return
	}
	// Someone else's attempt reads as missing so ids cannot be enumerated.
	if userID, isAdmin := currentUser(c); !isAdmin && userID != details.UserID {
		respondError(c, &services.NotFoundError{Resource: "attempt", ID: attemptID})
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := currentUser(c)
	session, err := h.attemptService.StartAttempt(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// RecordAttempt stores a submission. Trainees may only submit for
// themselves; an omitted id_user means the caller.
func (h *AttemptHandler) RecordAttempt(c *gin.Context) {
	var req services.RecordAttemptRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := currentUser(c)
	if req.UserID == 0 {
		req.UserID = userID
	}
	if !allowSelfOrAdmin(c, req.UserID) {
		return
	}

	res, err := h.attemptService.RecordAttempt(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventAttemptRecorded, gin.H{
		"id":      res.Attempt.ID,
		"id_user": res.Attempt.UserID,
		"id_qcm":  res.Attempt.QCMID,
		"score":   res.Attempt.Score,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Attempt recorded",
		"attemptId": res.Attempt.ID,
		"score":     res.Result.Score,
		"attempt":   res.Attempt,
		"result":    res.Result,
	})
}
