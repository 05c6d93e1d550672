package handlers

import (
	"net/http"

	"qcmanager/services"

	"github.com/gin-gonic/gin"
)

type QCMHandler struct {
	qcmService *services.QCMService
	hub        *services.Hub
}

func NewQCMHandler(qcmService *services.QCMService, hub *services.Hub) *QCMHandler {
	return &QCMHandler{
		qcmService: qcmService,
		hub:        hub,
	}
}

func (h *QCMHandler) ListQCMs(c *gin.Context) {
	qcms, err := h.qcmService.ListQCMs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, qcms)
}

func (h *QCMHandler) GetQCM(c *gin.Context) {
	qcmID, ok := parseID(c, "id")
	if !ok {
		return
	}

	qcm, err := h.qcmService.GetQCM(c.Request.Context(), qcmID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, qcm)
}

func (h *QCMHandler) GetQCMTree(c *gin.Context) {
	qcmID, ok := parseID(c, "id_qcm")
	if !ok {
		return
	}

	qcm, err := h.qcmService.GetQCMTree(c.Request.Context(), qcmID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, qcm)
}

func (h *QCMHandler) ListQuestionSummaries(c *gin.Context) {
	qcmID, ok := parseID(c, "id_qcm")
	if !ok {
		return
	}

	rows, err := h.qcmService.ListQuestionSummaries(c.Request.Context(), qcmID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *QCMHandler) CreateQCM(c *gin.Context) {
	var req services.CreateQCMRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := currentUser(c)
	qcm, err := h.qcmService.CreateQCM(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQCMCreated, qcm)
	c.JSON(http.StatusCreated, gin.H{"message": "QCM created", "qcmId": qcm.ID, "qcm": qcm})
}

func (h *QCMHandler) CreateQCMWithQuestions(c *gin.Context) {
	var req services.CreateQCMTreeRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := currentUser(c)
	qcm, err := h.qcmService.CreateQCMWithQuestions(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQCMCreated, qcm)
	c.JSON(http.StatusCreated, gin.H{"message": "QCM created with its questions", "qcmId": qcm.ID, "qcm": qcm})
}

func (h *QCMHandler) UpdateQCM(c *gin.Context) {
	qcmID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateQCMRequest
	if !bindJSON(c, &req) {
		return
	}

	qcm, err := h.qcmService.UpdateQCM(c.Request.Context(), qcmID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQCMUpdated, qcm)
	c.JSON(http.StatusOK, gin.H{"message": "QCM updated", "qcm": qcm})
}

func (h *QCMHandler) UpdateQCMWithQuestions(c *gin.Context) {
	qcmID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateQCMTreeRequest
	if !bindJSON(c, &req) {
		return
	}

	qcm, err := h.qcmService.UpdateQCMWithQuestions(c.Request.Context(), qcmID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQCMUpdated, qcm)
	c.JSON(http.StatusOK, gin.H{"message": "QCM and questions updated", "qcm": qcm})
}

func (h *QCMHandler) DeleteQCM(c *gin.Context) {
	qcmID, ok := parseID(c, "id")
	if !ok {
		return
	}

	qcm, err := h.qcmService.DeleteQCM(c.Request.Context(), qcmID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQCMDeleted, gin.H{"id": qcm.ID, "title": qcm.Title})
	c.JSON(http.StatusOK, gin.H{"message": "QCM deleted", "qcm": qcm})
}
