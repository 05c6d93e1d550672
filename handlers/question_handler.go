package handlers

import (
	"net/http"

	"qcmanager/models"
	"qcmanager/services"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questionService *services.QuestionService
	hub             *services.Hub
}

func NewQuestionHandler(questionService *services.QuestionService, hub *services.Hub) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		hub:             hub,
	}
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questionService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id_question")
	if !ok {
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) ListResponses(c *gin.Context) {
	questionID, ok := parseID(c, "id_question")
	if !ok {
		return
	}

	responses, err := h.questionService.ListResponses(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// CreateQuestion keeps a supplied type and infers it otherwise.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		question *models.Question
		err      error
	)
	if req.Type != "" {
		question, err = h.questionService.CreateWithExplicitType(c.Request.Context(), &req)
	} else {
		question, err = h.questionService.CreateWithInferredType(c.Request.Context(), &req)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQuestionCreated, question)
	c.JSON(http.StatusCreated, gin.H{"message": "Question created", "questionId": question.ID, "question": question})
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id_question")
	if !ok {
		return
	}

	var req services.UpdateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), questionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQuestionUpdated, question)
	c.JSON(http.StatusOK, gin.H{"message": "Question updated", "question": question})
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := parseID(c, "id_question")
	if !ok {
		return
	}

	question, err := h.questionService.Delete(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Publish(services.EventQuestionDeleted, gin.H{"id": question.ID, "id_qcm": question.QCMID})
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted", "question": question})
}
