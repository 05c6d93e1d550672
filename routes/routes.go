package routes

import (
	"net/http"

	"qcmanager/handlers"
	"qcmanager/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	QCM      *handlers.QCMHandler
	Question *handlers.QuestionHandler
	Attempt  *handlers.AttemptHandler
	Stats    *handlers.StatsHandler
	User     *handlers.UserHandler
}

func SetupRoutes(router *gin.Engine, h Handlers, tokens middleware.TokenParser) {
	// Unknown JSON fields are rejected instead of silently ignored.
	binding.EnableDecoderDisallowUnknownFields = true

	// Public routes
	router.POST("/login", h.Auth.Login)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Token in query string, checked by the handler
	router.GET("/ws/activity", h.Auth.ActivityFeed)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	admin := middleware.AdminOnly()

	qcm := protected.Group("/qcm")
	{
		qcm.GET("", h.QCM.ListQCMs)
		qcm.GET("/:id", h.QCM.GetQCM)
		qcm.GET("/QcmQuestionsResponses/:id_qcm", h.QCM.GetQCMTree)
		qcm.GET("/QcmQuestions/:id_qcm", h.QCM.ListQuestionSummaries)
		qcm.POST("", admin, h.QCM.CreateQCM)
		qcm.POST("/plusQuestion", admin, h.QCM.CreateQCMWithQuestions)
		qcm.PUT("/:id", admin, h.QCM.UpdateQCM)
		qcm.PUT("/plusQuestion/:id", admin, h.QCM.UpdateQCMWithQuestions)
		qcm.DELETE("/:id", admin, h.QCM.DeleteQCM)
	}

	questions := protected.Group("/questions")
	{
		questions.GET("", h.Question.ListQuestions)
		questions.GET("/:id_question", h.Question.GetQuestion)
		questions.GET("/response/:id_question", h.Question.ListResponses)
		questions.POST("", admin, h.Question.CreateQuestion)
		questions.PUT("/:id_question", admin, h.Question.UpdateQuestion)
		questions.DELETE("/:id_question", admin, h.Question.DeleteQuestion)
	}

	attempts := protected.Group("/quizAttempts")
	{
		attempts.GET("", admin, h.Attempt.ListAttempts)
		attempts.GET("/:id_user", h.Attempt.ListUserAttempts)
		attempts.GET("/attempt_details/:id_attempt", h.Attempt.GetAttemptDetails)
		attempts.POST("/start", h.Attempt.StartAttempt)
		attempts.POST("", h.Attempt.RecordAttempt)
	}

	stats := protected.Group("/stats", admin)
	{
		stats.GET("/nbStagiaire", h.Stats.CountTrainees)
		stats.GET("/nbQuestionnaire", h.Stats.CountQCMs)
		stats.GET("/nbCompletQuestionnaire", h.Stats.CountCompleted)
		stats.GET("/nbRealisedQuestionnaire", h.Stats.CountAttempts)
		stats.GET("/questionnairePopulaire", h.Stats.MostPopularQCM)
		stats.GET("/firstActivStagiaire", h.Stats.MostActiveTrainee)
		stats.GET("/stagiaires", h.Stats.TraineeRanking)
		stats.GET("/averageTime", h.Stats.AverageTime)
	}

	users := protected.Group("/users")
	{
		users.GET("", admin, h.User.ListUsers)
		users.GET("/:id", h.User.GetUser)
		users.POST("", admin, h.User.CreateUser)
		users.PUT("/:id", admin, h.User.UpdateUser)
		users.DELETE("/:id", admin, h.User.DeleteUser)
	}
}
