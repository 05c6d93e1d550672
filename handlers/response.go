package handlers

import (
	"net/http"
	"strconv"

	"qcmanager/middleware"
	"qcmanager/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Debug echoes internal error text in the "details" field of 500 responses.
var Debug bool

// respondError maps service errors onto HTTP statuses. Anything untyped is a
// store failure: it is logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case services.IsValidation(err):
		status = http.StatusBadRequest
	case services.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case services.IsForbidden(err):
		status = http.StatusForbidden
	case services.IsNotFound(err):
		status = http.StatusNotFound
	case services.IsConflict(err):
		status = http.StatusConflict
	}

	if status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	log.WithFields(log.Fields{
		"request_id": c.GetString(middleware.RequestIDKey),
		"route":      c.FullPath(),
	}).WithError(err).Error("request failed")

	body := gin.H{"error": "Internal server error"}
	if Debug {
		body["details"] = err.Error()
	}
	c.JSON(status, body)
}

// bindJSON decodes the body and answers 400 on malformed input.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) (uint, bool) {
	var userID uint
	if v, exists := c.Get(middleware.UserIDKey); exists {
		userID, _ = v.(uint)
	}
	return userID, c.GetBool(middleware.IsAdminKey)
}

// allowSelfOrAdmin answers 403 unless the caller is ownerID or an admin.
func allowSelfOrAdmin(c *gin.Context, ownerID uint) bool {
	userID, isAdmin := currentUser(c)
	if isAdmin || userID == ownerID {
		return true
	}
	respondError(c, &services.ForbiddenError{Message: "Access denied"})
	return false
}
