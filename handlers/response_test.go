package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"qcmanager/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		debug   bool
		status  int
		message string
		details string
	}{
		{"validation", &services.ValidationError{Message: "title is required"}, false, http.StatusBadRequest, "title is required", ""},
		{"not found", &services.NotFoundError{Resource: "qcm", ID: 4}, false, http.StatusNotFound, "qcm 4 not found", ""},
		{"conflict", &services.ConflictError{Message: "dup"}, false, http.StatusConflict, "dup", ""},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, false, http.StatusUnauthorized, "nope", ""},
		{"forbidden", &services.ForbiddenError{Message: "no"}, false, http.StatusForbidden, "no", ""},
		{"store failure hidden", errors.New("pq: connection reset"), false, http.StatusInternalServerError, "Internal server error", ""},
		{"store failure in debug", errors.New("pq: connection reset"), true, http.StatusInternalServerError, "Internal server error", "pq: connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Debug = tt.debug
			t.Cleanup(func() { Debug = false })

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, tt.details, body["details"])
		})
	}
}
