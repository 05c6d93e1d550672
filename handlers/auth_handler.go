package handlers

import (
	"net/http"

	"qcmanager/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService *services.AuthService
	hub         *services.Hub
	upgrader    websocket.Upgrader
}

func NewAuthHandler(authService *services.AuthService, hub *services.Hub) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ActivityFeed upgrades an admin connection onto the activity hub. Browsers
// cannot set headers on websocket requests, so the token comes in the query.
func (h *AuthHandler) ActivityFeed(c *gin.Context) {
	claims, err := h.authService.ParseToken(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !claims.IsAdmin {
		respondError(c, &services.ForbiddenError{Message: "Administrator access required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).WithField("user", claims.UserID).Warn("websocket upgrade failed")
		return
	}
	h.hub.RegisterClient(conn, claims.UserID)
}
