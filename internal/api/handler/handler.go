package handler

import (
	"blinddate/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler містить посилання на платформу даних
type Handler struct {
	Platform storage.Platform
}

func NewHandler(p storage.Platform) *Handler {
	return &Handler{Platform: p}
}

// RegisterRoutes wires the platform surface onto the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/users", h.RegisterUser)
	r.GET("/users/:id", h.GetUser)
	r.POST("/users/:id/leave", h.LeaveMatch)
	r.POST("/rpc/find_match", h.FindMatch)
	r.GET("/messages", h.ListMessages)
	r.POST("/messages", h.CreateMessage)
	r.GET("/ws", h.ServeWebSocket)
}
