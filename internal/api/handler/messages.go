package handler

import (
	"net/http"

	"blinddate/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// ListMessages повертає історію листування пари, відсортовану за часом.
func (h *Handler) ListMessages(c *gin.Context) {
	userID, ok := h.requireAuth(c)
	if !ok {
		return
	}
	partnerID := c.Query("partner")
	if partnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partner is required"})
		return
	}

	history, err := h.Platform.MessagesBetween(userID, partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, history)
}

type createMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	IsSystem   bool   `json:"is_system"`
}

// CreateMessage вставляє повідомлення. Відправником може бути сам
// користувач або бот, якого він веде локально.
func (h *Handler) CreateMessage(c *gin.Context) {
	userID, ok := h.requireAuth(c)
	if !ok {
		return
	}

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message"})
		return
	}
	if req.SenderID != userID && req.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "message outside own pairing"})
		return
	}

	msg := &models.Message{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		IsSystem:   req.IsSystem,
	}
	if err := h.Platform.InsertMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}
