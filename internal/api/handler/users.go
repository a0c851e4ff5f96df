package handler

import (
	"errors"
	"net/http"

	"blinddate/backend/internal/models"
	"blinddate/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type registerRequest struct {
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	Gender       string   `json:"gender"`
	TargetGender string   `json:"target_gender"`
	InstagramID  string   `json:"instagram_id"`
	Interests    []string `json:"interests"`
}

// RegisterUser створює профіль та одразу ставить користувача в чергу
// пошуку. Повертає запис разом із JWT для WebSocket-каналу.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user := &models.User{
		Name:         req.Name,
		Age:          req.Age,
		Gender:       req.Gender,
		TargetGender: req.TargetGender,
		InstagramID:  req.InstagramID,
		Interests:    pq.StringArray(req.Interests),
		Status:       models.StatusMatching, // Одразу до пошуку
	}

	if err := user.ValidateProfile(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Platform.CreateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	token, err := generateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Platform.GetUserByID(c.Param("id"))
	if errors.Is(err, storage.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// LeaveMatch скидає статус користувача та прибирає посилання на партнера.
func (h *Handler) LeaveMatch(c *gin.Context) {
	userID, ok := h.requireAuth(c)
	if !ok {
		return
	}
	if userID != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot modify another user"})
		return
	}

	if err := h.Platform.UpdateUserStatus(userID, models.StatusOnline, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusOnline})
}

type findMatchRequest struct {
	UserID string `json:"user_id"`
}

// FindMatch викликає процедуру пошуку пари для користувача.
func (h *Handler) FindMatch(c *gin.Context) {
	var req findMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	result, err := h.Platform.FindMatch(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "find_match failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// requireAuth витягує ID користувача з Bearer-токена.
func (h *Handler) requireAuth(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return "", false
	}
	userID, err := h.validateAndGetUserID(authHeader[7:])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return "", false
	}
	return userID, true
}
