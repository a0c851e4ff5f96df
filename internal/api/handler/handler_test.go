package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blinddate/backend/internal/models"
	"blinddate/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(platform *MockPlatform) *gin.Engine {
	r := gin.New()
	NewHandler(platform).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterUser(t *testing.T) {
	// Arrange
	platform := new(MockPlatform)
	platform.On("CreateUser", mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*models.User).ID = "u-1"
		}).
		Return(nil)
	r := newTestRouter(platform)

	body := `{"name":"Alex","age":24,"gender":"male","target_gender":"female","instagram_id":"@alex","interests":["music"]}`

	// Act
	w := doJSON(t, r, http.MethodPost, "/users", body, "")

	// Assert
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp.User.ID)
	assert.Equal(t, models.StatusMatching, resp.User.Status, "registration puts the user straight into the queue")
	assert.NotEmpty(t, resp.Token)

	// Виданий токен приймається захищеними маршрутами.
	userID, err := NewHandler(platform).validateAndGetUserID(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestRegisterUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"underage",
			`{"name":"Alex","age":17,"gender":"male","target_gender":"female","instagram_id":"@alex"}`,
			models.ErrAgeTooLow.Error(),
		},
		{
			"absurd age",
			`{"name":"Alex","age":120,"gender":"male","target_gender":"female","instagram_id":"@alex"}`,
			models.ErrAgeInvalid.Error(),
		},
		{
			"missing name",
			`{"age":24,"gender":"male","target_gender":"female","instagram_id":"@alex"}`,
			models.ErrNameRequired.Error(),
		},
		{
			"missing instagram",
			`{"name":"Alex","age":24,"gender":"male","target_gender":"female"}`,
			models.ErrInstagramRequired.Error(),
		},
		{
			"bad gender",
			`{"name":"Alex","age":24,"gender":"other","target_gender":"female","instagram_id":"@alex"}`,
			models.ErrGenderInvalid.Error(),
		},
		{
			"malformed body",
			`{not json`,
			"invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := new(MockPlatform)
			r := newTestRouter(platform)

			w := doJSON(t, r, http.MethodPost, "/users", tt.body, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantErr)
			platform.AssertNotCalled(t, "CreateUser", mock.Anything)
		})
	}
}

func TestGetUser(t *testing.T) {
	platform := new(MockPlatform)
	platform.On("GetUserByID", "u-1").Return(&models.User{ID: "u-1", Name: "Alex"}, nil)
	platform.On("GetUserByID", "ghost").Return(nil, storage.ErrUserNotFound)
	r := newTestRouter(platform)

	w := doJSON(t, r, http.MethodGet, "/users/u-1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Alex"`)

	w = doJSON(t, r, http.MethodGet, "/users/ghost", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaveMatch(t *testing.T) {
	platform := new(MockPlatform)
	platform.On("UpdateUserStatus", "u-1", models.StatusOnline, (*string)(nil)).Return(nil)
	r := newTestRouter(platform)

	token, err := generateJWT("u-1")
	require.NoError(t, err)

	// Без токена — 401.
	w := doJSON(t, r, http.MethodPost, "/users/u-1/leave", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Чужий запис — 403.
	w = doJSON(t, r, http.MethodPost, "/users/u-2/leave", "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Свій — 200 і статус скинуто.
	w = doJSON(t, r, http.MethodPost, "/users/u-1/leave", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	platform.AssertCalled(t, "UpdateUserStatus", "u-1", models.StatusOnline, (*string)(nil))
}

func TestFindMatchEndpoint(t *testing.T) {
	platform := new(MockPlatform)
	platform.On("FindMatch", "u-1").Return(&models.MatchResult{Success: true, MatchedUserID: "p-1"}, nil)
	r := newTestRouter(platform)

	w := doJSON(t, r, http.MethodPost, "/rpc/find_match", `{"user_id":"u-1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var res models.MatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "p-1", res.MatchedUserID)

	w = doJSON(t, r, http.MethodPost, "/rpc/find_match", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMessage(t *testing.T) {
	platform := new(MockPlatform)
	platform.On("InsertMessage", mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*models.Message).ID = "m-1"
		}).
		Return(nil)
	r := newTestRouter(platform)

	token, err := generateJWT("u-1")
	require.NoError(t, err)

	// Повідомлення власної пари — 201.
	body := `{"sender_id":"u-1","receiver_id":"p-1","content":"hi"}`
	w := doJSON(t, r, http.MethodPost, "/messages", body, token)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"m-1"`)

	// Відповідь бота вставляється від імені партнера, одержувач — ми самі.
	body = `{"sender_id":"p-1","receiver_id":"u-1","content":"hey!","is_system":false}`
	w = doJSON(t, r, http.MethodPost, "/messages", body, token)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Чужа пара — 403.
	body = `{"sender_id":"a","receiver_id":"b","content":"hi"}`
	w = doJSON(t, r, http.MethodPost, "/messages", body, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Порожній текст — 400.
	body = `{"sender_id":"u-1","receiver_id":"p-1","content":""}`
	w = doJSON(t, r, http.MethodPost, "/messages", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessages(t *testing.T) {
	platform := new(MockPlatform)
	platform.On("MessagesBetween", "u-1", "p-1").Return([]models.Message{
		{ID: "m-1", SenderID: "p-1", ReceiverID: "u-1", Content: "hey"},
	}, nil)
	r := newTestRouter(platform)

	token, err := generateJWT("u-1")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/messages?partner=p-1", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"hey"`)

	// Без параметра partner — 400.
	w = doJSON(t, r, http.MethodGet, "/messages", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Без токена — 401.
	w = doJSON(t, r, http.MethodGet, "/messages?partner=p-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateRejectsForeignToken(t *testing.T) {
	h := NewHandler(new(MockPlatform))

	_, err := h.validateAndGetUserID("not-a-token")
	assert.Error(t, err)
}
