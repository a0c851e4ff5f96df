package chat_test

import (
	"blinddate/backend/internal/models"
	"blinddate/backend/internal/realtime"

	"github.com/stretchr/testify/mock"
)

// MockPlatform — мок сховища платформи для тестів чат-сесії.
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) CreateUser(u *models.User) error {
	args := m.Called(u)
	return args.Error(0)
}

func (m *MockPlatform) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockPlatform) UpdateUserStatus(id, status string, partnerID *string) error {
	args := m.Called(id, status, partnerID)
	return args.Error(0)
}

func (m *MockPlatform) InsertMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockPlatform) MessagesBetween(a, b string) ([]models.Message, error) {
	args := m.Called(a, b)
	history, _ := args.Get(0).([]models.Message)
	return history, args.Error(1)
}

func (m *MockPlatform) FindMatch(userID string) (*models.MatchResult, error) {
	args := m.Called(userID)
	res, _ := args.Get(0).(*models.MatchResult)
	return res, args.Error(1)
}

func (m *MockPlatform) SubscribeUser(id string) (*realtime.Subscription, error) {
	args := m.Called(id)
	sub, _ := args.Get(0).(*realtime.Subscription)
	return sub, args.Error(1)
}

func (m *MockPlatform) SubscribeMessages(receiverID string) (*realtime.Subscription, error) {
	args := m.Called(receiverID)
	sub, _ := args.Get(0).(*realtime.Subscription)
	return sub, args.Error(1)
}
