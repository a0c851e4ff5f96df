package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"blinddate/backend/internal/models"
	"blinddate/backend/internal/realtime"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Platform is the hosted data surface the client orchestration talks to:
// the users and messages tables, the find_match procedure and row-level
// event subscriptions.
type Platform interface {
	CreateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	UpdateUserStatus(id, status string, partnerID *string) error

	InsertMessage(msg *models.Message) error
	MessagesBetween(userID, partnerID string) ([]models.Message, error)

	FindMatch(userID string) (*models.MatchResult, error)

	SubscribeUser(id string) (*realtime.Subscription, error)
	SubscribeMessages(receiverID string) (*realtime.Subscription, error)
}

var ErrUserNotFound = errors.New("user not found")

const searchQueueKey = "search_queue"

// Service implements Platform on PostgreSQL (tables) and Redis (row-event
// pub/sub plus the search-queue index).
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService Constructor
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// CreateUser зберігає нового користувача в PostgreSQL. Якщо він одразу
// шукає пару, додаємо його в чергу пошуку.
func (s *Service) CreateUser(user *models.User) error {
	if user.Status == models.StatusMatching && user.MatchingSince == nil {
		now := time.Now()
		user.MatchingSince = &now
	}
	if err := s.DB.Create(user).Error; err != nil {
		return err
	}
	if user.Status == models.StatusMatching {
		if err := s.addToSearchQueue(user.ID); err != nil {
			log.Printf("ERROR: Failed to enqueue user %s for search: %v", user.ID, err)
		}
	}
	return nil
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserStatus змінює статус користувача та посилання на партнера,
// синхронізує чергу пошуку і публікує row-event для підписників.
func (s *Service) UpdateUserStatus(id, status string, partnerID *string) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	user.Status = status
	user.PartnerID = partnerID
	switch status {
	case models.StatusMatching:
		if user.MatchingSince == nil {
			now := time.Now()
			user.MatchingSince = &now
		}
	default:
		user.MatchingSince = nil
	}

	if err := s.DB.Save(user).Error; err != nil {
		return err
	}

	if status == models.StatusMatching {
		if err := s.addToSearchQueue(id); err != nil {
			log.Printf("ERROR: Failed to enqueue user %s for search: %v", id, err)
		}
	} else {
		if err := s.removeFromSearchQueue(id); err != nil {
			log.Printf("ERROR: Failed to dequeue user %s: %v", id, err)
		}
	}

	s.publishUser(user)
	return nil
}

// InsertMessage зберігає повідомлення та публікує insert-event у канал
// одержувача. ID та CreatedAt заповнюються під час створення.
func (s *Service) InsertMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message from %s: %v", msg.SenderID, err)
		return err
	}
	s.publishMessage(msg)
	return nil
}

// MessagesBetween отримує історію листування пари, відсортовану за часом.
func (s *Service) MessagesBetween(userID, partnerID string) ([]models.Message, error) {
	var history []models.Message
	pair := []string{userID, partnerID}
	err := s.DB.
		Where("sender_id IN ?", pair).
		Where("receiver_id IN ?", pair).
		Order("created_at asc").
		Find(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to get chat history for %s/%s: %v", userID, partnerID, err)
		return nil, err
	}
	return history, nil
}

// SubscribeUser opens a feed of update events for one users-table row.
func (s *Service) SubscribeUser(id string) (*realtime.Subscription, error) {
	return s.subscribe(userChannel(id))
}

// SubscribeMessages opens a feed of insert events for messages addressed to
// the given receiver.
func (s *Service) SubscribeMessages(receiverID string) (*realtime.Subscription, error) {
	return s.subscribe(messageChannel(receiverID))
}

func (s *Service) subscribe(channel string) (*realtime.Subscription, error) {
	pubsub := s.Redis.Subscribe(s.Ctx, channel)
	// Переконуємося, що підписка активна, перш ніж повертати її клієнту.
	if _, err := pubsub.Receive(s.Ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := realtime.NewSubscription(16, func() { pubsub.Close() })

	go func() {
		// go-redis перепідписується сам після обриву з'єднання, тому тут
		// немає власного reconnect-циклу.
		defer sub.Unsubscribe()
		for msg := range pubsub.Channel() {
			var ev realtime.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("Error unmarshalling realtime event: %v", err)
				continue
			}
			sub.Emit(ev)
		}
	}()

	return sub, nil
}

func (s *Service) publishUser(user *models.User) {
	ev, err := realtime.NewUserEvent(realtime.EventUpdate, user)
	if err != nil {
		log.Printf("Error encoding user event: %v", err)
		return
	}
	s.publish(userChannel(user.ID), ev)
}

func (s *Service) publishMessage(msg *models.Message) {
	ev, err := realtime.NewMessageEvent(realtime.EventInsert, msg)
	if err != nil {
		log.Printf("Error encoding message event: %v", err)
		return
	}
	s.publish(messageChannel(msg.ReceiverID), ev)
}

func (s *Service) publish(channel string, ev realtime.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error encoding realtime event: %v", err)
		return
	}
	if err := s.Redis.Publish(s.Ctx, channel, string(payload)).Err(); err != nil {
		log.Printf("Error publishing to %s: %v", channel, err)
	}
}

func userChannel(id string) string    { return "realtime:users:" + id }
func messageChannel(id string) string { return "realtime:messages:" + id }

// addToSearchQueue додає користувача до черги пошуку в Redis
func (s *Service) addToSearchQueue(userID string) error {
	return s.Redis.SAdd(s.Ctx, searchQueueKey, userID).Err()
}

// removeFromSearchQueue видаляє користувача з черги пошуку в Redis
func (s *Service) removeFromSearchQueue(userID string) error {
	return s.Redis.SRem(s.Ctx, searchQueueKey, userID).Err()
}

// searchingUsers повертає всіх користувачів, які зараз шукають пару
func (s *Service) searchingUsers() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, searchQueueKey).Result()
}
