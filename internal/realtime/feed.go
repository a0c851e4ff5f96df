// Package realtime carries row-level insert/update events from the platform
// to subscribed clients. Transports (Redis pub/sub, the websocket gateway)
// feed events into a Subscription; consumers range over Events until they
// unsubscribe or the transport closes the feed.
package realtime

import (
	"encoding/json"
	"sync"

	"blinddate/backend/internal/models"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
)

// Table names used in events.
const (
	TableUsers    = "users"
	TableMessages = "messages"
)

// Event is one row-level change notification.
type Event struct {
	Type  EventType       `json:"type"`
	Table string          `json:"table"`
	Row   json.RawMessage `json:"row"`
}

// User decodes the event row as a users-table record.
func (e Event) User() (*models.User, error) {
	var u models.User
	if err := json.Unmarshal(e.Row, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Message decodes the event row as a messages-table record.
func (e Event) Message() (*models.Message, error) {
	var m models.Message
	if err := json.Unmarshal(e.Row, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// NewUserEvent builds an event carrying a users-table row.
func NewUserEvent(t EventType, u *models.User) (Event, error) {
	row, err := json.Marshal(u)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Table: TableUsers, Row: row}, nil
}

// NewMessageEvent builds an event carrying a messages-table row.
func NewMessageEvent(t EventType, m *models.Message) (Event, error) {
	row, err := json.Marshal(m)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Table: TableMessages, Row: row}, nil
}

// Subscription is one open row-event feed. Unsubscribe stops delivery,
// tears down the transport and closes the Events channel, so consumers
// can simply range over it.
type Subscription struct {
	mu     sync.Mutex
	events chan Event
	closed bool
	stop   func()
}

// NewSubscription creates a subscription with the given delivery buffer.
// stop, if non-nil, is invoked once when the subscription is torn down.
func NewSubscription(buffer int, stop func()) *Subscription {
	return &Subscription{
		events: make(chan Event, buffer),
		stop:   stop,
	}
}

// Events returns the delivery channel. It is closed by Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Emit delivers an event to the consumer. Called by the transport goroutine.
// Delivery to a full buffer drops the event rather than blocking the
// transport; the poll channel and history refetch cover the gap.
func (s *Subscription) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

// Unsubscribe stops delivery and closes the Events channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	stop := s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}
