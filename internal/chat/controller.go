// Package chat manages one active pairing: message history, outgoing
// sends, the reveal-consent handshake and partner-disconnect detection.
// When the partner is a bot persona the controller also drives the
// scripted replies locally (see bot.go).
package chat

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"blinddate/backend/internal/botreply"
	"blinddate/backend/internal/config"
	"blinddate/backend/internal/models"
	"blinddate/backend/internal/realtime"
	"blinddate/backend/internal/session"
	"blinddate/backend/internal/storage"

	"github.com/google/uuid"
)

// State of the chat session.
type State string

const (
	StateLoading  State = "loading"
	StateActive   State = "active"
	StateRevealed State = "revealed" // mutual reveal complete, contact info surfaced
)

type EventKind string

const (
	EventPartnerLoaded EventKind = "partner_loaded"
	EventMessage       EventKind = "message"
	EventRevealed      EventKind = "revealed"
	EventPartnerLeft   EventKind = "partner_left"
	EventSendFailed    EventKind = "send_failed"
)

// Event is a UI notification from the controller.
type Event struct {
	Kind    EventKind
	Message *models.Message // set for EventMessage and EventSendFailed
	Err     error           // set for EventSendFailed
}

var ErrNoPairing = errors.New("chat: session is not paired")

// Controller is the state machine for one pairing. Construct with
// NewController, then Start; interact via Send/Reveal/Leave and consume
// Events. All state is guarded by one mutex; subscriptions and timers are
// owned by the Start context and torn down on Stop.
type Controller struct {
	platform storage.Platform
	store    *session.Store
	engine   *botreply.Engine

	// Bot persona knobs, defaulted from config. Tests shorten them.
	BotReplyDelayMin time.Duration
	BotReplyDelayMax time.Duration
	GoodbyeLinger    time.Duration
	// Stamina is the number of non-system bot replies before the persona
	// says goodbye. Drawn once per session.
	Stamina int

	mu          sync.Mutex
	state       State
	partnerLeft bool
	selfID      string
	partnerID   string
	partner     *models.User
	messages    []models.Message
	seen        map[string]bool
	hasRevealed bool

	rng         *rand.Rand
	botTimer    *time.Timer
	lingerTimer *time.Timer
	ctx         context.Context
	cancel      context.CancelFunc
	subs        []*realtime.Subscription
	events      chan Event
}

func NewController(p storage.Platform, st *session.Store, eng *botreply.Engine) *Controller {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Controller{
		platform:         p,
		store:            st,
		engine:           eng,
		BotReplyDelayMin: config.BotReplyDelayMin,
		BotReplyDelayMax: config.BotReplyDelayMax,
		GoodbyeLinger:    config.BotGoodbyeLinger,
		Stamina:          config.BotStaminaMin + rng.Intn(config.BotStaminaMax-config.BotStaminaMin+1),
		state:            StateLoading,
		seen:             make(map[string]bool),
		rng:              rng,
		events:           make(chan Event, 32),
	}
}

// Events returns the UI notification channel. Delivery is best-effort: a
// full buffer drops the event, the accessors always have the full state.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Start fetches the partner profile and history, opens the push
// subscriptions and moves the session to active (or straight to revealed
// when a mutual reveal is already in the history).
func (c *Controller) Start(ctx context.Context) error {
	snap := c.store.Snapshot()
	if snap.ID == "" || snap.PartnerID == "" {
		return ErrNoPairing
	}

	partner, err := c.platform.GetUserByID(snap.PartnerID)
	if err != nil {
		return err
	}
	history, err := c.platform.MessagesBetween(snap.ID, snap.PartnerID)
	if err != nil {
		return err
	}

	msgSub, err := c.platform.SubscribeMessages(snap.ID)
	if err != nil {
		return err
	}
	userSub, err := c.platform.SubscribeUser(snap.PartnerID)
	if err != nil {
		msgSub.Unsubscribe()
		return err
	}

	c.mu.Lock()
	c.selfID = snap.ID
	c.partnerID = snap.PartnerID
	c.partner = partner
	c.messages = history
	for _, m := range history {
		c.seen[m.ID] = true
		if m.IsReveal() && m.SenderID == c.selfID {
			c.hasRevealed = true
		}
	}
	c.sortLocked()
	c.state = StateActive
	c.updateRevealLocked()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.subs = []*realtime.Subscription{msgSub, userSub}
	c.mu.Unlock()

	go c.consumeMessages(msgSub)
	go c.consumePartner(userSub)

	// Історія могла закінчитися нашим повідомленням (перезапуск клієнта).
	c.maybeScheduleBotReply()

	c.emit(Event{Kind: EventPartnerLoaded})
	return nil
}

// Stop tears down subscriptions and timers. Safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	subs := c.subs
	c.subs = nil
	if c.botTimer != nil {
		c.botTimer.Stop()
	}
	if c.lingerTimer != nil {
		c.lingerTimer.Stop()
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PartnerLeft reports whether the partner has disconnected. Terminal for
// this session: composer and reveal are disabled, history stays visible.
func (c *Controller) PartnerLeft() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partnerLeft
}

// Partner returns a copy of the partner profile, or nil before Start.
func (c *Controller) Partner() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.partner == nil {
		return nil
	}
	p := *c.partner
	return &p
}

// Messages returns a copy of the history, ordered by timestamp ascending.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// HasRevealed reports whether the local user already sent a reveal request.
func (c *Controller) HasRevealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasRevealed
}

// Send submits a chat message. Empty input, a missing pairing or a departed
// partner make it a silent no-op. The message is appended locally with a
// temporary id right away; the remote insert runs in the background and the
// local copy is reconciled with the authoritative row, or discarded with an
// EventSendFailed when the insert is rejected.
func (c *Controller) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.partnerLeft || c.partnerID == "" {
		c.mu.Unlock()
		return nil
	}
	msg := models.Message{
		ID:         localID(),
		SenderID:   c.selfID,
		ReceiverID: c.partnerID,
		Content:    text,
		CreatedAt:  time.Now(),
	}
	c.appendLocked(msg)
	c.mu.Unlock()

	c.emit(Event{Kind: EventMessage, Message: &msg})
	go c.persist(msg)
	c.maybeScheduleBotReply()
	return nil
}

// Reveal sends the reveal-consent sentinel. Idempotent per user; a no-op
// after the partner left.
func (c *Controller) Reveal() error {
	c.mu.Lock()
	if c.hasRevealed || c.partnerLeft || c.partnerID == "" {
		c.mu.Unlock()
		return nil
	}
	c.hasRevealed = true
	msg := models.Message{
		ID:         localID(),
		SenderID:   c.selfID,
		ReceiverID: c.partnerID,
		Content:    models.RevealSentinel,
		IsSystem:   true,
		CreatedAt:  time.Now(),
	}
	c.appendLocked(msg)
	revealedNow := c.updateRevealLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventMessage, Message: &msg})
	if revealedNow {
		c.emit(Event{Kind: EventRevealed})
	}
	go c.persist(msg)
	c.maybeScheduleBotReply()
	return nil
}

// Leave resets the user's own platform status to unpaired, clears the local
// match state and tears the session down. The local reset happens even when
// the remote update fails, so the user is never stuck in a dead pairing.
func (c *Controller) Leave() error {
	c.mu.Lock()
	selfID := c.selfID
	c.mu.Unlock()

	var err error
	if selfID != "" {
		if err = c.platform.UpdateUserStatus(selfID, models.StatusOnline, nil); err != nil {
			log.Printf("chat: failed to reset status on leave: %v", err)
		}
	}
	c.Stop()
	c.store.ClearMatch()
	return err
}

// persist runs the remote insert for an optimistically appended message.
func (c *Controller) persist(local models.Message) {
	remote := local
	remote.ID = ""
	remote.CreatedAt = time.Time{}

	err := c.platform.InsertMessage(&remote)

	c.mu.Lock()
	if c.ctx != nil && c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.removeLocked(local.ID)
		if local.IsReveal() {
			// Let the user retry the handshake.
			c.hasRevealed = false
		}
		c.mu.Unlock()
		c.emit(Event{Kind: EventSendFailed, Message: &local, Err: err})
		return
	}
	if remote.ID == "" {
		remote.ID = uuid.New().String()
	}
	if remote.CreatedAt.IsZero() {
		remote.CreatedAt = local.CreatedAt
	}
	for i := range c.messages {
		if c.messages[i].ID == local.ID {
			c.messages[i].ID = remote.ID
			c.messages[i].CreatedAt = remote.CreatedAt
			break
		}
	}
	c.seen[remote.ID] = true
	c.sortLocked()
	c.mu.Unlock()
}

func (c *Controller) consumeMessages(sub *realtime.Subscription) {
	for ev := range sub.Events() {
		if c.ctx.Err() != nil {
			return
		}
		msg, err := ev.Message()
		if err != nil {
			log.Printf("chat: bad message payload: %v", err)
			continue
		}
		c.handleIncoming(msg)
	}
}

func (c *Controller) consumePartner(sub *realtime.Subscription) {
	for ev := range sub.Events() {
		if c.ctx.Err() != nil {
			return
		}
		user, err := ev.User()
		if err != nil {
			log.Printf("chat: bad partner payload: %v", err)
			continue
		}
		c.mu.Lock()
		selfID := c.selfID
		c.mu.Unlock()
		if !user.PairedWith(selfID) {
			c.markPartnerLeft()
			return
		}
	}
}

// handleIncoming appends a partner-authored row. Rows already appended
// (optimistic copies, local bot inserts) are deduplicated by id.
func (c *Controller) handleIncoming(msg *models.Message) {
	c.mu.Lock()
	if msg.SenderID != c.partnerID || c.seen[msg.ID] {
		c.mu.Unlock()
		return
	}
	c.seen[msg.ID] = true
	c.appendLocked(*msg)
	revealedNow := c.updateRevealLocked()
	c.mu.Unlock()

	c.emit(Event{Kind: EventMessage, Message: msg})
	if revealedNow {
		c.emit(Event{Kind: EventRevealed})
	}
}

func (c *Controller) markPartnerLeft() {
	c.mu.Lock()
	if c.partnerLeft {
		c.mu.Unlock()
		return
	}
	c.partnerLeft = true
	if c.botTimer != nil {
		c.botTimer.Stop()
	}
	c.mu.Unlock()
	c.emit(Event{Kind: EventPartnerLeft})
}

// updateRevealLocked recomputes the mutual-reveal state from history and
// reports whether the session just transitioned to revealed. There is no
// un-reveal. Callers hold c.mu.
func (c *Controller) updateRevealLocked() bool {
	if c.state == StateRevealed {
		return false
	}
	var me, partner bool
	for i := range c.messages {
		m := &c.messages[i]
		if !m.IsReveal() {
			continue
		}
		switch m.SenderID {
		case c.selfID:
			me = true
		case c.partnerID:
			partner = true
		}
	}
	if me && partner {
		c.state = StateRevealed
		return true
	}
	return false
}

func (c *Controller) appendLocked(m models.Message) {
	c.messages = append(c.messages, m)
	c.sortLocked()
}

func (c *Controller) removeLocked(id string) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

func (c *Controller) sortLocked() {
	sort.SliceStable(c.messages, func(i, j int) bool {
		return c.messages[i].CreatedAt.Before(c.messages[j].CreatedAt)
	})
}

func (c *Controller) lastLocked() *models.Message {
	if len(c.messages) == 0 {
		return nil
	}
	return &c.messages[len(c.messages)-1]
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

func localID() string {
	return "local-" + uuid.New().String()
}
