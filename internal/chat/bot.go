package chat

import (
	"log"
	"time"

	"blinddate/backend/internal/models"

	"github.com/google/uuid"
)

// Bot co-routine: when the partner is a seeded persona there is no second
// human client, so the controller synthesizes its replies locally. A reply
// is scheduled only while the newest history entry is authored by the local
// user, which keeps it to exactly one per qualifying message.

// maybeScheduleBotReply arms the reply timer after a locally-authored
// message. Re-arming replaces any pending timer.
func (c *Controller) maybeScheduleBotReply() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.partner == nil || !c.partner.IsBot || c.partnerLeft {
		return
	}
	last := c.lastLocked()
	if last == nil || last.SenderID != c.selfID {
		return
	}

	if c.botTimer != nil {
		c.botTimer.Stop()
	}
	spread := int64(c.BotReplyDelayMax - c.BotReplyDelayMin)
	delay := c.BotReplyDelayMin
	if spread > 0 {
		delay += time.Duration(c.rng.Int63n(spread + 1))
	}
	c.botTimer = time.AfterFunc(delay, c.botReply)
}

// botReply synthesizes one persona turn: auto-accept a reveal request, say
// goodbye once the stamina threshold is spent, otherwise delegate to the
// reply engine with the last user message as context.
func (c *Controller) botReply() {
	c.mu.Lock()
	if c.ctx == nil || c.ctx.Err() != nil || c.partnerLeft {
		c.mu.Unlock()
		return
	}
	last := c.lastLocked()
	if last == nil || last.SenderID != c.selfID {
		c.mu.Unlock()
		return
	}

	botCount := 0
	for i := range c.messages {
		if c.messages[i].SenderID == c.partnerID && !c.messages[i].IsSystem {
			botCount++
		}
	}

	var content string
	var isSystem, disconnect bool
	switch {
	case last.IsReveal():
		content = models.RevealSentinel
		isSystem = true
	case botCount >= c.Stamina:
		content = c.engine.Goodbye()
		disconnect = true
	default:
		content = c.engine.Reply(last.Content)
	}
	partnerID, selfID := c.partnerID, c.selfID
	c.mu.Unlock()

	msg := &models.Message{
		SenderID:   partnerID,
		ReceiverID: selfID,
		Content:    content,
		IsSystem:   isSystem,
	}
	if err := c.platform.InsertMessage(msg); err != nil {
		log.Printf("chat: bot reply insert failed: %v", err)
		return
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	// Append now and let the id dedupe the subscription echo.
	c.handleIncoming(msg)

	if disconnect {
		c.mu.Lock()
		c.lingerTimer = time.AfterFunc(c.GoodbyeLinger, c.markPartnerLeft)
		c.mu.Unlock()
	}
}
