// Package pairing waits for a partner while the session is searching. Two
// channels race: a push subscription on the user's own row and a periodic
// find_match poll. The first success wins; the loser is ignored.
package pairing

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"blinddate/backend/internal/config"
	"blinddate/backend/internal/models"
	"blinddate/backend/internal/realtime"
	"blinddate/backend/internal/session"
	"blinddate/backend/internal/storage"
)

var ErrNotRegistered = errors.New("pairing: session has no identity")

// Loop drives one search for a partner. Create with NewLoop, start with
// Run; the adopted partner id is delivered on Done exactly once.
type Loop struct {
	Platform storage.Platform
	Store    *session.Store

	// Interval between find_match polls. No backoff: the poll runs until
	// paired or the context is cancelled.
	Interval time.Duration

	once    sync.Once
	done    chan string
	matched chan struct{}
}

func NewLoop(p storage.Platform, st *session.Store) *Loop {
	return &Loop{
		Platform: p,
		Store:    st,
		Interval: config.PollInterval,
		done:     make(chan string, 1),
		matched:  make(chan struct{}),
	}
}

// Done delivers the adopted partner id. The channel is buffered so adoption
// never blocks on a slow consumer.
func (l *Loop) Done() <-chan string {
	return l.done
}

// Run blocks until a partner is adopted or the context is cancelled. The
// push subscription and the poll ticker are both torn down on return.
func (l *Loop) Run(ctx context.Context) error {
	snap := l.Store.Snapshot()
	if snap.ID == "" {
		return ErrNotRegistered
	}

	sub, err := l.Platform.SubscribeUser(snap.ID)
	if err != nil {
		// Push недоступний — продовжуємо лише на опитуванні.
		log.Printf("pairing: push subscription unavailable, polling only: %v", err)
	} else {
		defer sub.Unsubscribe()
		go l.consumePush(ctx, sub)
	}

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.matched:
			return nil
		case <-ticker.C:
			res, err := l.Platform.FindMatch(snap.ID)
			if err != nil {
				log.Printf("pairing: find_match failed: %v", err)
				continue
			}
			if res != nil && res.Success {
				l.adopt(res.MatchedUserID)
				return nil
			}
		}
	}
}

// consumePush adopts a pairing reported by an update on the user's own row.
func (l *Loop) consumePush(ctx context.Context, sub *realtime.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			user, err := ev.User()
			if err != nil {
				log.Printf("pairing: bad push payload: %v", err)
				continue
			}
			if user.Status == models.StatusMatched && user.PartnerID != nil {
				l.adopt(*user.PartnerID)
				return
			}
		}
	}
}

// adopt records the pairing exactly once. The once-guard is what keeps a
// concurrent poll success and push event from producing two adoptions.
func (l *Loop) adopt(partnerID string) {
	l.once.Do(func() {
		l.Store.SetMatch(partnerID)
		l.done <- partnerID
		close(l.matched)
	})
}
