// Package botreply turns the last user message into a scripted reply for a
// synthetic chat partner. Branch selection is a priority-ordered rule table
// over case-insensitive substrings; phrase pools are static data.
package botreply

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Engine picks replies from the static phrase pools. Safe for use from
// timer callbacks; all random draws go through one guarded source.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine seeded from the clock.
func NewEngine() *Engine {
	return NewEngineWithSeed(time.Now().UnixNano())
}

// NewEngineWithSeed returns an engine with a fixed seed, for deterministic
// tests.
func NewEngineWithSeed(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Reply maps the last user message to a scripted response. First matching
// rule wins; with no match it falls back to a weighted rotation of
// questions (30%), generic acknowledgments (50%) and flirty remarks (20%).
func (e *Engine) Reply(lastMessage string) string {
	lower := strings.ToLower(lastMessage)

	if containsAny(lower, "hi", "hello", "hey") {
		return e.pick(Greetings)
	}
	if containsAny(lower, "how are you", "how are u", "doing") {
		return WellBeingReply
	}
	if containsAny(lower, "name", "who are you") {
		return IdentityReply
	}
	if containsAny(lower, "fake", "bot", "real") {
		return DeflectionReply
	}
	if containsAny(lower, "reveal", "instagram") {
		return e.pick(RevealResponses)
	}

	roll := e.roll()
	switch {
	case roll < 0.3:
		return e.pick(Questions)
	case roll < 0.8:
		return e.pick(GeneralReplies)
	default:
		return e.pick(FlirtyReplies)
	}
}

// Goodbye returns a random parting phrase for the stamina cutoff.
func (e *Engine) Goodbye() string {
	return e.pick(Goodbyes)
}

func (e *Engine) pick(set []string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return set[e.rng.Intn(len(set))]
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func containsAny(s string, tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
