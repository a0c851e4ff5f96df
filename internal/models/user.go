package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Gender and target-gender values accepted at registration.
const (
	GenderMale      = "male"
	GenderFemale    = "female"
	GenderNonBinary = "non-binary"
	TargetEveryone  = "everyone"
)

// User status values as stored on the platform.
const (
	StatusOnline   = "online"   // registered, not looking
	StatusMatching = "matching" // waiting in the search queue
	StatusMatched  = "matched"  // paired, PartnerID is set
)

const (
	MinAge = 18
	MaxAge = 100
)

// Validation errors surfaced inline at registration.
var (
	ErrNameRequired      = errors.New("please enter your name")
	ErrInstagramRequired = errors.New("please enter your Instagram ID")
	ErrAgeTooLow         = errors.New("you must be 18+ to use this app")
	ErrAgeInvalid        = errors.New("please enter a valid age")
	ErrGenderInvalid     = errors.New("please pick a valid gender")
	ErrTargetInvalid     = errors.New("please pick who you are interested in")
)

// User представляє учасника в системі: профіль, статус пошуку та посилання
// на партнера. Боти — це звичайні записи з IsBot = true.
type User struct {
	ID           string         `gorm:"primaryKey" json:"id"` // Анонімний UUID
	Name         string         `gorm:"not null" json:"name"`
	Age          int            `json:"age"`
	Gender       string         `json:"gender"`
	TargetGender string         `json:"target_gender"`
	InstagramID  string         `json:"instagram_id"`
	Interests    pq.StringArray `gorm:"type:text[]" json:"interests,omitempty"` // Теги для добору пари

	Status        string     `gorm:"index" json:"status"`
	PartnerID     *string    `json:"partner_id"`
	IsBot         bool       `json:"is_bot"`
	MatchingSince *time.Time `json:"-"` // Коли користувач став у чергу пошуку

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate — це хук GORM, який викликається перед створенням запису.
// Він генерує новий UUID для користувача, якщо ID ще не встановлено.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// ValidateProfile checks the registration fields. Returns the first
// violation so it can be shown inline next to the form.
func (u *User) ValidateProfile() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrNameRequired
	}
	if u.Age < MinAge {
		return ErrAgeTooLow
	}
	if u.Age > MaxAge {
		return ErrAgeInvalid
	}
	switch u.Gender {
	case GenderMale, GenderFemale, GenderNonBinary:
	default:
		return ErrGenderInvalid
	}
	switch u.TargetGender {
	case GenderMale, GenderFemale, GenderNonBinary, TargetEveryone:
	default:
		return ErrTargetInvalid
	}
	if strings.TrimSpace(u.InstagramID) == "" {
		return ErrInstagramRequired
	}
	return nil
}

// PairedWith reports whether the user is currently matched with the given
// participant. Used by chat sessions to detect a partner leaving.
func (u *User) PairedWith(id string) bool {
	return u.Status == StatusMatched && u.PartnerID != nil && *u.PartnerID == id
}
