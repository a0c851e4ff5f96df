package storage

import (
	"errors"
	"log"
	"time"

	"blinddate/backend/internal/config"
	"blinddate/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindMatch відповідає за алгоритм пошуку співрозмовників.
//
// The procedure is called repeatedly by the client's pairing loop. It pairs
// the caller with a mutually compatible user from the search queue,
// preferring candidates that share an interest tag. When nobody compatible
// shows up within the fallback window, the caller is paired with one of the
// seeded bot personas so the experience never dead-ends.
func (s *Service) FindMatch(userID string) (*models.MatchResult, error) {
	result := &models.MatchResult{}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		// Хтось інший міг уже створити пару через push-канал.
		if user.Status == models.StatusMatched && user.PartnerID != nil {
			result.Success = true
			result.MatchedUserID = *user.PartnerID
			return nil
		}
		if user.Status != models.StatusMatching {
			return nil
		}

		candidate, err := s.pickCandidate(tx, &user)
		if err != nil {
			return err
		}

		if candidate == nil {
			// Fallback: після очікування підставляємо бота, щоб користувач
			// не завис у пошуку назавжди.
			if user.MatchingSince == nil || time.Since(*user.MatchingSince) < config.BotFallbackWait {
				return nil
			}
			candidate, err = s.pickBot(tx)
			if err != nil || candidate == nil {
				return err
			}
		}

		if err := s.pair(tx, &user, candidate); err != nil {
			return err
		}

		result.Success = true
		result.MatchedUserID = candidate.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		log.Printf("Match found: %s and %s", userID, result.MatchedUserID)
	}
	return result, nil
}

// pickCandidate шукає сумісного користувача серед тих, хто зараз у черзі.
func (s *Service) pickCandidate(tx *gorm.DB, user *models.User) (*models.User, error) {
	queued, err := s.searchingUsers()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(queued))
	for _, id := range queued {
		if id != user.ID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var candidates []models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("id IN ?", ids).
		Where("status = ?", models.StatusMatching).
		Where("is_bot = ?", false).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	var fallback *models.User
	for i := range candidates {
		c := &candidates[i]
		if !GenderCompatible(user, c) {
			continue
		}
		if SharedInterest(user, c) {
			return c, nil
		}
		if fallback == nil {
			fallback = c
		}
	}
	return fallback, nil
}

// pickBot вибирає випадкову бот-персону. Боти ніколи не переходять у
// статус matched, тому один запис може обслуговувати кількох користувачів.
func (s *Service) pickBot(tx *gorm.DB) (*models.User, error) {
	var bot models.User
	err := tx.Where("is_bot = ?", true).Order("random()").First(&bot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// pair оновлює обидва записи та повідомляє підписників. Запис бота не
// змінюється.
func (s *Service) pair(tx *gorm.DB, user, candidate *models.User) error {
	pairUp := func(u *models.User, partnerID string) error {
		u.Status = models.StatusMatched
		u.PartnerID = &partnerID
		u.MatchingSince = nil
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		if err := s.removeFromSearchQueue(u.ID); err != nil {
			log.Printf("ERROR: Failed to dequeue user %s: %v", u.ID, err)
		}
		s.publishUser(u)
		return nil
	}

	if err := pairUp(user, candidate.ID); err != nil {
		return err
	}
	if candidate.IsBot {
		return nil
	}
	return pairUp(candidate, user.ID)
}

// GenderCompatible reports whether both users fit each other's target
// preference. "everyone" accepts any gender; a specific target must equal
// the other side's gender. The check runs both ways.
func GenderCompatible(a, b *models.User) bool {
	return wants(a, b) && wants(b, a)
}

func wants(u, other *models.User) bool {
	return u.TargetGender == models.TargetEveryone || u.TargetGender == other.Gender
}

// SharedInterest reports whether the two users have at least one interest
// tag in common.
func SharedInterest(a, b *models.User) bool {
	for _, ia := range a.Interests {
		for _, ib := range b.Interests {
			if ia == ib {
				return true
			}
		}
	}
	return false
}
