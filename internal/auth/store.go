package auth

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

var (
	ErrChallengeNotFound = errors.New("CHALLENGE_NOT_FOUND")
	ErrSessionNotFound   = errors.New("SESSION_NOT_FOUND")
)

// Store holds sign-in challenges and sessions. Each wallet has a single
// challenge slot: putting a new one replaces the old, and taking one
// removes it.
type Store interface {
	PutChallenge(ctx context.Context, ch *models.Challenge) error
	// TakeChallenge returns the wallet's outstanding challenge and deletes
	// it in the same step, so a challenge is judged at most once.
	TakeChallenge(ctx context.Context, wallet string) (*models.Challenge, error)
	CreateSession(ctx context.Context, sess *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) PutChallenge(ctx context.Context, ch *models.Challenge) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}},
		UpdateAll: true,
	}).Create(ch).Error
}

func (s *GormStore) TakeChallenge(ctx context.Context, wallet string) (*models.Challenge, error) {
	var ch models.Challenge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ch, "wallet = ?", wallet).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Challenge{}, "wallet = ?", wallet).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *GormStore) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *GormStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// MemoryStore is the in-process Store used by tests.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]models.Challenge
	sessions   map[string]models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]models.Challenge),
		sessions:   make(map[string]models.Session),
	}
}

func (s *MemoryStore) PutChallenge(_ context.Context, ch *models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.Wallet] = *ch
	return nil
}

func (s *MemoryStore) TakeChallenge(_ context.Context, wallet string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[wallet]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	delete(s.challenges, wallet)
	return &ch, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}
