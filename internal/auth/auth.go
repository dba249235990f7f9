// Package auth implements the wallet sign-in boundary: a single-slot
// challenge per wallet, ed25519 signature verification against the wallet's
// public key, and the bearer sessions the ledger API requires.
package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/Solstice-Labs/HolderPerks/internal/models"
)

const (
	ChallengeTTL = 5 * time.Minute
	SessionTTL   = 7 * 24 * time.Hour
)

var (
	ErrInvalidWallet     = errors.New("INVALID_WALLET")
	ErrInvalidSignature  = errors.New("INVALID_SIGNATURE")
	ErrChallengeExpired  = errors.New("CHALLENGE_EXPIRED")
	ErrSessionExpired    = errors.New("SESSION_EXPIRED")
	ErrUnauthenticated   = errors.New("UNAUTHENTICATED")
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ChallengeMessage is the exact text the wallet signs.
func ChallengeMessage(wallet, nonce string) string {
	return fmt.Sprintf("HolderPerks sign-in\nwallet: %s\nnonce: %s", wallet, nonce)
}

// IssueChallenge stores a fresh challenge in the wallet's slot, replacing
// any outstanding one, and returns the message to sign.
func (s *Service) IssueChallenge(ctx context.Context, wallet string) (string, time.Time, error) {
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return "", time.Time{}, ErrInvalidWallet
	}

	nonce, err := randomHex(32)
	if err != nil {
		return "", time.Time{}, err
	}

	expires := s.now().Add(ChallengeTTL)
	ch := &models.Challenge{
		Wallet:    wallet,
		Nonce:     nonce,
		ExpiresAt: expires,
		CreatedAt: s.now(),
	}
	if err := s.store.PutChallenge(ctx, ch); err != nil {
		return "", time.Time{}, err
	}
	return ChallengeMessage(wallet, nonce), expires, nil
}

// VerifyAndLogin consumes the wallet's challenge and, if the signature over
// the challenge message checks out, mints a session. The challenge is
// deleted before any judgment, so a failed attempt burns it too.
func (s *Service) VerifyAndLogin(ctx context.Context, wallet, signature string) (*models.Session, error) {
	ch, err := s.store.TakeChallenge(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if s.now().After(ch.ExpiresAt) {
		return nil, ErrChallengeExpired
	}

	pub, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, ErrInvalidWallet
	}
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	msg := []byte(ChallengeMessage(wallet, ch.Nonce))
	if !ed25519.Verify(ed25519.PublicKey(pub.Bytes()), msg, sig[:]) {
		return nil, ErrInvalidSignature
	}

	token, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	sess := &models.Session{
		Token:     token,
		Wallet:    wallet,
		ExpiresAt: s.now().Add(SessionTTL),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// WalletForToken resolves a bearer token to its wallet.
func (s *Service) WalletForToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	sess, err := s.store.GetSession(ctx, token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	if s.now().After(sess.ExpiresAt) {
		return "", ErrSessionExpired
	}
	return sess.Wallet, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
