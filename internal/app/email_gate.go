package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"bondrizz-funnel/internal/domain"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the address shape locally; it never touches the network.
func ValidateEmail(email string) error {
	if email == "" || !emailPattern.MatchString(email) {
		return domain.ErrInvalidEmail
	}
	return nil
}

// EmailGate binds an email address to the session's result before results unlock.
type EmailGate struct {
	store   SessionStore
	backend Backend
	logger  *zap.Logger
}

func NewEmailGate(store SessionStore, backend Backend, logger *zap.Logger) *EmailGate {
	return &EmailGate{store: store, backend: backend, logger: logger}
}

// Capture validates the email, sends it with the stored result id and, on
// success, remembers the email and returns the result id to navigate to.
// A backend failure leaves all state untouched so the user can resubmit.
func (g *EmailGate) Capture(ctx context.Context, sessionID, email string) (string, error) {
	if err := ValidateEmail(email); err != nil {
		return "", err
	}

	resultID, err := g.store.Get(ctx, sessionID, KeyResultID)
	if errors.Is(err, domain.ErrKeyNotFound) || (err == nil && resultID == "") {
		return "", domain.ErrMissingResult
	}
	if err != nil {
		return "", fmt.Errorf("read result id: %w", err)
	}

	if err := g.backend.CaptureEmail(ctx, email, resultID); err != nil {
		g.logger.Error("email capture failed",
			zap.String("session", sessionID),
			zap.String("result", resultID),
			zap.Error(err))
		return "", asNetworkFailure(err)
	}

	if err := g.store.Set(ctx, sessionID, KeyEmail, email); err != nil {
		return "", fmt.Errorf("store email: %w", err)
	}
	g.logger.Info("email captured", zap.String("session", sessionID), zap.String("result", resultID))
	return resultID, nil
}
