package app

import (
	"context"
	"errors"
	"testing"

	"bondrizz-funnel/internal/domain"
	"go.uber.org/zap/zaptest"
)

func TestValidateEmail(t *testing.T) {
	for _, bad := range []string{"a", "a@b", "", "a @b.com", "user@@example.com"} {
		if err := ValidateEmail(bad); !errors.Is(err, domain.ErrInvalidEmail) {
			t.Fatalf("expected %q to be invalid, got %v", bad, err)
		}
	}
	for _, good := range []string{"user@example.com", "first.last+tag@mail.example.co.in"} {
		if err := ValidateEmail(good); err != nil {
			t.Fatalf("expected %q to be valid, got %v", good, err)
		}
	}
}

func TestCaptureRejectsInvalidEmailWithoutNetwork(t *testing.T) {
	store := newMapStore()
	backend := newFakeBackend()
	_ = store.Set(context.Background(), "s1", KeyResultID, "result-1")
	gate := NewEmailGate(store, backend, zaptest.NewLogger(t))

	if _, err := gate.Capture(context.Background(), "s1", "a@b"); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if len(backend.captured) != 0 {
		t.Fatalf("expected no capture call")
	}
}

func TestCaptureRequiresResult(t *testing.T) {
	gate := NewEmailGate(newMapStore(), newFakeBackend(), zaptest.NewLogger(t))

	_, err := gate.Capture(context.Background(), "s1", "user@example.com")
	if !errors.Is(err, domain.ErrMissingResult) {
		t.Fatalf("expected missing result, got %v", err)
	}
	if route, ok := RedirectFor(err); !ok || route != domain.RouteStart {
		t.Fatalf("expected redirect to start, got %q %v", route, ok)
	}
}

func TestCaptureFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	backend := newFakeBackend()
	backend.captureErr = errors.New("503 from backend")
	_ = store.Set(ctx, "s1", KeyResultID, "result-1")
	gate := NewEmailGate(store, backend, zaptest.NewLogger(t))

	_, err := gate.Capture(ctx, "s1", "user@example.com")
	if !errors.Is(err, domain.ErrNetworkFailure) || !Retryable(err) {
		t.Fatalf("expected retryable network failure, got %v", err)
	}
	if store.has("s1", KeyEmail) {
		t.Fatalf("expected email not stored after failure")
	}

	backend.captureErr = nil
	resultID, err := gate.Capture(ctx, "s1", "user@example.com")
	if err != nil {
		t.Fatalf("retry capture: %v", err)
	}
	if resultID != "result-1" {
		t.Fatalf("expected result-1, got %s", resultID)
	}
	if email, _ := store.Get(ctx, "s1", KeyEmail); email != "user@example.com" {
		t.Fatalf("expected stored email, got %q", email)
	}
	if len(backend.captured) != 1 || backend.captured[0] != "user@example.com|result-1" {
		t.Fatalf("unexpected captures %v", backend.captured)
	}
}
