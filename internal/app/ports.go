package app

import (
	"context"

	"bondrizz-funnel/internal/domain"
)

// Session-scoped keys shared by the funnel stages.
const (
	KeyAnswers  = "quizAnswers"
	KeyResultID = "quizResultId"
	KeyEmail    = "userEmail"

	// KeyLoadingRun holds the token of the session's current loading run.
	KeyLoadingRun = "loadingRun"
)

// SessionStore is the session-scoped key-value state handed between stages
// (answers, result id, email). Get returns domain.ErrKeyNotFound for absent keys.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Clear(ctx context.Context, sessionID, key string) error
	// Drop removes every key of a session.
	Drop(ctx context.Context, sessionID string) error
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-aware, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// Backend is the external scoring, email and order collaborator.
type Backend interface {
	SubmitQuiz(ctx context.Context, answers []domain.Answer) (domain.Result, error)
	FetchResult(ctx context.Context, resultID string) (domain.Result, error)
	CaptureEmail(ctx context.Context, email, resultID string) error
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
	CompleteOrder(ctx context.Context, orderID string) error
}
