package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bondrizz-funnel/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FunnelOptions tunes the stages behind the flow.
type FunnelOptions struct {
	Loading    LoadingConfig
	Plans      []domain.Plan
	AddOnPrice int
	Logger     *zap.Logger
}

// FunnelService contains the funnel use cases: quiz flow, loading, email
// gate and results.
type FunnelService struct {
	sessions SessionRepository
	catalogs CatalogRepository
	store    SessionStore
	loading  *LoadingOrchestrator
	gate     *EmailGate
	results  *ResultsPresenter
	logger   *zap.Logger
	newID    func() string
}

func NewFunnelService(sessions SessionRepository, catalogs CatalogRepository, store SessionStore, backend Backend, opts FunnelOptions) *FunnelService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	addOn := opts.AddOnPrice
	if addOn == 0 {
		addOn = AddOnPrice
	}
	return &FunnelService{
		sessions: sessions,
		catalogs: catalogs,
		store:    store,
		loading:  NewLoadingOrchestrator(store, backend, opts.Loading, logger),
		gate:     NewEmailGate(store, backend, logger),
		results:  NewResultsPresenter(store, backend, opts.Plans, addOn, logger),
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Start opens a new session on the given catalog and starts its flow.
func (s *FunnelService) Start(ctx context.Context, catalogID string) (string, FlowView, error) {
	catalog, err := s.catalogs.GetCatalog(ctx, catalogID)
	if err != nil {
		return "", FlowView{}, err
	}

	id := s.newID()
	session := NewSession(id, catalog.ID)
	if err := session.reset(s.newFlow(id, catalog)); err != nil {
		return "", FlowView{}, err
	}
	s.sessions.Put(session)

	s.logger.Info("session started", zap.String("session", id), zap.String("catalog", catalog.ID))
	return id, session.view(), nil
}

// Restart discards the session's stored state and begins a fresh flow under
// the same session id.
func (s *FunnelService) Restart(ctx context.Context, sessionID string) (FlowView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return FlowView{}, domain.ErrSessionNotFound
	}
	catalog, err := s.catalogs.GetCatalog(ctx, session.catalogID)
	if err != nil {
		return FlowView{}, err
	}
	if err := s.store.Drop(ctx, sessionID); err != nil {
		return FlowView{}, fmt.Errorf("drop session state: %w", err)
	}
	if err := session.reset(s.newFlow(sessionID, catalog)); err != nil {
		return FlowView{}, err
	}
	s.logger.Info("session restarted", zap.String("session", sessionID))
	return session.view(), nil
}

// Answer submits a value for the current question.
func (s *FunnelService) Answer(ctx context.Context, sessionID string, value any) (FlowView, error) {
	return s.withFlow(sessionID, func(f *Flow) error {
		return f.Submit(ctx, value)
	})
}

// Dismiss closes the displayed interstitial.
func (s *FunnelService) Dismiss(ctx context.Context, sessionID string) (FlowView, error) {
	return s.withFlow(sessionID, func(f *Flow) error {
		return f.Dismiss(ctx)
	})
}

// Back returns to the previous question.
func (s *FunnelService) Back(_ context.Context, sessionID string) (FlowView, error) {
	return s.withFlow(sessionID, func(f *Flow) error {
		return f.Back()
	})
}

// View snapshots the session's flow.
func (s *FunnelService) View(sessionID string) (FlowView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return FlowView{}, domain.ErrSessionNotFound
	}
	return session.view(), nil
}

// BeginLoading starts the submission and the loading choreography.
func (s *FunnelService) BeginLoading(ctx context.Context, sessionID string) (*LoadingRun, error) {
	return s.loading.Begin(ctx, sessionID)
}

// CaptureEmail runs the email gate and returns the result id to show.
func (s *FunnelService) CaptureEmail(ctx context.Context, sessionID, email string) (string, error) {
	return s.gate.Capture(ctx, sessionID, email)
}

// LoadResults fetches the result and the offers for the results page.
func (s *FunnelService) LoadResults(ctx context.Context, sessionID, resultID string) (ResultsView, error) {
	return s.results.Load(ctx, sessionID, resultID)
}

// Checkout runs the simulated purchase.
func (s *FunnelService) Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (Receipt, error) {
	return s.results.Checkout(ctx, sessionID, req)
}

// Plans lists the offered pricing tiers.
func (s *FunnelService) Plans() []domain.Plan {
	return s.results.Plans()
}

// Catalog exposes catalog content for read-only endpoints.
func (s *FunnelService) Catalog(ctx context.Context, catalogID string) (domain.Catalog, error) {
	return s.catalogs.GetCatalog(ctx, catalogID)
}

// End drops the live session and all of its stored state.
func (s *FunnelService) End(ctx context.Context, sessionID string) error {
	s.sessions.Delete(sessionID)
	if err := s.store.Drop(ctx, sessionID); err != nil {
		return fmt.Errorf("drop session state: %w", err)
	}
	s.logger.Debug("session ended", zap.String("session", sessionID))
	return nil
}

func (s *FunnelService) withFlow(sessionID string, fn func(*Flow) error) (FlowView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return FlowView{}, domain.ErrSessionNotFound
	}
	return session.apply(fn)
}

func (s *FunnelService) newFlow(sessionID string, catalog domain.Catalog) *Flow {
	sink := AnswerSinkFunc(func(ctx context.Context, payload []byte) error {
		return s.store.Set(ctx, sessionID, KeyAnswers, string(payload))
	})
	return NewFlow(catalog, sink)
}

// RedirectFor reports whether err sends the user back to the start of the funnel.
func RedirectFor(err error) (domain.Route, bool) {
	switch {
	case errors.Is(err, domain.ErrMissingAnswers),
		errors.Is(err, domain.ErrMissingResult),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return domain.RouteStart, true
	}
	return "", false
}

// Retryable reports whether the user may resubmit after err without losing state.
func Retryable(err error) bool {
	return errors.Is(err, domain.ErrNetworkFailure) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidAnswer)
}

// Session is one visitor's live funnel state.
type Session struct {
	id        string
	catalogID string
	createdAt time.Time
	mu        sync.Mutex
	flow      *Flow
}

// NewSession opens an empty session; its flow starts on the first reset.
func NewSession(id, catalogID string) *Session {
	return &Session{id: id, catalogID: catalogID, createdAt: time.Now()}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt reports when the session was opened.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) reset(flow *Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := flow.Start(); err != nil {
		return err
	}
	s.flow = flow
	return nil
}

func (s *Session) apply(fn func(*Flow) error) (FlowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return FlowView{}, domain.ErrFlowNotActive
	}
	err := fn(s.flow)
	return s.flow.View(), err
}

func (s *Session) view() FlowView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow == nil {
		return FlowView{State: FlowNotStarted}
	}
	return s.flow.View()
}
