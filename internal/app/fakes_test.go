package app

import (
	"context"
	"fmt"
	"sync"

	"bondrizz-funnel/internal/domain"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]map[string]string)}
}

func (s *mapStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[sessionID][key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sessionID] == nil {
		s.data[sessionID] = make(map[string]string)
	}
	s.data[sessionID][key] = value
	return nil
}

func (s *mapStore) Clear(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[sessionID], key)
	return nil
}

func (s *mapStore) Drop(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *mapStore) sessionExists(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[sessionID]
	return ok
}

func (s *mapStore) has(sessionID, key string) bool {
	_, err := s.Get(context.Background(), sessionID, key)
	return err == nil
}

type fakeBackend struct {
	mu sync.Mutex

	// release, when set, blocks SubmitQuiz until it is closed.
	release     chan struct{}
	submitErr   error
	submissions [][]domain.Answer

	results map[string]domain.Result

	captureErr error
	captured   []string

	createErr   error
	completeErr error
	orders      []domain.OrderRequest
	completed   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{results: make(map[string]domain.Result)}
}

func (b *fakeBackend) SubmitQuiz(ctx context.Context, answers []domain.Answer) (domain.Result, error) {
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return domain.Result{}, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, answers)
	if b.submitErr != nil {
		return domain.Result{}, b.submitErr
	}
	id := fmt.Sprintf("result-%d", len(b.submissions))
	result := domain.Result{ID: id, Score: 58, Persona: "anxious_overthinker"}
	b.results[id] = result
	return result, nil
}

func (b *fakeBackend) FetchResult(_ context.Context, resultID string) (domain.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	result, ok := b.results[resultID]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (b *fakeBackend) CaptureEmail(_ context.Context, email, resultID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.captureErr != nil {
		return b.captureErr
	}
	b.captured = append(b.captured, email+"|"+resultID)
	return nil
}

func (b *fakeBackend) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return domain.Order{}, b.createErr
	}
	b.orders = append(b.orders, req)
	return domain.Order{
		ID:           fmt.Sprintf("order-%d", len(b.orders)),
		Email:        req.Email,
		Plan:         req.Plan,
		Amount:       req.Amount,
		HasOrderBump: req.HasOrderBump,
		Status:       "pending",
	}, nil
}

func (b *fakeBackend) CompleteOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completeErr != nil {
		return b.completeErr
	}
	b.completed = append(b.completed, orderID)
	return nil
}

func (b *fakeBackend) submissionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submissions)
}
