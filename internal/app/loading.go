package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bondrizz-funnel/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLoadingSteps are the cosmetic labels shown while results are computed.
var DefaultLoadingSteps = []string{
	"Analyzing conversation patterns",
	"Calculating confidence score",
	"Identifying strengths & weaknesses",
	"Determining your persona",
	"Generating personalized insights",
}

// LoadingConfig tunes the loading choreography.
type LoadingConfig struct {
	Steps        []string
	StepInterval time.Duration
	// Dwell is the fixed time after which the run advances to the email gate.
	Dwell time.Duration
	// SubmitTimeout bounds the backend call; zero leaves it unbounded.
	SubmitTimeout time.Duration
}

func DefaultLoadingConfig() LoadingConfig {
	return LoadingConfig{
		Steps:         DefaultLoadingSteps,
		StepInterval:  3 * time.Second,
		Dwell:         15 * time.Second,
		SubmitTimeout: 30 * time.Second,
	}
}

// LoadingOrchestrator submits the persisted answers and drives the
// fixed-duration waiting screen. Navigation is governed by the dwell timer
// only; the backend response never gates it.
type LoadingOrchestrator struct {
	store   SessionStore
	backend Backend
	cfg     LoadingConfig
	logger  *zap.Logger
}

func NewLoadingOrchestrator(store SessionStore, backend Backend, cfg LoadingConfig, logger *zap.Logger) *LoadingOrchestrator {
	defaults := DefaultLoadingConfig()
	if len(cfg.Steps) == 0 {
		cfg.Steps = defaults.Steps
	}
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = defaults.StepInterval
	}
	if cfg.Dwell <= 0 {
		cfg.Dwell = defaults.Dwell
	}
	return &LoadingOrchestrator{store: store, backend: backend, cfg: cfg, logger: logger}
}

// Begin reads the session's answer set, fires the submission in the
// background and starts the step ticker and the forced-advance timer.
func (o *LoadingOrchestrator) Begin(ctx context.Context, sessionID string) (*LoadingRun, error) {
	answers, err := o.readAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	if err := o.store.Set(ctx, sessionID, KeyLoadingRun, token); err != nil {
		return nil, fmt.Errorf("store loading run: %w", err)
	}

	run := &LoadingRun{
		labels:    o.cfg.Steps,
		steps:     make(chan int, len(o.cfg.Steps)),
		advanced:  make(chan struct{}),
		submitted: make(chan struct{}),
		stop:      make(chan struct{}),
	}

	// In-flight submissions outlive the caller on purpose: leaving the
	// loading screen does not cancel the request.
	submitCtx := context.WithoutCancel(ctx)
	cancel := func() {}
	if o.cfg.SubmitTimeout > 0 {
		submitCtx, cancel = context.WithTimeout(submitCtx, o.cfg.SubmitTimeout)
	}
	go func() {
		defer close(run.submitted)
		defer cancel()
		o.submit(submitCtx, sessionID, token, answers)
	}()

	run.wg.Add(3)
	go run.tickSteps(o.cfg.StepInterval)
	go run.forceAdvance(o.cfg.Dwell)
	go o.logRace(run, sessionID)

	o.logger.Debug("loading started",
		zap.String("session", sessionID),
		zap.Int("answers", len(answers)),
		zap.Duration("dwell", o.cfg.Dwell))
	return run, nil
}

func (o *LoadingOrchestrator) readAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	raw, err := o.store.Get(ctx, sessionID, KeyAnswers)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, domain.ErrMissingAnswers
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	set := domain.NewAnswerSet()
	if err := json.Unmarshal([]byte(raw), set); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMissingAnswers, err)
	}
	if set.Len() == 0 {
		return nil, domain.ErrMissingAnswers
	}
	return set.Pairs(), nil
}

// submit never reports failure to the caller; errors are logged and swallowed.
// The result is only stored while token is still the session's current run,
// so a session that ended or restarted meanwhile is left alone.
func (o *LoadingOrchestrator) submit(ctx context.Context, sessionID, token string, answers []domain.Answer) {
	result, err := o.backend.SubmitQuiz(ctx, answers)
	if err != nil {
		o.logger.Error("quiz submission failed", zap.String("session", sessionID), zap.Error(err))
		return
	}

	storeCtx := context.WithoutCancel(ctx)
	current, err := o.store.Get(storeCtx, sessionID, KeyLoadingRun)
	if err != nil || current != token {
		o.logger.Info("discarding result of superseded loading run",
			zap.String("session", sessionID),
			zap.String("result", result.ID),
			zap.Error(err))
		return
	}
	if err := o.store.Set(storeCtx, sessionID, KeyResultID, result.ID); err != nil {
		o.logger.Error("store result id failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	if err := o.store.Clear(storeCtx, sessionID, KeyAnswers); err != nil {
		o.logger.Warn("clear answers failed", zap.String("session", sessionID), zap.Error(err))
	}
	o.logger.Info("quiz submitted",
		zap.String("session", sessionID),
		zap.String("result", result.ID),
		zap.Int("score", result.Score),
		zap.String("persona", result.Persona))
}

// logRace records whether the backend or the dwell timer finished first.
func (o *LoadingOrchestrator) logRace(run *LoadingRun, sessionID string) {
	defer run.wg.Done()
	select {
	case <-run.submitted:
		o.logger.Debug("submission finished before dwell", zap.String("session", sessionID))
	case <-run.advanced:
		o.logger.Info("forced advance before submission finished", zap.String("session", sessionID))
	case <-run.stop:
	}
}

// LoadingRun is one loading screen. Stop must be called when the screen is
// torn down; it cancels the step ticker and the forced-advance timer.
type LoadingRun struct {
	labels    []string
	steps     chan int
	advanced  chan struct{}
	submitted chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Steps publishes each step index as it becomes current, starting at 0.
// It is closed when the last step is reached or the run stops.
func (r *LoadingRun) Steps() <-chan int {
	return r.steps
}

// StepCount is the number of step labels.
func (r *LoadingRun) StepCount() int {
	return len(r.labels)
}

// Label returns the text of a step.
func (r *LoadingRun) Label(step int) string {
	if step < 0 || step >= len(r.labels) {
		return ""
	}
	return r.labels[step]
}

// Advanced is closed when the dwell elapses.
func (r *LoadingRun) Advanced() <-chan struct{} {
	return r.advanced
}

// Submitted is closed when the backend call returns, successfully or not.
func (r *LoadingRun) Submitted() <-chan struct{} {
	return r.submitted
}

// Stopped is closed once Stop is called.
func (r *LoadingRun) Stopped() <-chan struct{} {
	return r.stop
}

// Stop cancels both timers and waits for them to exit. It is safe to call
// more than once and after the run advanced.
func (r *LoadingRun) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()
}

func (r *LoadingRun) tickSteps(interval time.Duration) {
	defer r.wg.Done()
	defer close(r.steps)

	if len(r.labels) == 0 {
		return
	}
	r.steps <- 0
	if len(r.labels) == 1 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for step := 1; step < len(r.labels); step++ {
		select {
		case <-ticker.C:
			r.steps <- step
		case <-r.stop:
			return
		}
	}
}

func (r *LoadingRun) forceAdvance(dwell time.Duration) {
	defer r.wg.Done()

	timer := time.NewTimer(dwell)
	defer timer.Stop()
	select {
	case <-timer.C:
		close(r.advanced)
	case <-r.stop:
	}
}
