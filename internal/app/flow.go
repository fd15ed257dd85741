package app

import (
	"context"
	"encoding/json"
	"fmt"

	"bondrizz-funnel/internal/domain"
)

// FlowState is the lifecycle state of a quiz flow.
type FlowState string

const (
	FlowNotStarted FlowState = "not_started"
	FlowActive     FlowState = "active"
	FlowComplete   FlowState = "complete"
)

// InterstitialBump is the progress, in percentage points, added when a trap is shown.
const InterstitialBump = 5.0

// AnswerSink receives the serialized answer set when a flow completes.
type AnswerSink interface {
	StoreAnswers(ctx context.Context, payload []byte) error
}

// AnswerSinkFunc adapts a function to AnswerSink.
type AnswerSinkFunc func(ctx context.Context, payload []byte) error

func (f AnswerSinkFunc) StoreAnswers(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// FlowView is a read-only snapshot of a flow for presentation.
type FlowView struct {
	State        FlowState            `json:"state"`
	Position     int                  `json:"position"`
	Total        int                  `json:"total"`
	Progress     float64              `json:"progress"`
	Question     *domain.Question     `json:"question,omitempty"`
	Interstitial *domain.Interstitial `json:"interstitial,omitempty"`
	Selected     any                  `json:"selected,omitempty"`
}

// Flow walks a catalog one question at a time. It has a single writer and
// is not safe for concurrent use; Session serializes access.
type Flow struct {
	catalog domain.Catalog
	sink    AnswerSink

	state        FlowState
	position     int
	progress     float64
	answers      *domain.AnswerSet
	interstitial *domain.Interstitial
	dismissed    map[string]struct{}
}

// NewFlow builds a flow in the NotStarted state. The catalog must be valid.
func NewFlow(catalog domain.Catalog, sink AnswerSink) *Flow {
	return &Flow{
		catalog: catalog,
		sink:    sink,
		state:   FlowNotStarted,
	}
}

// Start moves the flow to the first question with an empty answer set.
func (f *Flow) Start() error {
	if f.state != FlowNotStarted {
		return domain.ErrFlowStarted
	}
	if len(f.catalog.Questions) == 0 {
		return fmt.Errorf("%w: catalog %q has no questions", domain.ErrInvalidCatalog, f.catalog.ID)
	}
	f.state = FlowActive
	f.position = 0
	f.progress = 0
	f.answers = domain.NewAnswerSet()
	f.interstitial = nil
	f.dismissed = make(map[string]struct{})
	return nil
}

// Submit records an answer for the current question and either shows the
// interstitial that follows it or advances.
func (f *Flow) Submit(ctx context.Context, value any) error {
	if f.state != FlowActive {
		return domain.ErrFlowNotActive
	}
	if f.interstitial != nil {
		return domain.ErrInterstitialShown
	}

	question := f.catalog.Questions[f.position]
	normalized, err := question.Accepts(value)
	if err != nil {
		return err
	}
	f.answers.Set(question.ID, normalized)

	if trap, ok := f.catalog.InterstitialAfter(question.Number); ok {
		if _, seen := f.dismissed[trap.ID]; !seen {
			f.interstitial = &trap
			f.progress = min(f.progress+InterstitialBump, 100)
			return nil
		}
	}
	return f.advance(ctx)
}

// Dismiss clears the displayed interstitial and advances.
func (f *Flow) Dismiss(ctx context.Context) error {
	if f.state != FlowActive {
		return domain.ErrFlowNotActive
	}
	if f.interstitial == nil {
		return domain.ErrNoInterstitial
	}
	f.dismissed[f.interstitial.ID] = struct{}{}
	f.interstitial = nil
	return f.advance(ctx)
}

// Back returns to the previous question. Recorded answers and progress are kept.
func (f *Flow) Back() error {
	if f.state != FlowActive {
		return domain.ErrFlowNotActive
	}
	if f.interstitial != nil {
		return domain.ErrInterstitialShown
	}
	if f.position == 0 {
		return domain.ErrAtFirstQuestion
	}
	f.position--
	return nil
}

func (f *Flow) advance(ctx context.Context) error {
	total := len(f.catalog.Questions)
	if f.position < total-1 {
		f.position++
		f.progress = float64(f.position) / float64(total) * 100
		return nil
	}

	payload, err := json.Marshal(f.answers)
	if err != nil {
		return fmt.Errorf("serialize answers: %w", err)
	}
	if err := f.sink.StoreAnswers(ctx, payload); err != nil {
		return fmt.Errorf("hand off answers: %w", err)
	}
	f.state = FlowComplete
	f.progress = 100
	f.answers = nil
	return nil
}

// State reports the lifecycle state.
func (f *Flow) State() FlowState {
	return f.state
}

// Progress reports the displayed progress percentage.
func (f *Flow) Progress() float64 {
	return f.progress
}

// Position reports the zero-based index of the current question.
func (f *Flow) Position() int {
	return f.position
}

// Answer returns the recorded answer for a question while the flow is active.
func (f *Flow) Answer(questionID string) (any, bool) {
	if f.answers == nil {
		return nil, false
	}
	return f.answers.Get(questionID)
}

// AnswerCount is the number of distinct questions answered so far.
func (f *Flow) AnswerCount() int {
	if f.answers == nil {
		return 0
	}
	return f.answers.Len()
}

// View snapshots the flow.
func (f *Flow) View() FlowView {
	view := FlowView{
		State:    f.state,
		Position: f.position,
		Total:    len(f.catalog.Questions),
		Progress: f.progress,
	}
	if f.state != FlowActive {
		return view
	}
	q := f.catalog.Questions[f.position]
	view.Question = &q
	if selected, ok := f.answers.Get(q.ID); ok {
		view.Selected = selected
	}
	if f.interstitial != nil {
		it := *f.interstitial
		view.Interstitial = &it
	}
	return view
}
