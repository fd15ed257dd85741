package catalog

import (
	"fmt"

	"bondrizz-funnel/internal/domain"
)

// Validate enforces the catalog invariants: contiguous 1-based ordinals in
// slice order, unique ids, well-formed options or scales, and interstitials
// that trigger on an existing ordinal with at most one per ordinal.
func Validate(c domain.Catalog) error {
	if len(c.Questions) == 0 {
		return invalid("catalog %q has no questions", c.ID)
	}

	ids := make(map[string]struct{}, len(c.Questions))
	for i, q := range c.Questions {
		if q.ID == "" {
			return invalid("question at index %d has no id", i)
		}
		if _, dup := ids[q.ID]; dup {
			return invalid("duplicate question id %q", q.ID)
		}
		ids[q.ID] = struct{}{}

		if q.Number != i+1 {
			return invalid("question %s has number %d, want %d", q.ID, q.Number, i+1)
		}
		if err := validateQuestion(q); err != nil {
			return err
		}
	}

	trapIDs := make(map[string]struct{}, len(c.Interstitials))
	triggers := make(map[int]string, len(c.Interstitials))
	for _, it := range c.Interstitials {
		if it.ID == "" {
			return invalid("interstitial after question %d has no id", it.AfterQuestion)
		}
		if _, dup := trapIDs[it.ID]; dup {
			return invalid("duplicate interstitial id %q", it.ID)
		}
		trapIDs[it.ID] = struct{}{}

		if it.AfterQuestion < 1 || it.AfterQuestion > len(c.Questions) {
			return invalid("interstitial %s triggers after unknown question %d", it.ID, it.AfterQuestion)
		}
		if other, dup := triggers[it.AfterQuestion]; dup {
			return invalid("interstitials %s and %s both trigger after question %d", other, it.ID, it.AfterQuestion)
		}
		triggers[it.AfterQuestion] = it.ID

		switch it.Kind {
		case domain.InterstitialTestimonial, domain.InterstitialWarning, domain.InterstitialSocialProof:
		default:
			return invalid("interstitial %s has unknown kind %q", it.ID, it.Kind)
		}
	}
	return nil
}

func validateQuestion(q domain.Question) error {
	switch q.Kind {
	case domain.KindCard, domain.KindSimple:
		if len(q.Options) == 0 {
			return invalid("question %s has no options", q.ID)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, dup := seen[opt.Value]; dup {
				return invalid("question %s repeats option value %q", q.ID, opt.Value)
			}
			seen[opt.Value] = struct{}{}
		}
	case domain.KindLikert:
		if q.Scale == nil {
			return invalid("question %s has no scale", q.ID)
		}
		if q.Scale.Min >= q.Scale.Max {
			return invalid("question %s scale %d..%d is empty", q.ID, q.Scale.Min, q.Scale.Max)
		}
	default:
		return invalid("question %s has unknown kind %q", q.ID, q.Kind)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidCatalog, fmt.Sprintf(format, args...))
}
