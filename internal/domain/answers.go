package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// AnswerSet maps question ids to selected values and remembers the order in
// which questions were first answered. Overwrites keep the original position.
type AnswerSet struct {
	order  []string
	values map[string]any
}

func NewAnswerSet() *AnswerSet {
	return &AnswerSet{values: make(map[string]any)}
}

// Set records or overwrites the answer for a question.
func (s *AnswerSet) Set(questionID string, value any) {
	if _, ok := s.values[questionID]; !ok {
		s.order = append(s.order, questionID)
	}
	s.values[questionID] = value
}

func (s *AnswerSet) Get(questionID string) (any, bool) {
	v, ok := s.values[questionID]
	return v, ok
}

func (s *AnswerSet) Len() int {
	return len(s.order)
}

// Pairs returns the answers in insertion order.
func (s *AnswerSet) Pairs() []Answer {
	pairs := make([]Answer, 0, len(s.order))
	for _, id := range s.order {
		pairs = append(pairs, Answer{QuestionID: id, Value: s.values[id]})
	}
	return pairs
}

// MarshalJSON encodes the set as an ordered list of pairs.
func (s *AnswerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Pairs())
}

func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	var pairs []Answer
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	s.order = nil
	s.values = make(map[string]any, len(pairs))
	for _, p := range pairs {
		s.Set(p.QuestionID, p.Value)
	}
	return nil
}

// Accepts checks that value is a valid answer for the question and returns
// its normalized form: the option value for select kinds, an int for likert.
func (q Question) Accepts(value any) (any, error) {
	switch q.Kind {
	case KindCard, KindSimple:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: question %s expects a string", ErrInvalidAnswer, q.ID)
		}
		for _, opt := range q.Options {
			if opt.Value == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not an option of question %s", ErrInvalidAnswer, s, q.ID)
	case KindLikert:
		if q.Scale == nil {
			return nil, fmt.Errorf("%w: question %s has no scale", ErrInvalidAnswer, q.ID)
		}
		n, ok := integral(value)
		if !ok {
			return nil, fmt.Errorf("%w: question %s expects a whole number", ErrInvalidAnswer, q.ID)
		}
		if n < q.Scale.Min || n > q.Scale.Max {
			return nil, fmt.Errorf("%w: %d outside scale %d..%d", ErrInvalidAnswer, n, q.Scale.Min, q.Scale.Max)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: unknown question kind %q", ErrInvalidAnswer, q.Kind)
	}
}

func integral(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
