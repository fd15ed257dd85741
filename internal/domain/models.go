package domain

import "time"

// AnswerKind selects how a question is rendered and which answers it accepts.
type AnswerKind string

const (
	// KindCard is a single-select question whose options carry an image.
	KindCard AnswerKind = "card"
	// KindSimple is a plain single-select question.
	KindSimple AnswerKind = "simple"
	// KindLikert is a numeric agreement scale.
	KindLikert AnswerKind = "likert"
)

// Option is one discrete choice of a select question.
type Option struct {
	Text    string `json:"text" yaml:"text" bson:"text"`
	Subtext string `json:"subtext,omitempty" yaml:"subtext,omitempty" bson:"subtext,omitempty"`
	Image   string `json:"image,omitempty" yaml:"image,omitempty" bson:"image,omitempty"`
	Value   string `json:"value" yaml:"value" bson:"value"`
}

// Scale bounds a likert question.
type Scale struct {
	Min      int    `json:"min" yaml:"min" bson:"min"`
	Max      int    `json:"max" yaml:"max" bson:"max"`
	MinLabel string `json:"minLabel" yaml:"minLabel" bson:"minLabel"`
	MaxLabel string `json:"maxLabel" yaml:"maxLabel" bson:"maxLabel"`
}

// Question is a single catalog entry. Number is the 1-based ordinal.
type Question struct {
	ID      string     `json:"id" yaml:"id" bson:"id"`
	Number  int        `json:"number" yaml:"number" bson:"number"`
	Prompt  string     `json:"prompt" yaml:"prompt" bson:"prompt"`
	Kind    AnswerKind `json:"kind" yaml:"kind" bson:"kind"`
	Options []Option   `json:"options,omitempty" yaml:"options,omitempty" bson:"options,omitempty"`
	Scale   *Scale     `json:"scale,omitempty" yaml:"scale,omitempty" bson:"scale,omitempty"`
}

// InterstitialKind is the presentation of a trap screen.
type InterstitialKind string

const (
	InterstitialTestimonial InterstitialKind = "testimonial"
	InterstitialWarning     InterstitialKind = "warning"
	InterstitialSocialProof InterstitialKind = "social_proof"
)

// InterstitialContent holds the kind-specific copy; unused fields stay empty.
type InterstitialContent struct {
	Quote   string `json:"quote,omitempty" yaml:"quote,omitempty" bson:"quote,omitempty"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty" bson:"author,omitempty"`
	Avatar  string `json:"avatar,omitempty" yaml:"avatar,omitempty" bson:"avatar,omitempty"`
	Stat    string `json:"stat,omitempty" yaml:"stat,omitempty" bson:"stat,omitempty"`
	Counter int    `json:"counter,omitempty" yaml:"counter,omitempty" bson:"counter,omitempty"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty" bson:"text,omitempty"`
	Subtext string `json:"subtext,omitempty" yaml:"subtext,omitempty" bson:"subtext,omitempty"`
}

// Interstitial is a full-screen trap shown after the question numbered AfterQuestion.
type Interstitial struct {
	ID            string              `json:"id" yaml:"id" bson:"id"`
	AfterQuestion int                 `json:"afterQuestion" yaml:"afterQuestion" bson:"afterQuestion"`
	Kind          InterstitialKind    `json:"kind" yaml:"kind" bson:"kind"`
	Theme         string              `json:"theme,omitempty" yaml:"theme,omitempty" bson:"theme,omitempty"`
	Content       InterstitialContent `json:"content" yaml:"content" bson:"content"`
}

// Catalog is the ordered question list plus its sparse interstitials.
type Catalog struct {
	ID            string         `json:"id" yaml:"id" bson:"id"`
	Questions     []Question     `json:"questions" yaml:"questions" bson:"questions"`
	Interstitials []Interstitial `json:"interstitials,omitempty" yaml:"interstitials,omitempty" bson:"interstitials,omitempty"`
}

// InterstitialAfter returns the first interstitial triggered by the given question number.
func (c Catalog) InterstitialAfter(number int) (Interstitial, bool) {
	for _, it := range c.Interstitials {
		if it.AfterQuestion == number {
			return it, true
		}
	}
	return Interstitial{}, false
}

// Answer is one submitted {question_id, answer} pair.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      any    `json:"answer"`
}

// Result is the scored record owned by the external backend.
type Result struct {
	ID                 string    `json:"id"`
	Score              int       `json:"score"`
	Persona            string    `json:"persona"`
	PersonaName        string    `json:"persona_name,omitempty"`
	PersonaDescription string    `json:"persona_description"`
	Headline           string    `json:"headline"`
	Strengths          []string  `json:"strengths"`
	Weaknesses         []string  `json:"weaknesses"`
	ProblemDescription string    `json:"problem_description"`
	Answers            []Answer  `json:"answers,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

// Plan is a purchasable pricing tier. Prices are whole rupees.
type Plan struct {
	Name          string   `json:"name"`
	Duration      string   `json:"duration"`
	Price         int      `json:"price"`
	OriginalPrice int      `json:"originalPrice"`
	Features      []string `json:"features"`
	Recommended   bool     `json:"recommended,omitempty"`
}

// OrderRequest is what the results page sends to create an order.
type OrderRequest struct {
	Email        string `json:"email"`
	ResultID     string `json:"quiz_result_id"`
	Plan         string `json:"plan"`
	Amount       int    `json:"amount"`
	HasOrderBump bool   `json:"has_order_bump"`
}

// Order is the backend's order record.
type Order struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Plan         string `json:"plan"`
	Amount       int    `json:"amount"`
	HasOrderBump bool   `json:"has_order_bump"`
	Status       string `json:"status"`
}

// Route names a funnel page a client should navigate to.
type Route string

const (
	RouteStart   Route = "/"
	RouteLoading Route = "/loading"
	RouteEmail   Route = "/email"
	RouteResults Route = "/results"
	RouteSuccess Route = "/success"
)
