package app

import (
	"context"
	"errors"
	"fmt"

	"bondrizz-funnel/internal/domain"
	"go.uber.org/zap"
)

// AddOnPrice is the order bump price in rupees.
const AddOnPrice = 199

// DefaultPlans are the pricing tiers offered on the results page.
func DefaultPlans() []domain.Plan {
	return []domain.Plan{
		{
			Name:          "Basic",
			Duration:      "1 Month",
			Price:         999,
			OriginalPrice: 1999,
			Features: []string{
				"Core messaging frameworks",
				"Basic flirting techniques",
				"30 days of access",
				"Email support",
			},
		},
		{
			Name:          "Popular",
			Duration:      "3 Months",
			Price:         1799,
			OriginalPrice: 3999,
			Features: []string{
				"Everything in Basic",
				"Advanced attraction principles",
				"Live Q&A sessions",
				"90 days of access",
				"Priority support",
				"Community access",
			},
			Recommended: true,
		},
		{
			Name:          "Pro",
			Duration:      "6 Months",
			Price:         2999,
			OriginalPrice: 5999,
			Features: []string{
				"Everything in Popular",
				"One-on-one coaching calls",
				"Custom profile optimization",
				"180 days of access",
				"VIP support",
				"Lifetime community access",
			},
		},
	}
}

// TotalPrice is the plan price plus the add-on when the order bump is selected.
func TotalPrice(plan domain.Plan, orderBump bool, addOnPrice int) int {
	if orderBump {
		return plan.Price + addOnPrice
	}
	return plan.Price
}

// ResultsView is what the results page renders.
type ResultsView struct {
	Result     domain.Result `json:"result"`
	Plans      []domain.Plan `json:"plans"`
	AddOnPrice int           `json:"addOnPrice"`
}

// CheckoutRequest is the mock payment confirmation.
type CheckoutRequest struct {
	ResultID  string `json:"resultId"`
	Plan      string `json:"plan"`
	OrderBump bool   `json:"orderBump"`
}

// Receipt summarizes a completed mock checkout.
type Receipt struct {
	OrderID   string `json:"orderId"`
	Plan      string `json:"plan"`
	Amount    int    `json:"amount"`
	OrderBump bool   `json:"orderBump"`
	Email     string `json:"email"`
}

// ResultsPresenter loads scored results and runs the simulated checkout.
type ResultsPresenter struct {
	store      SessionStore
	backend    Backend
	plans      []domain.Plan
	addOnPrice int
	logger     *zap.Logger
}

func NewResultsPresenter(store SessionStore, backend Backend, plans []domain.Plan, addOnPrice int, logger *zap.Logger) *ResultsPresenter {
	if len(plans) == 0 {
		plans = DefaultPlans()
	}
	return &ResultsPresenter{
		store:      store,
		backend:    backend,
		plans:      plans,
		addOnPrice: addOnPrice,
		logger:     logger,
	}
}

// Plans returns the offered tiers.
func (p *ResultsPresenter) Plans() []domain.Plan {
	return p.plans
}

// AddOnPrice returns the order bump price.
func (p *ResultsPresenter) AddOnPrice() int {
	return p.addOnPrice
}

// Load fetches the result by id, falling back to the session's stored id.
func (p *ResultsPresenter) Load(ctx context.Context, sessionID, resultID string) (ResultsView, error) {
	if resultID == "" {
		stored, err := p.store.Get(ctx, sessionID, KeyResultID)
		if errors.Is(err, domain.ErrKeyNotFound) || (err == nil && stored == "") {
			return ResultsView{}, domain.ErrMissingResult
		}
		if err != nil {
			return ResultsView{}, fmt.Errorf("read result id: %w", err)
		}
		resultID = stored
	}

	result, err := p.backend.FetchResult(ctx, resultID)
	if err != nil {
		p.logger.Warn("load results failed", zap.String("session", sessionID), zap.String("result", resultID), zap.Error(err))
		if errors.Is(err, domain.ErrResultNotFound) {
			return ResultsView{}, err
		}
		// Any failure to load sends the user back to start.
		return ResultsView{}, fmt.Errorf("%w: %v", domain.ErrResultNotFound, err)
	}
	return ResultsView{Result: result, Plans: p.plans, AddOnPrice: p.addOnPrice}, nil
}

// Checkout creates the order and immediately marks it complete. No payment
// is taken.
func (p *ResultsPresenter) Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (Receipt, error) {
	plan, ok := p.plan(req.Plan)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %q", domain.ErrUnknownPlan, req.Plan)
	}

	email, err := p.store.Get(ctx, sessionID, KeyEmail)
	if errors.Is(err, domain.ErrKeyNotFound) || (err == nil && email == "") {
		return Receipt{}, domain.ErrMissingEmail
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("read email: %w", err)
	}

	resultID := req.ResultID
	if resultID == "" {
		stored, err := p.store.Get(ctx, sessionID, KeyResultID)
		if errors.Is(err, domain.ErrKeyNotFound) || (err == nil && stored == "") {
			return Receipt{}, domain.ErrMissingResult
		}
		if err != nil {
			return Receipt{}, fmt.Errorf("read result id: %w", err)
		}
		resultID = stored
	}

	amount := TotalPrice(plan, req.OrderBump, p.addOnPrice)
	order, err := p.backend.CreateOrder(ctx, domain.OrderRequest{
		Email:        email,
		ResultID:     resultID,
		Plan:         plan.Name,
		Amount:       amount,
		HasOrderBump: req.OrderBump,
	})
	if err != nil {
		p.logger.Error("create order failed", zap.String("session", sessionID), zap.Error(err))
		return Receipt{}, asNetworkFailure(err)
	}
	if err := p.backend.CompleteOrder(ctx, order.ID); err != nil {
		p.logger.Error("complete order failed", zap.String("session", sessionID), zap.String("order", order.ID), zap.Error(err))
		return Receipt{}, asNetworkFailure(err)
	}

	p.logger.Info("order completed",
		zap.String("session", sessionID),
		zap.String("order", order.ID),
		zap.String("plan", plan.Name),
		zap.Int("amount", amount))
	return Receipt{
		OrderID:   order.ID,
		Plan:      plan.Name,
		Amount:    amount,
		OrderBump: req.OrderBump,
		Email:     email,
	}, nil
}

func (p *ResultsPresenter) plan(name string) (domain.Plan, bool) {
	for _, plan := range p.plans {
		if plan.Name == name {
			return plan, true
		}
	}
	return domain.Plan{}, false
}

func asNetworkFailure(err error) error {
	if errors.Is(err, domain.ErrNetworkFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
}
