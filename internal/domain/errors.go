package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a funnel session has not been started.
	ErrSessionNotFound = errors.New("funnel session not found")
	// ErrCatalogNotFound indicates the catalog content could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidCatalog wraps the first catalog invariant violation.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrKeyNotFound is returned by session stores for absent keys.
	ErrKeyNotFound = errors.New("session key not found")

	// ErrFlowStarted is returned when Start is called twice on one flow.
	ErrFlowStarted = errors.New("quiz flow already started")
	// ErrFlowNotActive is returned for inputs outside the Active state.
	ErrFlowNotActive = errors.New("quiz flow not active")
	// ErrInterstitialShown rejects answers and navigation while a trap is displayed.
	ErrInterstitialShown = errors.New("interstitial must be dismissed first")
	// ErrNoInterstitial is returned when dismissing with nothing displayed.
	ErrNoInterstitial = errors.New("no interstitial displayed")
	// ErrAtFirstQuestion is returned when going back from the first question.
	ErrAtFirstQuestion = errors.New("already at first question")
	// ErrInvalidAnswer indicates a value the current question does not accept.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrMissingAnswers means no answer set was persisted before loading.
	ErrMissingAnswers = errors.New("quiz answers not found")
	// ErrMissingResult means no result identifier is available.
	ErrMissingResult = errors.New("quiz result not found, please retake the quiz")
	// ErrResultNotFound is returned when the backend has no result for an id.
	ErrResultNotFound = errors.New("quiz result does not exist")
	// ErrInvalidEmail rejects malformed addresses before any network call.
	ErrInvalidEmail = errors.New("please enter a valid email address")
	// ErrMissingEmail is returned at checkout when no email was captured.
	ErrMissingEmail = errors.New("email not found, please go back and enter your email")
	// ErrUnknownPlan indicates a checkout for a plan that is not offered.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrOrderNotFound is returned when completing an order the backend does not know.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNetworkFailure wraps transport and backend failures.
	ErrNetworkFailure = errors.New("backend request failed")
)
