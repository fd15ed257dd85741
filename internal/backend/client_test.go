package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bondrizz-funnel/internal/domain"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAPI struct {
	submitted []domain.Answer
	captured  map[string]string
	orders    []domain.OrderRequest
	completed []string
	fail      bool
}

func (f *fakeAPI) router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quiz/submit", func(w http.ResponseWriter, r *http.Request) {
		if f.fail {
			http.Error(w, "scoring down", http.StatusServiceUnavailable)
			return
		}
		var body struct {
			Answers []domain.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.submitted = body.Answers
		writeJSON(w, domain.Result{ID: "res-1", Score: 58, Persona: "anxious_overthinker"})
	}).Methods(http.MethodPost)
	api.HandleFunc("/quiz/result/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "res-1" {
			http.Error(w, `{"detail":"Quiz result not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, domain.Result{ID: "res-1", Score: 58, Strengths: []string{"Good listener"}})
	}).Methods(http.MethodGet)
	api.HandleFunc("/email/capture", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["quiz_result_id"] != "res-1" {
			http.Error(w, `{"detail":"Quiz result not found"}`, http.StatusNotFound)
			return
		}
		f.captured[body["email"]] = body["quiz_result_id"]
		writeJSON(w, map[string]string{"message": "Email captured successfully"})
	}).Methods(http.MethodPost)
	api.HandleFunc("/order/create", func(w http.ResponseWriter, r *http.Request) {
		var req domain.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.orders = append(f.orders, req)
		writeJSON(w, domain.Order{ID: "ord-1", Email: req.Email, Plan: req.Plan, Amount: req.Amount, HasOrderBump: req.HasOrderBump, Status: "pending"})
	}).Methods(http.MethodPost)
	api.HandleFunc("/order/complete/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if id != "ord-1" {
			http.Error(w, `{"detail":"Order not found"}`, http.StatusNotFound)
			return
		}
		f.completed = append(f.completed, id)
		writeJSON(w, map[string]string{"message": "Order completed successfully"})
	}).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{captured: make(map[string]string)}
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second, zaptest.NewLogger(t)), api
}

func TestSubmitQuizSendsAnswerPairs(t *testing.T) {
	client, api := newTestClient(t)

	result, err := client.SubmitQuiz(context.Background(), []domain.Answer{
		{QuestionID: "q1", Value: "no_matches"},
		{QuestionID: "q9", Value: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "res-1", result.ID)
	require.Len(t, api.submitted, 2)
	assert.Equal(t, "q1", api.submitted[0].QuestionID)
	assert.Equal(t, "no_matches", api.submitted[0].Value)
	assert.EqualValues(t, 3, api.submitted[1].Value)
}

func TestSubmitQuizFailureIsNetworkFailure(t *testing.T) {
	client, api := newTestClient(t)
	api.fail = true

	_, err := client.SubmitQuiz(context.Background(), []domain.Answer{{QuestionID: "q1", Value: "x"}})
	require.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchResult(t *testing.T) {
	client, _ := newTestClient(t)

	result, err := client.FetchResult(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Good listener"}, result.Strengths)

	_, err = client.FetchResult(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestCaptureEmail(t *testing.T) {
	client, api := newTestClient(t)

	require.NoError(t, client.CaptureEmail(context.Background(), "user@example.com", "res-1"))
	assert.Equal(t, "res-1", api.captured["user@example.com"])

	err := client.CaptureEmail(context.Background(), "user@example.com", "stale")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestCreateAndCompleteOrder(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	order, err := client.CreateOrder(ctx, domain.OrderRequest{
		Email:        "user@example.com",
		ResultID:     "res-1",
		Plan:         "Popular",
		Amount:       1998,
		HasOrderBump: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	require.Len(t, api.orders, 1)
	assert.Equal(t, 1998, api.orders[0].Amount)
	assert.Equal(t, "res-1", api.orders[0].ResultID)

	require.NoError(t, client.CompleteOrder(ctx, order.ID))
	assert.Equal(t, []string{"ord-1"}, api.completed)

	assert.ErrorIs(t, client.CompleteOrder(ctx, "ord-404"), domain.ErrOrderNotFound)
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, 200*time.Millisecond, zaptest.NewLogger(t))

	err := client.CaptureEmail(context.Background(), "user@example.com", "res-1")
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
}
