package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/brainpal/brainpal-backend/internal/auth"
	"github.com/brainpal/brainpal-backend/internal/completion"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/prompts"
	"github.com/brainpal/brainpal-backend/internal/store"
	"github.com/brainpal/brainpal-backend/internal/store/sqlite"
)

const webhookSecret = "test-webhook-secret"

type scriptedGateway struct {
	text   string
	tokens int64
	err    error
}

func (g *scriptedGateway) Complete(_ context.Context, providerModel string, _ []completion.Message, _ string) (*completion.Result, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &completion.Result{Text: g.text, TokensUsed: g.tokens, Model: providerModel}, nil
}

type testEnv struct {
	srv   *httptest.Server
	store store.Store
	gw    *scriptedGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlite.Open(context.Background(), t.TempDir()+"/api.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authorizer := auth.NewStaticAuthorizer(
		map[string]string{"user-token": "u1", "admin-token": "admin1"},
		map[string]bool{"admin@brainpal.dev": true},
	)
	authorizer.SetEmail("u1", "u1@example.com")
	authorizer.SetEmail("admin1", "admin@brainpal.dev")

	gw := &scriptedGateway{}
	router := NewRouter(RouterDeps{
		Store:         st,
		Authorizer:    authorizer,
		Gateway:       gw,
		WebhookSecret: webhookSecret,
		Log:           zerolog.Nop(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, gw: gw}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) seedPrompts(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, intent := range []prompts.Intent{prompts.IntentIdentity, prompts.IntentTaskGeneration} {
		require.NoError(t, e.store.Prompts().Upsert(ctx, &model.PromptTemplate{
			Name:    prompts.Name(intent, "openai4om"),
			Content: "instructions",
			Active:  true,
		}))
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/tasks", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	// Health needs no token.
	resp = env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAnalyzeAndGenerateFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedPrompts(t)

	env.gw.text = `{"empathetic_response":"Sounds like a lot.","emotional_state":4,"energy_level":5,"brain_clarity":6,"analysis_title":"Busy Day"}`
	env.gw.tokens = 300

	var analyzed struct {
		Analysis struct {
			AnalysisID string `json:"analysisId"`
			Title      string `json:"title"`
		} `json:"analysis"`
		TokensUsed int64 `json:"tokensUsed"`
	}
	resp := env.do(t, http.MethodPost, "/api/analyses", "user-token",
		map[string]string{"transcript": "so much going on today"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &analyzed)
	require.Equal(t, "Busy Day", analyzed.Analysis.Title)
	require.NotEmpty(t, analyzed.Analysis.AnalysisID)

	env.gw.text = `{"tasks":[{"title":"Finish report","priority":"high"},{"title":"Call mom"}]}`
	env.gw.tokens = 500

	var generated struct {
		Tasks []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Position int    `json:"position"`
		} `json:"tasks"`
		ReminderSaved bool `json:"reminderSaved"`
	}
	resp = env.do(t, http.MethodPost, "/api/tasks/generate", "user-token", map[string]interface{}{
		"analysisId": analyzed.Analysis.AnalysisID,
		"transcript": "finish the report and call mom",
		"reminderSettings": map[string]interface{}{
			"count": 3, "startTime": "09:00", "endTime": "11:00",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &generated)
	require.Len(t, generated.Tasks, 2)
	require.True(t, generated.ReminderSaved)
	require.Equal(t, 0, generated.Tasks[0].Position)

	// Mark the first task completed through its compound id.
	var updated struct {
		Status model.Status `json:"status"`
	}
	resp = env.do(t, http.MethodPut, "/api/tasks/"+generated.Tasks[0].ID, "user-token",
		map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &updated)
	require.Equal(t, model.StatusCompleted, updated.Status)

	// The flattened listing filters by status.
	var listing struct {
		Tasks []struct {
			ID string `json:"id"`
		} `json:"tasks"`
		Count int `json:"count"`
	}
	resp = env.do(t, http.MethodGet, "/api/tasks?status=completed", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &listing)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, generated.Tasks[0].ID, listing.Tasks[0].ID)

	// Deleting the analysis reports how many tasks went with it.
	var deleted struct {
		TasksDeleted int `json:"tasksDeleted"`
	}
	resp = env.do(t, http.MethodDelete, "/api/analyses/"+analyzed.Analysis.AnalysisID, "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &deleted)
	require.Equal(t, 2, deleted.TasksDeleted)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	env.seedPrompts(t)

	resp := env.do(t, http.MethodPost, "/api/tasks/generate", "user-token",
		map[string]string{"transcript": "no analysis id"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/tasks/generate", "user-token",
		map[string]string{"analysisId": "a1", "transcript": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProviderFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.seedPrompts(t)
	env.gw.err = &model.ProviderError{StatusCode: 429, Message: "rate limited"}

	resp := env.do(t, http.MethodPost, "/api/analyses", "user-token",
		map[string]string{"transcript": "hello"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMissingPromptIsServerError(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/analyses", "user-token",
		map[string]string{"transcript": "hello"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
	}
	decode(t, resp, &body)
	require.Equal(t, "service misconfigured", body.Message)
}

func TestBillingEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var state struct {
		Credits model.CreditBalance `json:"credits"`
	}
	resp := env.do(t, http.MethodPost, "/api/billing/subscribe", "user-token", map[string]interface{}{
		"plan": "basic", "transactionId": "txn-1", "paymentMethod": "stripe", "amount": 9.99,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &state)
	require.Equal(t, 100, state.Credits.SubscriptionBalance)

	resp = env.do(t, http.MethodPost, "/api/billing/credits", "user-token", map[string]interface{}{
		"packageSize": "small", "transactionId": "txn-2", "paymentMethod": "paypal", "amount": 4.99,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &state)
	require.Equal(t, 50, state.Credits.PurchasedBalance)

	var history struct {
		Count int `json:"count"`
	}
	resp = env.do(t, http.MethodGet, "/api/billing/history", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &history)
	require.Equal(t, 2, history.Count)

	var cancel struct {
		PreviousPlan   model.Plan `json:"previousPlan"`
		CreditsRemoved int        `json:"creditsRemoved"`
	}
	resp = env.do(t, http.MethodPost, "/api/billing/cancel", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &cancel)
	require.Equal(t, model.PlanBasic, cancel.PreviousPlan)
	require.Equal(t, 100, cancel.CreditsRemoved)
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookSignatureAndIdempotency(t *testing.T) {
	env := newTestEnv(t)

	// The target user must exist; webhooks never provision accounts.
	resp := env.do(t, http.MethodGet, "/api/billing/credits", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	event := map[string]interface{}{
		"type": "purchase", "userId": "u1", "packageSize": "medium",
		"transactionId": "txn-hook-1", "paymentMethod": "stripe", "amount": 7.99,
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	post := func(signature string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/billing/webhook", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set("X-Webhook-Signature", signature)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	// Unsigned and missigned posts are rejected.
	resp = post("")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
	resp = post("deadbeef")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = post(signWebhook(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// The provider retries; the grant must not double-apply.
	resp = post(signWebhook(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var state struct {
		Credits model.CreditBalance `json:"credits"`
	}
	resp = env.do(t, http.MethodGet, "/api/billing/credits", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &state)
	require.Equal(t, 100, state.Credits.PurchasedBalance)
}

func TestAdminGating(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/admin/prompts", "user-token", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.do(t, http.MethodPut, "/api/admin/prompts/brainpal_identity_openai4om", "admin-token",
		map[string]interface{}{"content": "You are a supportive companion.", "active": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tmpl model.PromptTemplate
	decode(t, resp, &tmpl)
	require.Equal(t, "admin@brainpal.dev", tmpl.LastModifiedBy)

	var list struct {
		Count int `json:"count"`
	}
	resp = env.do(t, http.MethodGet, "/api/admin/prompts", "admin-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &list)
	require.Equal(t, 1, list.Count)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	var settings model.Settings
	resp := env.do(t, http.MethodGet, "/api/users/me/settings", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &settings)
	require.Equal(t, "openai4om", settings.SelectedModel)

	// A sparse update touches only the named field.
	resp = env.do(t, http.MethodPut, "/api/users/me/settings", "user-token",
		map[string]string{"selectedModel": "claude3h"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &settings)
	require.Equal(t, "claude3h", settings.SelectedModel)
	require.Equal(t, "America/New_York", settings.TimeZone)
}

func TestSubtaskEndpoints(t *testing.T) {
	env := newTestEnv(t)

	// Provision the user, then seed an analysis and task directly.
	resp := env.do(t, http.MethodGet, "/api/users/me/settings", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	ctx := context.Background()
	u, err := env.store.Users().Get(ctx, "u1")
	require.NoError(t, err)
	a, err := env.store.Analyses().Create(ctx, "u1", u.Version, &model.Analysis{
		AnalysisID: model.NewID(), UserID: "u1",
	})
	require.NoError(t, err)
	u, err = env.store.Users().Get(ctx, "u1")
	require.NoError(t, err)
	task, err := env.store.Tasks().Create(ctx, "u1", u.Version, &model.Task{
		TaskID: model.NewID(), AnalysisID: a.AnalysisID, Title: "Parent",
		Status: model.StatusPending, Priority: model.PriorityMedium,
	})
	require.NoError(t, err)

	base := fmt.Sprintf("/api/analyses/%s/tasks/%s/subtasks", a.AnalysisID, task.TaskID)

	var withSub struct {
		Subtasks []model.Subtask `json:"subtasks"`
	}
	resp = env.do(t, http.MethodPost, base, "user-token",
		map[string]interface{}{"title": "Step one"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &withSub)
	require.Len(t, withSub.Subtasks, 1)
	require.Equal(t, 10, withSub.Subtasks[0].EstimatedMinutes)

	resp = env.do(t, http.MethodPut, base+"/0", "user-token",
		map[string]interface{}{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &withSub)
	require.True(t, withSub.Subtasks[0].Completed)

	// Out-of-range index is NotFound, not a silent no-op.
	resp = env.do(t, http.MethodPut, base+"/5", "user-token",
		map[string]interface{}{"completed": true})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.do(t, http.MethodDelete, base+"/0", "user-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &withSub)
	require.Empty(t, withSub.Subtasks)
}
