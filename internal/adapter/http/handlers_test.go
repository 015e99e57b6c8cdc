package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	cfhttp "github.com/Strob0t/OnboardForge/internal/adapter/http"
	"github.com/Strob0t/OnboardForge/internal/adapter/memory"
	"github.com/Strob0t/OnboardForge/internal/config"
	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/service"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	engine, err := decision.NewEngine(decision.DefaultThresholds())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	comms, err := communication.NewGenerator(communication.Bank{Name: "Test Bank"})
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	store := memory.NewStore()
	events := memory.NewEventStore()
	explain := service.NewExplainService(nil, nil, config.Explainer{Timeout: time.Second, Fallback: "n/a"})

	h := &cfhttp.Handlers{
		Onboarding: service.NewOnboardingService(store, engine, explain, comms, nil, nil, events),
		Reviews:    service.NewReviewService(store, comms, nil, nil, events),
		Version:    "test",
	}
	r := chi.NewRouter()
	cfhttp.MountRoutes(r, h)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body %q)", err, w.Body.String())
	}
	return v
}

func pepFlagged() application.CreateRequest {
	req := application.Demo()
	req.Identity.PEPCheck = application.ScreeningFlagged
	return req
}

func TestVersion(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody[map[string]string](t, w)["version"]; got != "test" {
		t.Fatalf("expected version test, got %q", got)
	}
}

func TestSubmitThenProcess(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/applications", application.Demo())
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	submitted := decodeBody[onboarding.Case](t, w)
	if submitted.Status != onboarding.StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", submitted.Status)
	}
	if loc := w.Header().Get("Location"); loc != "/api/v1/applications/"+submitted.ID {
		t.Fatalf("unexpected Location %q", loc)
	}

	w = do(t, r, http.MethodPost, "/api/v1/applications/"+submitted.ID+"/process", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	processed := decodeBody[onboarding.Case](t, w)
	if processed.Status != onboarding.StatusApproved || processed.Decision == nil {
		t.Fatalf("unexpected case: %+v", processed)
	}

	// A decided case is never reprocessed.
	w = do(t, r, http.MethodPost, "/api/v1/applications/"+submitted.ID+"/process", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if msg := decodeBody[map[string]string](t, w)["error"]; msg != "case already decided" {
		t.Fatalf("unexpected error %q", msg)
	}

	w = do(t, r, http.MethodGet, "/api/v1/applications/"+submitted.ID+"/events", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	evs := decodeBody[[]event.CaseEvent](t, w)
	if len(evs) < 2 || evs[0].Type != event.TypeApplicationSubmitted || evs[1].Type != event.TypeDecisionMade {
		t.Fatalf("unexpected timeline: %+v", evs)
	}
}

func TestSubmitValidation(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/applications", map[string]any{"business_name": "Acme"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	msg := decodeBody[map[string]string](t, w)["error"]
	if !strings.HasPrefix(msg, "please fill in all required fields") {
		t.Fatalf("unexpected error %q", msg)
	}

	w = do(t, r, http.MethodPost, "/api/v1/applications", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestSubmitBodyTooLarge(t *testing.T) {
	r := newTestRouter(t)
	big := `{"business_name":"` + strings.Repeat("a", 2<<20) + `"}`
	w := do(t, r, http.MethodPost, "/api/v1/applications", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestListApplications(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodPost, "/api/v1/applications/demo", nil)
	do(t, r, http.MethodPost, "/api/v1/assessments", application.Demo())

	w := do(t, r, http.MethodGet, "/api/v1/applications", nil)
	if got := decodeBody[[]onboarding.Case](t, w); len(got) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(got))
	}

	w = do(t, r, http.MethodGet, "/api/v1/applications?status=SUBMITTED", nil)
	got := decodeBody[[]onboarding.Case](t, w)
	if len(got) != 1 || got[0].Status != onboarding.StatusSubmitted {
		t.Fatalf("unexpected filtered list: %+v", got)
	}

	w = do(t, r, http.MethodGet, "/api/v1/applications?limit=1", nil)
	if got := decodeBody[[]onboarding.Case](t, w); len(got) != 1 {
		t.Fatalf("expected 1 case with limit, got %d", len(got))
	}

	for _, q := range []string{"?status=bogus", "?limit=-1", "?limit=x"} {
		if w := do(t, r, http.MethodGet, "/api/v1/applications"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/v1/applications/APP-missing", "/api/v1/applications/APP-missing/events"} {
		w := do(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestReviewFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/assessments", pepFlagged())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	c := decodeBody[onboarding.Case](t, w)
	if c.Status != onboarding.StatusPendingReview {
		t.Fatalf("expected PENDING_REVIEW, got %s", c.Status)
	}

	w = do(t, r, http.MethodGet, "/api/v1/reviews", nil)
	items := decodeBody[[]service.ReviewItem](t, w)
	if len(items) != 1 || items[0].CaseID != c.ID {
		t.Fatalf("unexpected queue: %+v", items)
	}

	w = do(t, r, http.MethodGet, "/api/v1/reviews/"+c.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if item := decodeBody[service.ReviewItem](t, w); item.Packet == nil {
		t.Fatal("expected review packet")
	}

	w = do(t, r, http.MethodPost, "/api/v1/reviews/"+c.ID+"/decision", map[string]any{
		"action":   "APPROVE",
		"reviewer": "jane.doe",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without notes, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/v1/reviews/"+c.ID+"/decision", map[string]any{
		"action":   "APPROVE",
		"reviewer": "jane.doe",
		"notes":    "PEP exposure reviewed.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resolved := decodeBody[onboarding.Case](t, w)
	if resolved.Status != onboarding.StatusApproved || len(resolved.Overrides) != 1 {
		t.Fatalf("unexpected resolved case: %+v", resolved)
	}

	w = do(t, r, http.MethodPost, "/api/v1/reviews/"+c.ID+"/decision", map[string]any{
		"action":   "REJECT",
		"reviewer": "jane.doe",
		"notes":    "Second thoughts.",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a resolved case, got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/v1/reviews/"+c.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 once resolved, got %d: %s", w.Code, w.Body.String())
	}
	item := decodeBody[service.ReviewItem](t, w)
	if item.Packet == nil || item.Status != onboarding.StatusApproved || len(item.Overrides) != 1 {
		t.Fatalf("expected packet with the override kept, got %+v", item)
	}
	if item.Decision == nil || item.Decision.Outcome != decision.OutcomeHumanReview {
		t.Fatalf("expected automated decision kept, got %+v", item.Decision)
	}
}

func TestRulesAndEvaluate(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/rules", nil)
	rules := decodeBody[[]decision.RuleInfo](t, w)
	if len(rules) == 0 || rules[0].Name != "sanctions_match" {
		t.Fatalf("unexpected rules: %+v", rules)
	}

	w = do(t, r, http.MethodPost, "/api/v1/decisions/evaluate", map[string]any{
		"credit_score":            90,
		"compliance_score":        90,
		"documents_complete":      true,
		"aml_sanctions_screening": "FLAGGED",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	out := decodeBody[struct {
		Decision decision.Decision `json:"decision"`
	}](t, w)
	if out.Decision.Outcome != decision.OutcomeReject || out.Decision.Rule != "sanctions_match" {
		t.Fatalf("unexpected decision: %+v", out.Decision)
	}

	w = do(t, r, http.MethodPost, "/api/v1/decisions/evaluate", "null")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for null metrics, got %d", w.Code)
	}
}
