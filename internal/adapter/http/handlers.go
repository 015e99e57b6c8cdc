package http

import (
	"net/http"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
	"github.com/Strob0t/OnboardForge/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Onboarding *service.OnboardingService
	Reviews    *service.ReviewService
	Version    string
}

// --- Applications ---

// SubmitApplication handles POST /api/v1/applications. The case is stored as
// SUBMITTED; processing happens on POST .../process or by the queue worker.
func (h *Handlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[application.CreateRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	c, err := h.Onboarding.Submit(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "application not found")
		return
	}
	writeAccepted(w, c)
}

// SubmitDemo handles POST /api/v1/applications/demo.
func (h *Handlers) SubmitDemo(w http.ResponseWriter, r *http.Request) {
	c, err := h.Onboarding.SubmitDemo(r.Context())
	if err != nil {
		writeDomainError(w, err, "application not found")
		return
	}
	writeAccepted(w, c)
}

func writeAccepted(w http.ResponseWriter, c *onboarding.Case) {
	w.Header().Set("Location", "/api/v1/applications/"+c.ID)
	writeJSON(w, http.StatusAccepted, c)
}

// ListApplications handles GET /api/v1/applications?status=&limit=.
func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	status := onboarding.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+string(status))
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	cases, err := h.Onboarding.List(r.Context(), onboarding.ListFilter{Status: status, Limit: limit})
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if cases == nil {
		cases = []onboarding.Case{}
	}
	writeJSON(w, http.StatusOK, cases)
}

// GetApplication handles GET /api/v1/applications/{id}.
func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Onboarding.Get, "application not found")(w, r)
}

// ApplicationEvents handles GET /api/v1/applications/{id}/events.
func (h *Handlers) ApplicationEvents(w http.ResponseWriter, r *http.Request) {
	handleListByID(h.Onboarding.Events, "application not found")(w, r)
}

// ProcessApplication handles POST /api/v1/applications/{id}/process.
func (h *Handlers) ProcessApplication(w http.ResponseWriter, r *http.Request) {
	c, err := h.Onboarding.Process(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "application not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Assess handles POST /api/v1/assessments: submit and process in one call.
func (h *Handlers) Assess(w http.ResponseWriter, r *http.Request) {
	handleCreate(http.StatusCreated, h.Onboarding.Assess)(w, r)
}

// --- Reviews ---

// ListReviews handles GET /api/v1/reviews.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	handleList(h.Reviews.ListPending)(w, r)
}

// GetReview handles GET /api/v1/reviews/{id}.
func (h *Handlers) GetReview(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Reviews.GetPacket, "no pending review for this application")(w, r)
}

// ResolveReview handles POST /api/v1/reviews/{id}/decision.
func (h *Handlers) ResolveReview(w http.ResponseWriter, r *http.Request) {
	handleUpdate[review.ResolveRequest](h.Reviews.Resolve, "application not found")(w, r)
}

// --- Decision rules ---

// ListRules handles GET /api/v1/rules.
func (h *Handlers) ListRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Onboarding.Rules())
}

// EvaluateDecision handles POST /api/v1/decisions/evaluate. The body is a
// flat metrics map; nothing is stored.
func (h *Handlers) EvaluateDecision(w http.ResponseWriter, r *http.Request) {
	metrics, ok := readJSON[map[string]any](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if metrics == nil {
		writeError(w, http.StatusBadRequest, "metrics object is required")
		return
	}
	in, d := h.Onboarding.Evaluate(metrics)
	writeJSON(w, http.StatusOK, map[string]any{"input": in, "decision": d})
}
