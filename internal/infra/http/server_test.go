package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gitproof/internal/config"
	"gitproof/internal/domain"
	"gitproof/internal/infra/githubclient"
	"gitproof/internal/infra/proofmem"
	"gitproof/internal/usecase"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newGitHubStub serves a minimal slice of the platform API: an event
// feed and a profile for octocat, 404 for everyone else.
func newGitHubStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/users/octocat/events"):
			if r.URL.Query().Get("page") != "1" {
				json.NewEncoder(w).Encode([]any{})
				return
			}
			events := make([]map[string]any, 10)
			for i := range events {
				events[i] = map[string]any{
					"id":         fmt.Sprintf("%d", i),
					"type":       "PushEvent",
					"actor":      map[string]any{"id": 1, "login": "octocat"},
					"repo":       map[string]any{"id": 2, "name": "octocat/hello"},
					"created_at": testNow.Add(-time.Duration(i+1) * 24 * time.Hour).Format(time.RFC3339),
					"payload":    map[string]any{"commits": []map[string]string{{"sha": "abc"}}},
				}
			}
			json.NewEncoder(w).Encode(events)
		case r.URL.Path == "/users/octocat":
			json.NewEncoder(w).Encode(map[string]any{"login": "octocat", "id": 1, "public_repos": 12})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
		}
	}))
}

func newTestServer(t *testing.T, github *httptest.Server) (*Server, *proofmem.Store) {
	t.Helper()
	clock := func() time.Time { return testNow }
	source := githubclient.New(github.URL, "")
	proofs := proofmem.New(24*time.Hour, clock)
	verify := &usecase.VerifyActivity{
		Source: source,
		Engine: &usecase.Engine{Source: source, Clock: clock},
		Proofs: proofs,
		Clock:  clock,
	}
	srv := NewServerWithDeps(config.Config{HTTPAddr: ":0"}, ServerDeps{
		Verify:    verify,
		Proofs:    proofs,
		MemProofs: proofs,
	})
	return srv, proofs
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.r.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: response is not JSON: %v\nbody: %s", method, path, err, rec.Body.String())
	}
	return rec, decoded
}

func TestVerify_SuccessWithDefaultThreshold(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/verify",
		`{"github_username":"octocat","verification_type":"public_repos"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	if body["username"] != "octocat" || body["verification_type"] != "public_repos" {
		t.Fatalf("unexpected response: %v", body)
	}
	if body["threshold"] != float64(10) {
		t.Fatalf("expected default threshold 10, got %v", body["threshold"])
	}
	if body["meets_criteria"] != true {
		t.Fatalf("expected criteria met, got %v", body)
	}
	hash, _ := body["proof_hash"].(string)
	if len(hash) != 64 {
		t.Fatalf("expected 64-char proof hash, got %q", hash)
	}
	attestation, ok := body["attestation"].(map[string]any)
	if !ok || attestation["status"] != "not_configured" {
		t.Fatalf("expected not_configured attestation, got %v", body["attestation"])
	}
}

func TestVerify_ProofRoundTrip(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	_, verifyBody := doJSON(t, srv, http.MethodPost, "/api/verify",
		`{"github_username":"octocat","verification_type":"consecutive_days","threshold":5}`)
	hash, _ := verifyBody["proof_hash"].(string)
	if hash == "" {
		t.Fatalf("expected a proof hash, got %v", verifyBody)
	}

	rec, proofBody := doJSON(t, srv, http.MethodGet, "/proof/"+hash, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for stored proof, got %d: %v", rec.Code, proofBody)
	}
	if proofBody["username"] != "octocat" || proofBody["proof_hash"] != hash {
		t.Fatalf("stored proof mismatch: %v", proofBody)
	}
}

func TestVerify_UnknownUser(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/verify",
		`{"github_username":"ghost-user","verification_type":"yearly_commits"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %v", rec.Code, body)
	}
	if body["error_code"] != "USER_NOT_FOUND" {
		t.Fatalf("expected USER_NOT_FOUND, got %v", body)
	}
}

func TestVerify_ValidationErrors(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	for _, tc := range []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"github_username":`},
		{name: "empty username", body: `{"github_username":"","verification_type":"yearly_commits"}`},
		{name: "bad username", body: `{"github_username":"-bad-","verification_type":"yearly_commits"}`},
		{name: "unknown type", body: `{"github_username":"octocat","verification_type":"karma"}`},
		{name: "threshold too low", body: `{"github_username":"octocat","verification_type":"yearly_commits","threshold":0}`},
		{name: "threshold too high", body: `{"github_username":"octocat","verification_type":"yearly_commits","threshold":10001}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, srv, http.MethodPost, "/api/verify", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %v", rec.Code, body)
			}
			if body["error_code"] != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR, got %v", body)
			}
		})
	}
}

func TestVerify_FailedClaimOmitsProof(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, proofs := newTestServer(t, github)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/verify",
		`{"github_username":"octocat","verification_type":"public_repos","threshold":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	if body["meets_criteria"] != false {
		t.Fatalf("expected criteria unmet, got %v", body)
	}
	if _, present := body["proof_hash"]; present {
		t.Fatalf("expected proof_hash omitted on failure, got %v", body)
	}
	if valid, _ := proofs.Stats(); valid != 0 {
		t.Fatalf("expected no proof stored, found %d", valid)
	}
}

func TestGetProof_InvalidHashFormat(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	for _, hash := range []string{
		strings.Repeat("z", 64),
		"abc123",
		strings.Repeat("A", 64),
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
	} {
		rec, body := doJSON(t, srv, http.MethodGet, "/proof/"+hash, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("hash %q: expected 400, got %d: %v", hash, rec.Code, body)
		}
		if body["error_code"] != "INVALID_PROOF_HASH" {
			t.Fatalf("hash %q: expected INVALID_PROOF_HASH, got %v", hash, body)
		}
	}
}

func TestGetProof_NeverIssued(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	rec, body := doJSON(t, srv, http.MethodGet, "/proof/"+strings.Repeat("ab", 32), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %v", rec.Code, body)
	}
	if body["error_code"] != "PROOF_NOT_FOUND" {
		t.Fatalf("expected PROOF_NOT_FOUND, got %v", body)
	}
	if body["details"] == "" {
		t.Fatalf("expected an explanatory detail, got %v", body)
	}
}

func TestGetProof_Expired(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()

	clock := &struct{ now time.Time }{now: testNow}
	source := githubclient.New(github.URL, "")
	proofs := proofmem.New(24*time.Hour, func() time.Time { return clock.now })
	verify := &usecase.VerifyActivity{
		Source: source,
		Engine: &usecase.Engine{Source: source, Clock: func() time.Time { return clock.now }},
		Proofs: proofs,
		Clock:  func() time.Time { return clock.now },
	}
	srv := NewServerWithDeps(config.Config{}, ServerDeps{Verify: verify, Proofs: proofs, MemProofs: proofs})

	_, verifyBody := doJSON(t, srv, http.MethodPost, "/api/verify",
		`{"github_username":"octocat","verification_type":"public_repos"}`)
	hash, _ := verifyBody["proof_hash"].(string)
	if hash == "" {
		t.Fatalf("expected a proof hash, got %v", verifyBody)
	}

	clock.now = clock.now.Add(25 * time.Hour)
	rec, body := doJSON(t, srv, http.MethodGet, "/proof/"+hash, "")
	if rec.Code != http.StatusNotFound || body["error_code"] != "PROOF_NOT_FOUND" {
		t.Fatalf("expected expired proof to 404, got %d: %v", rec.Code, body)
	}
}

func TestNoRoute(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	rec, body := doJSON(t, srv, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || body["error_code"] != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for unknown route, got %d: %v", rec.Code, body)
	}
}

func TestHealthz(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()
	srv, _ := newTestServer(t, github)

	rec, body := doJSON(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("expected healthy status, got %d: %v", rec.Code, body)
	}
	if _, ok := body["proofs"].(map[string]any); !ok {
		t.Fatalf("expected proof store stats, got %v", body)
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(_ context.Context, _ string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	return domain.RateLimitDecision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: testNow.Add(window)}, nil
}

func TestVerify_RateLimited(t *testing.T) {
	github := newGitHubStub(t)
	defer github.Close()

	clock := func() time.Time { return testNow }
	source := githubclient.New(github.URL, "")
	proofs := proofmem.New(24*time.Hour, clock)
	verify := &usecase.VerifyActivity{
		Source: source,
		Engine: &usecase.Engine{Source: source, Clock: clock},
		Proofs: proofs,
		Clock:  clock,
	}
	cfg := config.Config{RateLimitRequests: 1, RateLimitWindowSeconds: 60}
	srv := NewServerWithDeps(cfg, ServerDeps{Verify: verify, Proofs: proofs, RateLimiter: denyAllLimiter{}})

	rec, body := doJSON(t, srv, http.MethodPost, "/api/verify",
		`{"github_username":"octocat","verification_type":"public_repos"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %v", rec.Code, body)
	}
	if body["error_code"] != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED, got %v", body)
	}
	if rec.Header().Get("RateLimit-Limit") == "" || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected rate limit headers, got %v", rec.Header())
	}
}
