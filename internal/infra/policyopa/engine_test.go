package policyopa

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gitproof/internal/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join("..", "..", "policy", "bundles", "reference_v0")
	engine, err := NewEngineFromBundlePath(context.Background(), path, "reference_v0")
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func baseInput() domain.PolicyInput {
	return domain.PolicyInput{
		Subject:   "octocat",
		ClaimType: domain.ClaimYearlyCommits,
		Threshold: 365,
	}
}

func TestEvaluateAllowsBaseline(t *testing.T) {
	engine := newEngine(t)

	out, err := engine.Evaluate(context.Background(), baseInput())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !out.Result.Allow {
		t.Fatalf("expected allow for baseline input, got %+v", out.Result)
	}
	if len(out.Result.Deny) != 0 {
		t.Fatalf("expected empty deny list, got %v", out.Result.Deny)
	}
	if out.BundleHash == "" || out.BundleID != "reference_v0" {
		t.Fatalf("expected bundle identity on evaluation, got %+v", out)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	engine := newEngine(t)
	input := baseInput()

	first, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate first: %v", err)
	}
	second, err := engine.Evaluate(context.Background(), input)
	if err != nil {
		t.Fatalf("evaluate second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic policy evaluation")
	}
}

func TestEvaluateDenies(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name   string
		mutate func(input *domain.PolicyInput)
		want   []string
	}{
		{
			name: "blocked subject",
			mutate: func(input *domain.PolicyInput) {
				input.Subject = "blocked-user"
			},
			want: []string{"SUBJECT_BLOCKED"},
		},
		{
			name: "threshold ceiling",
			mutate: func(input *domain.PolicyInput) {
				input.Threshold = 9000
			},
			want: []string{"THRESHOLD_CEILING"},
		},
		{
			name: "both denials ordered",
			mutate: func(input *domain.PolicyInput) {
				input.Subject = "blocked-user"
				input.Threshold = 9000
			},
			want: []string{"SUBJECT_BLOCKED", "THRESHOLD_CEILING"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			tt.mutate(&input)
			out, err := engine.Evaluate(context.Background(), input)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if out.Result.Allow {
				t.Fatalf("expected deny, got allow")
			}
			got := make([]string, 0, len(out.Result.Deny))
			for _, denial := range out.Result.Deny {
				got = append(got, denial.Code)
			}
			if !reflect.DeepEqual(tt.want, got) {
				t.Fatalf("expected deny codes %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBundleHashStable(t *testing.T) {
	path := filepath.Join("..", "..", "policy", "bundles", "reference_v0")
	first, err := computeBundleHash(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := computeBundleHash(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first != second || len(first) != 64 {
		t.Fatalf("expected stable 64-char hash, got %q and %q", first, second)
	}
}

func TestBundleHashChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	write := func(content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, "policy.rego"), []byte(content), 0o644); err != nil {
			t.Fatalf("write rego: %v", err)
		}
	}

	write(`package gitproof.policy
result := {"allow": true, "deny": []}`)
	first, err := computeBundleHash(dir)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	write(`package gitproof.policy
result := {"allow": false, "deny": []}`)
	second, err := computeBundleHash(dir)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected hash to change with bundle content")
	}
}

func TestNewEngineRejectsMissingBundle(t *testing.T) {
	if _, err := NewEngineFromBundlePath(context.Background(), filepath.Join(t.TempDir(), "missing"), "x"); err == nil {
		t.Fatalf("expected error for missing bundle path")
	}
}
