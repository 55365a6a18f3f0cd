package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/vaultheim/crucible/internal/domain/match"
	"github.com/vaultheim/crucible/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_DomainRuleViolations(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{
			name:       "selection rule",
			err:        fmt.Errorf("validate deck selection: %w", match.ErrSharedHouse),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidSelection",
		},
		{
			name:       "ledger rule",
			err:        fmt.Errorf("validate game: %w", match.ErrGameOutOfSequence),
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidGameReport",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("%w: match=abc", usecase.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantReason: "notFound",
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantReason: "internalError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(context.Background(), tt.err)
			if mapped.HTTPStatus != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, mapped.HTTPStatus)
			}
			if mapped.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, mapped.Reason)
			}
		})
	}
}
