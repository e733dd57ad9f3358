package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"smsink/internal/metrics"
	"smsink/internal/store"
)

// mockStore is a mock implementation of MessageStore for testing.
type mockStore struct {
	insertFn func(ctx context.Context, msg *store.Message) (store.Outcome, error)
	inserted []*store.Message
}

func (m *mockStore) Insert(ctx context.Context, msg *store.Message) (store.Outcome, error) {
	m.inserted = append(m.inserted, msg)
	if m.insertFn != nil {
		return m.insertFn(ctx, msg)
	}
	return store.OutcomeCreated, nil
}

func newTestIngestor(secret string, ms *mockStore) *Ingestor {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewIngestor(secret, ms, metrics.NewCollector(), logger)
}

func signedBody(t *testing.T, secret string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"message_id":  "msg-001",
		"from_msisdn": "+1111111111",
		"to_msisdn":   "+2222222222",
		"ts":          "2024-01-01T10:00:00Z",
		"text":        "hello",
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body, ComputeSignature(body, secret)
}

func TestIngestCreated(t *testing.T) {
	secret := "test-secret"
	ms := &mockStore{}
	ing := newTestIngestor(secret, ms)

	body, sig := signedBody(t, secret)
	result, err := ing.Ingest(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Errorf("outcome = %v, want OutcomeCreated", result.Outcome)
	}
	if result.MessageID != "msg-001" {
		t.Errorf("message_id = %q, want msg-001", result.MessageID)
	}
	if len(ms.inserted) != 1 {
		t.Fatalf("store should see exactly one insert, got %d", len(ms.inserted))
	}
	if ms.inserted[0].FromMSISDN != "+1111111111" {
		t.Errorf("stored from = %q", ms.inserted[0].FromMSISDN)
	}
}

func TestIngestDuplicate(t *testing.T) {
	secret := "test-secret"
	ms := &mockStore{
		insertFn: func(ctx context.Context, msg *store.Message) (store.Outcome, error) {
			return store.OutcomeDuplicate, nil
		},
	}
	ing := newTestIngestor(secret, ms)

	body, sig := signedBody(t, secret)
	result, err := ing.Ingest(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Outcome != OutcomeDuplicate {
		t.Errorf("outcome = %v, want OutcomeDuplicate", result.Outcome)
	}
}

func TestIngestMissingSecret(t *testing.T) {
	ms := &mockStore{}
	ing := newTestIngestor("", ms)

	// Even a perfectly valid, correctly signed payload is rejected when no
	// secret is configured.
	body, sig := signedBody(t, "some-secret")
	result, err := ing.Ingest(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Outcome != OutcomeUnauthorized {
		t.Errorf("outcome = %v, want OutcomeUnauthorized", result.Outcome)
	}
	if len(ms.inserted) != 0 {
		t.Error("nothing may reach the store without verification")
	}
}

func TestIngestBadSignature(t *testing.T) {
	secret := "test-secret"
	ms := &mockStore{}
	ing := newTestIngestor(secret, ms)

	body, _ := signedBody(t, secret)
	for _, sig := range []string{"", "deadbeef", ComputeSignature(body, "other-secret")} {
		result, err := ing.Ingest(context.Background(), body, sig)
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		if result.Outcome != OutcomeUnauthorized {
			t.Errorf("sig %q: outcome = %v, want OutcomeUnauthorized", sig, result.Outcome)
		}
	}
	if len(ms.inserted) != 0 {
		t.Error("nothing may reach the store without verification")
	}
}

func TestIngestInvalidPayload(t *testing.T) {
	secret := "test-secret"
	ms := &mockStore{}
	ing := newTestIngestor(secret, ms)

	body := []byte(`{"message_id":"msg-001","from_msisdn":"abc","to_msisdn":"+2222222222","ts":"2024-01-01T10:00:00Z"}`)
	sig := ComputeSignature(body, secret)

	result, err := ing.Ingest(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Outcome != OutcomeBadRequest {
		t.Errorf("outcome = %v, want OutcomeBadRequest", result.Outcome)
	}
	if result.Reason == "" {
		t.Error("bad request must carry a reason")
	}
	if len(ms.inserted) != 0 {
		t.Error("invalid payload never reaches the store")
	}
}

func TestIngestMalformedJSON(t *testing.T) {
	secret := "test-secret"
	ing := newTestIngestor(secret, &mockStore{})

	body := []byte(`{not json`)
	sig := ComputeSignature(body, secret)

	result, err := ing.Ingest(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Outcome != OutcomeBadRequest {
		t.Errorf("outcome = %v, want OutcomeBadRequest", result.Outcome)
	}
	if result.Reason != "invalid JSON" {
		t.Errorf("reason = %q, want invalid JSON", result.Reason)
	}
}

func TestIngestStorageError(t *testing.T) {
	secret := "test-secret"
	ms := &mockStore{
		insertFn: func(ctx context.Context, msg *store.Message) (store.Outcome, error) {
			return "", fmt.Errorf("disk on fire")
		},
	}
	ing := newTestIngestor(secret, ms)

	body, sig := signedBody(t, secret)
	if _, err := ing.Ingest(context.Background(), body, sig); err == nil {
		t.Fatal("storage errors must propagate, not be swallowed")
	}
}
