package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"smsink/internal/metrics"
	"smsink/internal/store"
)

// Outcome is the terminal state of one ingestion attempt. Every request ends
// in exactly one of these.
type Outcome int

const (
	// OutcomeCreated: valid signature, valid payload, fresh insert.
	OutcomeCreated Outcome = iota
	// OutcomeDuplicate: valid signature, valid payload, message_id already
	// stored. Callers see the same response as OutcomeCreated.
	OutcomeDuplicate
	// OutcomeUnauthorized: missing secret or failed verification. The two are
	// indistinguishable to the caller.
	OutcomeUnauthorized
	// OutcomeBadRequest: signature valid but the body failed validation;
	// Result.Reason carries the detail.
	OutcomeBadRequest
)

// Result is what the HTTP layer maps to a status code and response body.
type Result struct {
	Outcome   Outcome
	Reason    string
	MessageID string
}

// MessageStore is the slice of the store the ingestion path needs.
type MessageStore interface {
	Insert(ctx context.Context, msg *store.Message) (store.Outcome, error)
}

// Ingestor composes verification, validation and storage into the single
// operation the HTTP layer calls.
type Ingestor struct {
	secret  string
	store   MessageStore
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewIngestor(secret string, st MessageStore, collector *metrics.Collector, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		secret:  secret,
		store:   st,
		metrics: collector,
		logger:  logger,
	}
}

// Ingest runs one webhook delivery through verify -> validate -> insert.
// Verification and validation failures are terminal and reported through
// Result; only storage failures return a non-nil error.
func (i *Ingestor) Ingest(ctx context.Context, body []byte, signature string) (Result, error) {
	// A missing secret is a deployment problem, not the sender's. It is
	// counted as a validation error for observability but answers 401 like
	// any failed verification.
	if i.secret == "" {
		i.metrics.RecordWebhookResult(metrics.ResultValidationError)
		i.logger.Warn("webhook rejected: secret not configured",
			"request_id", middleware.GetReqID(ctx),
		)
		return Result{Outcome: OutcomeUnauthorized}, nil
	}

	if !VerifySignature(body, signature, i.secret) {
		i.metrics.RecordWebhookResult(metrics.ResultInvalidSignature)
		i.logger.Warn("webhook rejected: signature verification failed",
			"request_id", middleware.GetReqID(ctx),
		)
		return Result{Outcome: OutcomeUnauthorized}, nil
	}

	payload, err := ParsePayload(body)
	if err != nil {
		i.metrics.RecordWebhookResult(metrics.ResultValidationError)
		reason := validationReason(err)
		i.logger.Warn("webhook rejected: invalid payload",
			"request_id", middleware.GetReqID(ctx),
			"reason", reason,
		)
		return Result{Outcome: OutcomeBadRequest, Reason: reason}, nil
	}

	msg := &store.Message{
		MessageID:  payload.MessageID,
		FromMSISDN: payload.FromMSISDN,
		ToMSISDN:   payload.ToMSISDN,
		TS:         payload.TS,
		Text:       payload.Text,
	}

	outcome, err := i.store.Insert(ctx, msg)
	if err != nil {
		return Result{}, fmt.Errorf("storing message: %w", err)
	}

	result := metrics.ResultCreated
	resultOutcome := OutcomeCreated
	if outcome == store.OutcomeDuplicate {
		result = metrics.ResultDuplicate
		resultOutcome = OutcomeDuplicate
	}

	i.metrics.RecordWebhookResult(result)
	i.logger.Info("webhook_event",
		"request_id", middleware.GetReqID(ctx),
		"message_id", payload.MessageID,
		"dup", outcome == store.OutcomeDuplicate,
		"result", result,
	)

	return Result{Outcome: resultOutcome, MessageID: payload.MessageID}, nil
}

func validationReason(err error) string {
	if errors.Is(err, ErrMalformedJSON) {
		return "invalid JSON"
	}
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return "validation error: " + schemaErr.Reason
	}
	return "validation error"
}
