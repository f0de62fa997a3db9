// Package events publishes transaction lifecycle events to downstream
// consumers over a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/finacore/bankledger/internal/core/domain"
	portssvc "github.com/finacore/bankledger/internal/core/ports/services"
	"github.com/finacore/bankledger/internal/middleware"
	"github.com/redis/go-redis/v9"
)

const (
	transactionsStream = "bankledger:transactions"
	eventTypePosted    = "transaction.posted"
)

type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type transactionPostedPayload struct {
	TransactionID        string  `json:"transactionId"`
	Type                 string  `json:"type"`
	SourceAccountID      *string `json:"sourceAccountId,omitempty"`
	DestinationAccountID *string `json:"destinationAccountId,omitempty"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	CompletedAt          string  `json:"completedAt"`
}

// RedisStreamPublisher appends posted-transaction events to a Redis stream.
// Publication is best-effort; failures are logged and never surfaced to the
// caller, since the transaction has already committed.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: transactionsStream}
}

var _ portssvc.TransactionEventPublisher = (*RedisStreamPublisher)(nil)

func (p *RedisStreamPublisher) PublishPosted(ctx context.Context, txn domain.Transaction) {
	logger := middleware.GetLoggerFromCtx(ctx)

	completedAt := ""
	if txn.CompletedAt != nil {
		completedAt = txn.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	payload, err := json.Marshal(transactionPostedPayload{
		TransactionID:        txn.TransactionID,
		Type:                 string(txn.Type),
		SourceAccountID:      txn.SourceAccountID,
		DestinationAccountID: txn.DestinationAccountID,
		Amount:               txn.Amount.String(),
		Currency:             txn.Currency,
		CompletedAt:          completedAt,
	})
	if err != nil {
		logger.Error("Failed to marshal transaction event payload", slog.String("transactionID", txn.TransactionID), slog.Any("error", err))
		return
	}
	envelope, err := json.Marshal(eventEnvelope{Type: eventTypePosted, Payload: payload})
	if err != nil {
		logger.Error("Failed to marshal transaction event envelope", slog.String("transactionID", txn.TransactionID), slog.Any("error", err))
		return
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"event": string(envelope)},
	}).Err()
	if err != nil {
		logger.Error("Failed to publish transaction event", slog.String("transactionID", txn.TransactionID), slog.Any("error", err))
		return
	}
	logger.Debug("Published transaction event", slog.String("transactionID", txn.TransactionID), slog.String("eventType", eventTypePosted))
}

// NopPublisher discards events. Used when no event stream is configured and
// in tests that do not assert on publication.
type NopPublisher struct{}

var _ portssvc.TransactionEventPublisher = NopPublisher{}

func (NopPublisher) PublishPosted(context.Context, domain.Transaction) {}
