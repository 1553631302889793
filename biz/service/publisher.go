package service

import (
	"context"

	"portfolio-ledger/biz/model"
)

// EventPublisher receives ledger events after their transaction commits. Implementations must not block.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.LedgerEvent)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.LedgerEvent) {}
