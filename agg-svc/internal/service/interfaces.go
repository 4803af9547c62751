package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"quickbite/agg-svc/internal/domain"
	"quickbite/agg-svc/internal/storage"
	"quickbite/pkg/events"
)

type StoreInterface interface {
	Apply(ctx context.Context, incs []domain.Increment) error
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ConsumerInterface interface {
	Start(ctx context.Context) error
	Process(ctx context.Context, msg events.Message) error
}

var (
	_ StoreInterface    = (*storage.Store)(nil)
	_ MessageReader     = (*kafka.Reader)(nil)
	_ ConsumerInterface = (*Consumer)(nil)
)
