package mocks

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"

	"quickbite/agg-svc/internal/domain"
)

type StoreInterface struct {
	mock.Mock
}

func (m *StoreInterface) Apply(ctx context.Context, incs []domain.Increment) error {
	args := m.Called(ctx, incs)
	return args.Error(0)
}

// NewStoreInterface registers AssertExpectations on cleanup.
func NewStoreInterface(t interface {
	mock.TestingT
	Cleanup(func())
}) *StoreInterface {
	m := &StoreInterface{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MessageReader replays queued messages, then returns Err (or blocks until
// ctx is done when Err is nil).
type MessageReader struct {
	Messages []kafka.Message
	Err      error
}

func (r *MessageReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.Messages) > 0 {
		msg := r.Messages[0]
		r.Messages = r.Messages[1:]
		return msg, nil
	}
	if r.Err != nil {
		return kafka.Message{}, r.Err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}
