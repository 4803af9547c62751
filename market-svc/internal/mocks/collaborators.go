package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"quickbite/market-svc/internal/mpesa"
	"quickbite/pkg/events"
)

type PendingPushes struct {
	mock.Mock
}

func (m *PendingPushes) Reserve(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *PendingPushes) Attach(ctx context.Context, orderID int64, checkoutID, reference string) error {
	args := m.Called(ctx, orderID, checkoutID, reference)
	return args.Error(0)
}

func (m *PendingPushes) Release(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *PendingPushes) Pending(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *PendingPushes) Lookup(ctx context.Context, checkoutID string) (string, error) {
	args := m.Called(ctx, checkoutID)
	return args.String(0), args.Error(1)
}

func (m *PendingPushes) Clear(ctx context.Context, orderID int64, checkoutID string) error {
	args := m.Called(ctx, orderID, checkoutID)
	return args.Error(0)
}

type PaymentGateway struct {
	mock.Mock
}

func (m *PaymentGateway) StkPush(ctx context.Context, in mpesa.PushRequest) (*mpesa.PushResponse, error) {
	args := m.Called(ctx, in)
	resp, _ := args.Get(0).(*mpesa.PushResponse)
	return resp, args.Error(1)
}

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, msg events.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type BlobStore struct {
	mock.Mock
}

func (m *BlobStore) Put(ctx context.Context, prefix, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, prefix, contentType, r)
	return args.String(0), args.Error(1)
}

type QRGenerator struct {
	mock.Mock
}

func (m *QRGenerator) Generate(url string) ([]byte, error) {
	args := m.Called(url)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}
