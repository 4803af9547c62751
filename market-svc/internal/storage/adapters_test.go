package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickbite/pkg/apperr"
	"quickbite/pkg/events"
)

func newPending(t *testing.T) (*PendingPushes, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPendingPushes(client, 2*time.Minute), mr
}

func TestPendingPushes_Lifecycle(t *testing.T) {
	pending, mr := newPending(t)
	ctx := context.Background()

	ok, err := pending.Reserve(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pending.Reserve(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok, "second push for the same order must be refused")

	held, err := pending.Pending(ctx, 7)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, pending.Attach(ctx, 7, "ws_CO_1", "ORDER-7"))
	assert.Equal(t, 2*time.Minute, mr.TTL("mpesa:pending:checkout:ws_CO_1"))

	ref, err := pending.Lookup(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, "ORDER-7", ref)

	require.NoError(t, pending.Clear(ctx, 7, "ws_CO_1"))
	ref, err = pending.Lookup(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Empty(t, ref)
	held, err = pending.Pending(ctx, 7)
	require.NoError(t, err)
	assert.False(t, held)

	ok, err = pending.Reserve(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPendingPushes_ExpiresAndReleases(t *testing.T) {
	pending, mr := newPending(t)
	ctx := context.Background()

	ok, err := pending.Reserve(ctx, 8)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(3 * time.Minute)
	ok, err = pending.Reserve(ctx, 8)
	require.NoError(t, err)
	assert.True(t, ok, "expired reservation frees the slot")

	require.NoError(t, pending.Release(ctx, 8))
	assert.False(t, mr.Exists("mpesa:pending:order:8"))
}

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	pub := NewKafkaPublisher(w)

	err := pub.Publish(context.Background(), events.Message{
		Type:         events.TypePaymentSettled,
		OrderID:      7,
		RestaurantID: 10,
		Amount:       decimal.RequireFromString("1300.00"),
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "10", string(w.msgs[0].Key))

	var got events.Message
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, events.TypePaymentSettled, got.Type)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1300)))

	w.err = assert.AnError
	assert.ErrorIs(t, pub.Publish(context.Background(), events.Message{Type: events.TypeOrderPlaced}), assert.AnError)
}

func TestDiskBlobs_Put(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int
		wantKind    apperr.Kind
		wantExt     string
	}{
		{name: "png", contentType: "image/png", size: 32, wantExt: ".png"},
		{name: "jpeg", contentType: "image/jpeg", size: 32, wantExt: ".jpg"},
		{name: "pdf rejected", contentType: "application/pdf", size: 32, wantKind: apperr.KindValidation},
		{name: "too large", contentType: "image/png", size: MaxUploadSize + 1, wantKind: apperr.KindValidation},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			dir := t.TempDir()
			blobs := NewDiskBlobs(dir, "/uploads/")

			url, err := blobs.Put(context.Background(), "item-1", testCase.contentType, bytes.NewReader(make([]byte, testCase.size)))

			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
				entries, _ := os.ReadDir(dir)
				assert.Empty(t, entries)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(url, "/uploads/item-1-"))
			assert.True(t, strings.HasSuffix(url, testCase.wantExt))
			info, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
			require.NoError(t, err)
			assert.Equal(t, int64(testCase.size), info.Size())
		})
	}
}
