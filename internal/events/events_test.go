package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/levelup/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	err      error
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// fakeReader hands out queued results and then blocks until the context ends.
type fakeReader struct {
	results chan readResult
}

type readResult struct {
	msg kafka.Message
	err error
}

func newFakeReader(results ...readResult) *fakeReader {
	ch := make(chan readResult, len(results))
	for _, r := range results {
		ch <- r
	}
	return &fakeReader{results: ch}
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case res := <-r.results:
		return res.msg, res.err
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

type recordingRefresher struct {
	mu    sync.Mutex
	users []int64
}

func (r *recordingRefresher) RefreshUser(_ context.Context, userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return 1
}

func (r *recordingRefresher) seen() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.users...)
}

func TestPublisher_OrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, nil)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	order := domain.Order{
		ID:             99,
		Total:          decimal.NewFromInt(2000),
		DireccionEnvio: "Av. Matta 100",
		Detalles:       []domain.CartLine{{ID: 1, PrecioUnitario: decimal.NewFromInt(1000), Cantidad: 2}},
	}
	require.NoError(t, p.OrderPlaced(context.Background(), domain.Identity{ID: 7}, order))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "7", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var event OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, int64(99), event.OrderID)
	assert.Equal(t, int64(7), event.UserID)
	assert.Equal(t, "2000", event.Total)
	assert.True(t, at.Equal(event.PlacedAt))
	assert.Len(t, event.Items, 1)
	assert.NotEqual(t, uuid.Nil, event.EventID)
}

func TestPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisherWithWriter(&fakeWriter{err: boom}, nil)

	err := p.OrderPlaced(context.Background(), domain.Identity{ID: 7}, domain.Order{ID: 1})

	assert.ErrorIs(t, err, boom)
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	NewPublisherWithWriter(w, nil).Close()

	assert.True(t, w.closed)
}

func TestPoller_RefreshesUsers(t *testing.T) {
	reader := newFakeReader(
		readResult{msg: kafka.Message{Value: []byte(`{"user_id": 7}`)}},
		readResult{msg: kafka.Message{Value: []byte(`not json`)}},
		readResult{msg: kafka.Message{Value: []byte(`{"user_id": "8"}`)}},
		readResult{msg: kafka.Message{Value: []byte(`{"other": 1}`)}},
		readResult{msg: kafka.Message{Value: []byte(`{"user_id": 9}`)}},
	)
	target := &recordingRefresher{}
	p := NewPollerWithReader(reader, target, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(target.seen()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{7, 8, 9}, target.seen())

	cancel()
	<-done
}

func TestPoller_ReaderErrorBacksOff(t *testing.T) {
	reader := newFakeReader(
		readResult{err: errors.New("rebalance")},
		readResult{msg: kafka.Message{Value: []byte(`{"user_id": 7}`)}},
	)
	target := &recordingRefresher{}
	p := NewPollerWithReader(reader, target, nil)
	p.backoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool {
		return len(target.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
