package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Refresher reloads the carts of every client bound to a user and reports how
// many it touched.
type Refresher interface {
	RefreshUser(ctx context.Context, userID int64) int
}

type invalidation struct {
	UserID json.Number `json:"user_id"`
}

// Poller consumes cart invalidations, emitted by the backend when a cart changes
// outside this gateway.
type Poller struct {
	reader  MessageReader
	target  Refresher
	logger  *zap.Logger
	backoff time.Duration
}

func NewPoller(target Refresher, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    InvalidationsTopic,
		GroupID:  ConsumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(reader, target, logger)
}

func NewPollerWithReader(reader MessageReader, target Refresher, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{reader: reader, target: target, logger: logger, backoff: time.Second}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.readAndRefresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("error reading message", zap.Error(err))
			select {
			case <-time.After(p.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", zap.Error(err))
	}
}

// readAndRefresh only returns reader errors; a bad message is logged and skipped.
func (p *Poller) readAndRefresh(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	var payload invalidation
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		p.logger.Warn("error parsing message", zap.Error(err), zap.Int64("offset", m.Offset))
		return nil
	}
	userID, err := payload.UserID.Int64()
	if err != nil || userID <= 0 {
		p.logger.Warn("missing or invalid user_id", zap.Int64("offset", m.Offset))
		return nil
	}

	n := p.target.RefreshUser(ctx, userID)
	p.logger.Debug("cart invalidated", zap.Int64("user_id", userID), zap.Int("workspaces", n))
	return nil
}
