package receipts

import (
	"context"
	"errors"
	"time"

	"github.com/levelup/storefront/internal/domain"
	"go.uber.org/zap"
)

// Recorder stores a receipt for every placed order. A repeated order is not an
// error.
type Recorder struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(repo Repository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

func (r *Recorder) OrderPlaced(ctx context.Context, user domain.Identity, order domain.Order) error {
	err := r.repo.Save(ctx, FromOrder(user.ID, order, r.now()))
	if errors.Is(err, ErrDuplicateReceipt) {
		r.logger.Debug("receipt already stored", zap.Int64("order_id", order.ID))
		return nil
	}
	return err
}
