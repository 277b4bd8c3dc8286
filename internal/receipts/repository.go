// Package receipts keeps a local ledger of the orders placed through the gateway,
// with the line prices exactly as they were when the order was created.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levelup/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrDuplicateReceipt = errors.New("receipt for this order already exists")
	ErrUnknownDriver    = errors.New("unknown receipts driver")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Receipt struct {
	OrderID        int64             `json:"orderId"`
	UserID         int64             `json:"userId"`
	Total          decimal.Decimal   `json:"total"`
	DireccionEnvio string            `json:"direccionEnvio"`
	Lines          []domain.CartLine `json:"detalles"`
	PlacedAt       time.Time         `json:"placedAt"`
}

// FromOrder freezes order into a receipt owned by userID.
func FromOrder(userID int64, order domain.Order, placedAt time.Time) Receipt {
	frozen := order.Freeze()
	return Receipt{
		OrderID:        frozen.ID,
		UserID:         userID,
		Total:          frozen.Total,
		DireccionEnvio: frozen.DireccionEnvio,
		Lines:          frozen.Detalles,
		PlacedAt:       placedAt.UTC(),
	}
}

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (c Credentials) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName)
}

type Config struct {
	Driver string
	// DSN is a postgres connection string or a sqlite file path.
	DSN               string
	MigrationsDirPath string
}

type Repository interface {
	Save(ctx context.Context, receipt Receipt) error
	Get(ctx context.Context, orderID int64) (*Receipt, error)
	ListByUser(ctx context.Context, userID int64) ([]Receipt, error)
	RunMigrations() error
	Close() error
}
