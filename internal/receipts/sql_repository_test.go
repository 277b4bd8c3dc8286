package receipts

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/levelup/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := NewRepository(Config{
		Driver:            DriverSQLite,
		DSN:               filepath.Join(t.TempDir(), "receipts.db"),
		MigrationsDirPath: "migrations",
	})
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestReceipt(orderID int64, placedAt time.Time) Receipt {
	return FromOrder(7, domain.Order{
		ID:             orderID,
		Total:          decimal.RequireFromString("2000"),
		DireccionEnvio: "Av. Matta 100",
		Detalles: []domain.CartLine{
			{ID: 1, Producto: domain.ProductRef{ID: 10, Nombre: "Catan"}, PrecioUnitario: decimal.NewFromInt(1000), Cantidad: 2},
		},
	}, placedAt)
}

func TestSQLite_SaveAndGet(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	placed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, newTestReceipt(99, placed)))

	got, err := repo.Get(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "2000", got.Total.String())
	assert.Equal(t, "Av. Matta 100", got.DireccionEnvio)
	assert.True(t, placed.Equal(got.PlacedAt))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Catan", got.Lines[0].Producto.Nombre)
	assert.True(t, got.Lines[0].PrecioUnitario.Equal(decimal.NewFromInt(1000)))
}

func TestSQLite_Duplicate(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newTestReceipt(99, time.Now())))
	err := repo.Save(ctx, newTestReceipt(99, time.Now()))

	assert.ErrorIs(t, err, ErrDuplicateReceipt)
}

func TestSQLite_NotFound(t *testing.T) {
	repo := setupSQLite(t)

	_, err := repo.Get(context.Background(), 404)

	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestSQLite_ListByUserNewestFirst(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, newTestReceipt(1, base)))
	require.NoError(t, repo.Save(ctx, newTestReceipt(2, base.Add(time.Hour))))
	other := newTestReceipt(3, base)
	other.UserID = 8
	require.NoError(t, repo.Save(ctx, other))

	list, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].OrderID)
	assert.Equal(t, int64(1), list[1].OrderID)

	empty, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNewRepository_UnknownDriver(t *testing.T) {
	_, err := NewRepository(Config{Driver: "oracle"})

	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestPostgres_SaveDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWithDB(db, DriverPostgres)
	placed := time.UnixMilli(1_700_000_000_000)

	insert := regexp.QuoteMeta(`INSERT INTO receipts (order_id, user_id, total, direccion_envio, lines, placed_at)`)
	mock.ExpectExec(insert).
		WithArgs(int64(99), int64(7), "2000", "Av. Matta 100", sqlmock.AnyArg(), placed.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).
		WithArgs(int64(99), int64(7), "2000", "Av. Matta 100", sqlmock.AnyArg(), placed.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Save(context.Background(), newTestReceipt(99, placed)))
	assert.ErrorIs(t, repo.Save(context.Background(), newTestReceipt(99, placed)), ErrDuplicateReceipt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWithDB(db, DriverPostgres)

	rows := sqlmock.NewRows([]string{"order_id", "user_id", "total", "direccion_envio", "lines", "placed_at"}).
		AddRow(int64(99), int64(7), "1500.50", "Av. Matta 100", `[{"id":1,"producto":{"id":10,"nombre":"Catan"},"precioUnitario":"1500.5","cantidad":1}]`, int64(1_700_000_000_000))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM receipts WHERE order_id = $1`)).
		WithArgs(int64(99)).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, "1500.5", got.Total.String())
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 1, got.Lines[0].Cantidad)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewWithDB(db, DriverPostgres)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM receipts WHERE order_id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

	_, err = repo.Get(context.Background(), 5)
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}
