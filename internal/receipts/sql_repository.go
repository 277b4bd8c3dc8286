package receipts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const migrationsTable = "receipts_schema_migrations"

type SQLRepository struct {
	db            *sql.DB
	driver        string
	migrationsDir string
}

func NewRepository(cfg Config) (*SQLRepository, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == DriverPostgres {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	} else {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	repo := NewWithDB(db, cfg.Driver)
	repo.migrationsDir = cfg.MigrationsDirPath
	return repo, nil
}

// NewWithDB wraps an already opened database.
func NewWithDB(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver}
}

// RunMigrations applies the migrations under <MigrationsDirPath>/<driver>.
func (r *SQLRepository) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{MigrationsTable: migrationsTable})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{MigrationsTable: migrationsTable})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, r.driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", filepath.Join(r.migrationsDir, r.driver)),
		r.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLRepository) Save(ctx context.Context, receipt Receipt) error {
	linesJSON, err := json.Marshal(receipt.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt lines: %w", err)
	}

	query := `INSERT INTO receipts (order_id, user_id, total, direccion_envio, lines, placed_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (order_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		receipt.OrderID,
		receipt.UserID,
		receipt.Total.String(),
		receipt.DireccionEnvio,
		string(linesJSON),
		receipt.PlacedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	if n == 0 {
		return ErrDuplicateReceipt
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, orderID int64) (*Receipt, error) {
	query := `SELECT order_id, user_id, total, direccion_envio, lines, placed_at
	          FROM receipts WHERE order_id = $1`

	receipt, err := scanReceipt(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query receipt by order id: %w", err)
	}
	return receipt, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]Receipt, error) {
	query := `SELECT order_id, user_id, total, direccion_envio, lines, placed_at
	          FROM receipts WHERE user_id = $1 ORDER BY placed_at DESC, order_id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query receipts by user id: %w", err)
	}
	defer rows.Close()

	receipts := []Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt row: %w", err)
		}
		receipts = append(receipts, *receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return receipts, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (*Receipt, error) {
	var (
		receipt   Receipt
		total     string
		linesJSON string
		placedAt  int64
	)
	if err := row.Scan(
		&receipt.OrderID,
		&receipt.UserID,
		&total,
		&receipt.DireccionEnvio,
		&linesJSON,
		&placedAt,
	); err != nil {
		return nil, err
	}

	if err := receipt.Total.UnmarshalText([]byte(total)); err != nil {
		return nil, fmt.Errorf("parse receipt total: %w", err)
	}
	if err := json.Unmarshal([]byte(linesJSON), &receipt.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal receipt lines: %w", err)
	}
	receipt.PlacedAt = time.UnixMilli(placedAt).UTC()
	return &receipt, nil
}
