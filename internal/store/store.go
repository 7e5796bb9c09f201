package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"po-manager/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

// Querier is the set of queries available both on the pool and inside a transaction
type Querier interface {
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	LockSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error
	CountOrdersBySupplier(ctx context.Context, supplierID int64) (int, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	LockUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	CountOrdersByUser(ctx context.Context, userID int64) (int, error)

	LockOrderSequence(ctx context.Context, prefix string) error
	LastOrderNumber(ctx context.Context, prefix string) (string, error)
	CreateOrder(ctx context.Context, order *models.PurchaseOrder) error
	CreateLineItem(ctx context.Context, item *models.LineItem) error
	GetOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	LockOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	ListOrders(ctx context.Context) ([]models.PurchaseOrder, error)
	GetLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error)
	CountPayments(ctx context.Context, orderID int64) (int, error)
	SumPaidPayments(ctx context.Context, orderID, excludePaymentID int64) (decimal.Decimal, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error

	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)

	DashboardStats(ctx context.Context, since time.Time) (*models.DashboardStats, decimal.Decimal, error)
}

// queries runs statements against either *sqlx.DB or *sqlx.Tx
type queries struct {
	ext sqlx.ExtContext
}

type Store struct {
	*queries
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{queries: &queries{ext: db}, db: db}, nil
}

// Migrate creates missing tables and indexes
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside a read-committed transaction. The transaction is
// rolled back when fn returns an error or ctx is cancelled.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// uniqueFields maps unique constraint names to the field they protect
var uniqueFields = map[string]string{
	"suppliers_email_key":              "email",
	"users_username_key":               "username",
	"users_email_key":                  "email",
	"purchase_orders_order_number_key": "order_number",
}

// classify turns a unique violation into a models.DuplicateError
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		field, ok := uniqueFields[pqErr.Constraint]
		if !ok {
			field = pqErr.Constraint
		}
		return &models.DuplicateError{Field: field}
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func sqlxGet(ctx context.Context, q *queries, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q.ext, dest, query, args...)
}

func sqlxSelect(ctx context.Context, q *queries, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q.ext, dest, query, args...)
}
