package store

import (
	"context"
	"time"

	"po-manager/internal/models"

	"github.com/shopspring/decimal"
)

// CreateAuditLog stores an audit entry; an entry for an already seen event is ignored
func (q *queries) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity, entity_id, event_id, action_time)
		SELECT u.id, $2::TEXT, $3::VARCHAR, $4::BIGINT, $5::VARCHAR, $6::TIMESTAMPTZ
		FROM (SELECT $1::BIGINT AS id) AS actor
		LEFT JOIN users u ON u.id = actor.id
		ON CONFLICT (event_id) DO NOTHING`,
		entry.UserID, entry.Action, entry.Entity, entry.EntityID, entry.EventID, entry.ActionTime)
	return err
}

// ListAuditLogs retrieves the most recent audit entries
func (q *queries) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	logs := []models.AuditLog{}
	err := sqlxSelect(ctx, q, &logs,
		"SELECT * FROM audit_logs ORDER BY action_time DESC, id DESC LIMIT $1", limit)
	return logs, err
}

type dashboardTotals struct {
	TotalSuppliers        int             `db:"total_suppliers"`
	TotalPurchaseOrders   int             `db:"total_purchase_orders"`
	PendingPurchaseOrders int             `db:"pending_purchase_orders"`
	TotalSpent            decimal.Decimal `db:"total_spent"`
	Committed             decimal.Decimal `db:"committed"`
}

// DashboardStats aggregates purchasing figures. The second return value is the
// total of all non-cancelled orders.
func (q *queries) DashboardStats(ctx context.Context, since time.Time) (*models.DashboardStats, decimal.Decimal, error) {
	var totals dashboardTotals
	err := sqlxGet(ctx, q, &totals, `
		SELECT
			(SELECT COUNT(*) FROM suppliers) AS total_suppliers,
			(SELECT COUNT(*) FROM purchase_orders) AS total_purchase_orders,
			(SELECT COUNT(*) FROM purchase_orders WHERE status = 'pending') AS pending_purchase_orders,
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'paid') AS total_spent,
			(SELECT COALESCE(SUM(total_amount), 0) FROM purchase_orders WHERE status <> 'cancelled') AS committed`)
	if err != nil {
		return nil, decimal.Zero, err
	}

	monthly := []models.MonthlySpending{}
	err = sqlxSelect(ctx, q, &monthly, `
		SELECT to_char(date_trunc('month', payment_date), 'YYYY-MM') AS month, SUM(amount) AS amount
		FROM payments
		WHERE status = 'paid' AND payment_date >= $1
		GROUP BY 1
		ORDER BY 1`, since)
	if err != nil {
		return nil, decimal.Zero, err
	}

	top := []models.TopSupplier{}
	err = sqlxSelect(ctx, q, &top, `
		SELECT s.name, SUM(po.total_amount) AS total_amount, COUNT(*) AS order_count
		FROM purchase_orders po
		JOIN suppliers s ON s.id = po.supplier_id
		WHERE po.status <> 'cancelled'
		GROUP BY s.id, s.name
		ORDER BY total_amount DESC
		LIMIT 5`)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return &models.DashboardStats{
		TotalSuppliers:        totals.TotalSuppliers,
		TotalPurchaseOrders:   totals.TotalPurchaseOrders,
		PendingPurchaseOrders: totals.PendingPurchaseOrders,
		TotalSpent:            totals.TotalSpent,
		MonthlySpending:       monthly,
		TopSuppliers:          top,
	}, totals.Committed, nil
}
