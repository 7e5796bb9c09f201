package service

import (
	"context"
	"time"

	"po-manager/internal/models"
	"po-manager/internal/util"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ReportService serves read-only summaries
type ReportService struct {
	repo Repository
	now  func() time.Time
}

// NewReportService creates a new report service
func NewReportService(repo Repository) *ReportService {
	return &ReportService{repo: repo, now: time.Now}
}

// GetDashboardStats summarises suppliers, orders and spending for the current year
func (s *ReportService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.GetDashboardStats")
	defer span.End()

	now := s.now().UTC()
	startOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	stats, committed, err := s.repo.DashboardStats(ctx, startOfYear)
	if err != nil {
		return nil, err
	}
	stats.PendingPayments = committed.Sub(stats.TotalSpent)
	return stats, nil
}

// ListAuditLogs returns the newest audit entries; limit is clamped to a sane range
func (s *ReportService) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	return s.repo.ListAuditLogs(ctx, limit)
}
