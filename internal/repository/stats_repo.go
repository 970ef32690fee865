package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"localguide/internal/domain"
)

// StatsRepository runs the read-only reporting queries behind the admin
// dashboard. It talks plain SQL through sqlx on the pool gorm already owns.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository wraps an existing pool. driverName decides the bind
// variable style ("pgx"/"postgres" get $1, anything else keeps ?).
func NewStatsRepository(sqlDB *sql.DB, driverName string) *StatsRepository {
	return &StatsRepository{db: sqlx.NewDb(sqlDB, driverName)}
}

type Stats struct {
	UsersByRole      map[domain.UserRole]int64      `json:"usersByRole"`
	ToursActive      int64                          `json:"toursActive"`
	ToursTotal       int64                          `json:"toursTotal"`
	BookingsByStatus map[domain.BookingStatus]int64 `json:"bookingsByStatus"`
	PaidRevenue      float64                        `json:"paidRevenue"`
}

type groupCount struct {
	Key   string `db:"k"`
	Count int64  `db:"n"`
}

func (r *StatsRepository) Collect(ctx context.Context) (*Stats, error) {
	st := &Stats{
		UsersByRole:      map[domain.UserRole]int64{},
		BookingsByStatus: map[domain.BookingStatus]int64{},
	}

	var roles []groupCount
	if err := r.db.SelectContext(ctx, &roles, `SELECT role AS k, COUNT(*) AS n FROM users GROUP BY role`); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	for _, g := range roles {
		st.UsersByRole[domain.UserRole(g.Key)] = g.Count
	}

	var statuses []groupCount
	if err := r.db.SelectContext(ctx, &statuses, `SELECT status AS k, COUNT(*) AS n FROM bookings GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	for _, g := range statuses {
		st.BookingsByStatus[domain.BookingStatus(g.Key)] = g.Count
	}

	if err := r.db.GetContext(ctx, &st.ToursTotal, `SELECT COUNT(*) FROM tours`); err != nil {
		return nil, fmt.Errorf("count tours: %w", err)
	}
	q := r.db.Rebind(`SELECT COUNT(*) FROM tours WHERE is_active = ?`)
	if err := r.db.GetContext(ctx, &st.ToursActive, q, true); err != nil {
		return nil, fmt.Errorf("count active tours: %w", err)
	}

	q = r.db.Rebind(`SELECT COALESCE(SUM(total_amount), 0) FROM bookings WHERE payment_status = ?`)
	if err := r.db.GetContext(ctx, &st.PaidRevenue, q, string(domain.PaymentPaid)); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	return st, nil
}
