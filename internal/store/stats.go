package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

// HomeStats gathers the dashboard figures for today. The queries are
// independent and run concurrently on separate pool connections.
func (s *Postgres) HomeStats(ctx context.Context, today domain.Day, loc *time.Location) (domain.HomeStats, error) {
	out := domain.HomeStats{
		Day:              today,
		PatientsByStatus: make(map[domain.Status]int, len(domain.Statuses)),
	}
	from := today.Start(loc)
	to := today.AddDays(1).Start(loc)
	weekStart := today.AddDays(-6)

	var (
		revenue decimal.Decimal
		byDay   = map[domain.Day]int{}
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM attendances WHERE day = $1`, today.Time(),
		).Scan(&out.TodayAttendance)
		return mapErr("count today attendance", err)
	})

	g.Go(func() error {
		err := s.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE created_at >= $1 AND created_at < $2`,
			from, to,
		).Scan(&revenue)
		return mapErr("sum today revenue", err)
	})

	statusCounts := make(map[domain.Status]int, len(domain.Statuses))
	g.Go(func() error {
		rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM patients GROUP BY status`)
		if err != nil {
			return mapErr("count patients by status", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				st domain.Status
				n  int
			)
			if err := rows.Scan(&st, &n); err != nil {
				return mapErr("scan status count", err)
			}
			statusCounts[st] = n
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := s.pool.Query(ctx,
			`SELECT day, COUNT(*) FROM attendances WHERE day BETWEEN $1 AND $2 GROUP BY day`,
			weekStart.Time(), today.Time(),
		)
		if err != nil {
			return mapErr("count weekly attendance", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				day time.Time
				n   int
			)
			if err := rows.Scan(&day, &n); err != nil {
				return mapErr("scan weekly attendance", err)
			}
			byDay[domain.DayOf(day)] = n
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return domain.HomeStats{}, err
	}

	out.TodayRevenue = revenue
	for _, st := range domain.Statuses {
		out.PatientsByStatus[st] = statusCounts[st]
		out.TotalPatients += statusCounts[st]
	}
	for i := 0; i < 7; i++ {
		d := weekStart.AddDays(i)
		out.LastSevenDays = append(out.LastSevenDays, domain.DayCount{Day: d, Count: byDay[d]})
	}
	return out, nil
}
