package report

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// shortageThreshold marks a day as short-staffed when availability drops to
// this fraction of the workforce or below.
const shortageThreshold = 0.5

const maxShortages = 5

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Overview(ctx context.Context, orgID string) (Overview, error) {
	var o Overview
	today := time.Now().UTC().Truncate(24 * time.Hour)

	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM employees WHERE organization_id = $1),
      (SELECT COUNT(1) FROM requests WHERE organization_id = $1 AND status = 'pending'),
      (SELECT COUNT(DISTINCT employee_id) FROM requests
        WHERE organization_id = $1 AND status = 'approved'
          AND start_date <= $2 AND COALESCE(end_date, start_date) >= $2)
  `, orgID, today).Scan(&o.TotalEmployees, &o.PendingRequests, &o.OnLeaveToday)
	if err != nil {
		return Overview{}, err
	}

	o.AvailableToday = o.TotalEmployees - o.OnLeaveToday
	return o, nil
}

// Shortages scans every day of the given month and reports the worst
// days where half or more of the workforce has approved time off. Results
// are ordered by availability ascending, capped at five days.
func (s *Service) Shortages(ctx context.Context, orgID string, year int, month time.Month) ([]Shortage, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM employees WHERE organization_id = $1
  `, orgID).Scan(&total); err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, start_date, COALESCE(end_date, start_date)
    FROM requests
    WHERE organization_id = $1 AND status = 'approved'
      AND start_date <= $3 AND COALESCE(end_date, start_date) >= $2
  `, orgID, first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []leave
	for rows.Next() {
		var l leave
		if err := rows.Scan(&l.Employee, &l.From, &l.To); err != nil {
			return nil, err
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shortageDays(leaves, first, last, total), nil
}

type leave struct {
	Employee string
	From     time.Time
	To       time.Time
}

// shortageDays counts distinct employees away for each day of the range and
// keeps the days at or below the shortage threshold.
func shortageDays(leaves []leave, first, last time.Time, total int) []Shortage {
	var out []Shortage
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		away := map[string]struct{}{}
		for _, l := range leaves {
			if !day.Before(l.From) && !day.After(l.To) {
				away[l.Employee] = struct{}{}
			}
		}
		available := total - len(away)
		availability := float64(available) / float64(total)
		if availability <= shortageThreshold {
			out = append(out, Shortage{
				Date:         day,
				OnLeave:      len(away),
				Available:    available,
				Availability: availability,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Availability < out[j].Availability
	})
	if len(out) > maxShortages {
		out = out[:maxShortages]
	}
	return out
}
