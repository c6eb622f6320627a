package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Create validates the date range against the employee's existing pending
// and approved requests and inserts the request in pending state.
func (s *Service) Create(ctx context.Context, orgID, employeeID string, in Input) (string, error) {
	daysOff, hoursOff, err := DeriveCounts(in)
	if err != nil {
		return "", err
	}

	var id string
	err = runTx(ctx, s.DB, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `
      SELECT EXISTS (SELECT 1 FROM employees WHERE organization_id = $1 AND id = $2)
    `, orgID, employeeID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrEmployeeNotFound
		}

		overlap, err := overlapExists(ctx, tx, orgID, employeeID, in.StartDate, in.EndDate, "")
		if err != nil {
			return err
		}
		if overlap {
			return ErrOverlap
		}

		return tx.QueryRow(ctx, `
      INSERT INTO requests (organization_id, employee_id, type, start_date, end_date,
                            hours_requested, days_off, hours_off, notes, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
      RETURNING id
    `, orgID, employeeID, in.Type, in.StartDate, endDateColumn(in),
			hoursRequestedColumn(in), daysOff, hoursOff, in.Notes, StatusPending).Scan(&id)
	})
	return id, err
}

func (s *Service) Get(ctx context.Context, orgID, requestID string) (TimeOffRequest, error) {
	var req TimeOffRequest
	err := s.DB.QueryRow(ctx, `
    SELECT id, organization_id, employee_id, type, start_date, end_date,
           COALESCE(hours_requested, 0), days_off, hours_off,
           COALESCE(notes, ''), status, processed_by, processed_at,
           created_at, updated_at
    FROM requests
    WHERE organization_id = $1 AND id = $2
  `, orgID, requestID).Scan(
		&req.ID, &req.OrgID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate,
		&req.HoursRequested, &req.DaysOff, &req.HoursOff,
		&req.Notes, &req.Status, &req.ProcessedBy, &req.ProcessedAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return TimeOffRequest{}, ErrNotFound
	}
	return req, err
}

type ListFilter struct {
	EmployeeID string
	Status     string
	Type       string
}

type ListResult struct {
	Requests []TimeOffRequest `json:"requests"`
	Total    int              `json:"total"`
}

func (s *Service) List(ctx context.Context, orgID string, filter ListFilter, limit, offset int) (ListResult, error) {
	where := "WHERE organization_id = $1"
	args := []any{orgID}

	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM requests "+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query := `
    SELECT id, organization_id, employee_id, type, start_date, end_date,
           COALESCE(hours_requested, 0), days_off, hours_off,
           COALESCE(notes, ''), status, processed_by, processed_at,
           created_at, updated_at
    FROM requests ` + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	result := ListResult{Total: total}
	for rows.Next() {
		var req TimeOffRequest
		if err := rows.Scan(
			&req.ID, &req.OrgID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate,
			&req.HoursRequested, &req.DaysOff, &req.HoursOff,
			&req.Notes, &req.Status, &req.ProcessedBy, &req.ProcessedAt,
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return ListResult{}, err
		}
		result.Requests = append(result.Requests, req)
	}
	return result, rows.Err()
}

// overlapExists reports whether the employee already has a pending or
// approved request whose date range touches [start, end]. A request with no
// end date occupies its start date only.
func overlapExists(ctx context.Context, tx pgx.Tx, orgID, employeeID string, start time.Time, end *time.Time, excludeID string) (bool, error) {
	rangeEnd := start
	if end != nil {
		rangeEnd = *end
	}

	var exists bool
	err := tx.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1
      FROM requests
      WHERE organization_id = $1
        AND employee_id = $2
        AND status IN ($3, $4)
        AND ($5 = '' OR id::text <> $5)
        AND start_date <= $6
        AND COALESCE(end_date, start_date) >= $7
    )
  `, orgID, employeeID, StatusPending, StatusApproved, excludeID, rangeEnd, start).Scan(&exists)
	return exists, err
}

func endDateColumn(in Input) *time.Time {
	if in.Type == TypeHoursOff {
		return nil
	}
	return in.EndDate
}

func hoursRequestedColumn(in Input) *int {
	if in.Type != TypeHoursOff {
		return nil
	}
	hours := in.HoursRequested
	return &hours
}
