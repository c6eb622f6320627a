package request

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound         = errors.New("request not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidState     = errors.New("invalid request state")
	ErrOverlap          = errors.New("overlapping request exists for this date range")
)

// ActionResult reports the outcome of a state transition, with enough
// employee context for the caller to notify them.
type ActionResult struct {
	RequestID     string
	EmployeeID    string
	EmployeeEmail string
	EmployeeName  string
	Status        string
}

// Approve moves a pending request to approved and deducts the balance in
// the same transaction. Only pending requests can be approved.
func (s *Service) Approve(ctx context.Context, orgID, requestID, adminUserID string) (ActionResult, error) {
	var result ActionResult
	err := runTx(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := getForUpdate(ctx, tx, orgID, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrInvalidState
		}

		if err := applyBalance(ctx, tx, req, actionApprove); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
      UPDATE requests
      SET status = $1, processed_by = $2, processed_at = now(), updated_at = now()
      WHERE id = $3
    `, StatusApproved, adminUserID, requestID); err != nil {
			return err
		}

		result, err = actionResult(ctx, tx, req, StatusApproved)
		return err
	})
	return result, err
}

// Deny moves a pending or approved request to denied. Denying a previously
// approved non-sick request restores the deducted balance first, inside the
// same transaction as the status write.
func (s *Service) Deny(ctx context.Context, orgID, requestID, adminUserID string) (ActionResult, error) {
	var result ActionResult
	err := runTx(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := getForUpdate(ctx, tx, orgID, requestID)
		if err != nil {
			return err
		}
		if req.Status == StatusDenied {
			return ErrInvalidState
		}

		if req.Status == StatusApproved {
			if err := applyBalance(ctx, tx, req, actionRestore); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `
      UPDATE requests
      SET status = $1, processed_by = $2, processed_at = now(), updated_at = now()
      WHERE id = $3
    `, StatusDenied, adminUserID, requestID); err != nil {
			return err
		}

		result, err = actionResult(ctx, tx, req, StatusDenied)
		return err
	})
	return result, err
}

// Update edits a request's fields. An approved non-sick request has its
// deduction restored first, then the derived counts are recomputed from the
// new fields and the status resets to pending with the processing marks
// cleared.
func (s *Service) Update(ctx context.Context, orgID, requestID string, in Input) error {
	daysOff, hoursOff, err := DeriveCounts(in)
	if err != nil {
		return err
	}

	return runTx(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := getForUpdate(ctx, tx, orgID, requestID)
		if err != nil {
			return err
		}

		end := in.EndDate
		overlap, err := overlapExists(ctx, tx, orgID, req.EmployeeID, in.StartDate, end, requestID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrOverlap
		}

		if req.Status == StatusApproved {
			if err := applyBalance(ctx, tx, req, actionRestore); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
      UPDATE requests
      SET type = $1, start_date = $2, end_date = $3, hours_requested = $4,
          days_off = $5, hours_off = $6, notes = $7,
          status = $8, processed_by = NULL, processed_at = NULL, updated_at = now()
      WHERE id = $9
    `, in.Type, in.StartDate, endDateColumn(in), hoursRequestedColumn(in),
			daysOff, hoursOff, in.Notes, StatusPending, requestID)
		return err
	})
}

// Delete removes a request, restoring the balance first when it was
// approved and not sick leave.
func (s *Service) Delete(ctx context.Context, orgID, requestID string) error {
	return runTx(ctx, s.DB, func(tx pgx.Tx) error {
		req, err := getForUpdate(ctx, tx, orgID, requestID)
		if err != nil {
			return err
		}

		if req.Status == StatusApproved {
			if err := applyBalance(ctx, tx, req, actionRestore); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, "DELETE FROM requests WHERE id = $1", requestID)
		return err
	})
}

func getForUpdate(ctx context.Context, tx pgx.Tx, orgID, requestID string) (TimeOffRequest, error) {
	var req TimeOffRequest
	err := tx.QueryRow(ctx, `
    SELECT id, organization_id, employee_id, type, start_date, end_date,
           COALESCE(hours_requested, 0), days_off, hours_off,
           COALESCE(notes, ''), status, processed_by, processed_at,
           created_at, updated_at
    FROM requests
    WHERE organization_id = $1 AND id = $2
    FOR UPDATE
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

func actionResult(ctx context.Context, tx pgx.Tx, req TimeOffRequest, status string) (ActionResult, error) {
	result := ActionResult{
		RequestID:  req.ID,
		EmployeeID: req.EmployeeID,
		Status:     status,
	}
	err := tx.QueryRow(ctx, `
    SELECT email, first_name || ' ' || last_name
    FROM employees
    WHERE id = $1
  `, req.EmployeeID).Scan(&result.EmployeeEmail, &result.EmployeeName)
	if errors.Is(err, pgx.ErrNoRows) {
		return result, ErrEmployeeNotFound
	}
	return result, err
}
