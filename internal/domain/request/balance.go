package request

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// balances is the typed balance repository used inside reconciliation
// transactions. Reads take a row lock so concurrent transitions on the same
// employee serialize instead of losing updates.
type balances struct {
	tx pgx.Tx
}

func (b balances) Get(ctx context.Context, orgID, employeeID string) (Balance, error) {
	var bal Balance
	err := b.tx.QueryRow(ctx, `
    SELECT days_available, hours_available
    FROM employees
    WHERE organization_id = $1 AND id = $2
    FOR UPDATE
  `, orgID, employeeID).Scan(&bal.Days, &bal.Hours)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrEmployeeNotFound
	}
	return bal, err
}

func (b balances) Set(ctx context.Context, orgID, employeeID string, bal Balance) error {
	_, err := b.tx.Exec(ctx, `
    UPDATE employees
    SET days_available = $1, hours_available = $2, updated_at = now()
    WHERE organization_id = $3 AND id = $4
  `, bal.Days, bal.Hours, orgID, employeeID)
	return err
}

type balanceAction int

const (
	actionApprove balanceAction = iota
	actionRestore
)

// applyBalance adjusts the owning employee's balance for req. Approvals
// deduct with a floor of zero; restores add back the nominal deduction with
// no ceiling, so a restore after a clamped deduction can legitimately exceed
// the pre-approval balance. Sick leave never touches the pool.
func applyBalance(ctx context.Context, tx pgx.Tx, req TimeOffRequest, action balanceAction) error {
	if req.Type == TypeSickLeave {
		return nil
	}

	store := balances{tx: tx}
	bal, err := store.Get(ctx, req.OrgID, req.EmployeeID)
	if err != nil {
		return err
	}

	return store.Set(ctx, req.OrgID, req.EmployeeID, adjust(bal, ComputeDeduction(req), action))
}

// adjust applies a deduction or restore to a balance. Deductions clamp each
// pool at zero; restores add the nominal amount back with no ceiling.
func adjust(bal Balance, d Deduction, action balanceAction) Balance {
	switch action {
	case actionApprove:
		bal.Days = max(0, bal.Days-d.Days)
		bal.Hours = max(0, bal.Hours-d.Hours)
	case actionRestore:
		bal.Days += d.Days
		bal.Hours += d.Hours
	}
	return bal
}
