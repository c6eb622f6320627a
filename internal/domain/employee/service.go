package employee

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeoff/internal/auth"
	"timeoff/internal/domain/request"
)

var (
	ErrNotFound        = errors.New("employee not found")
	ErrEmailInUse      = errors.New("an account with this email already exists")
	ErrPendingRequests = errors.New("cannot delete employee with pending time-off requests")
)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

const employeeColumns = `
    e.id, e.organization_id, COALESCE(e.user_id::text, ''),
    e.first_name, e.last_name, e.email,
    COALESCE(e.role_id::text, ''), COALESCE(r.name, ''),
    COALESCE(e.location_id::text, ''), COALESCE(l.name, ''),
    e.days_available, e.hours_available, e.annual_days, e.annual_hours,
    e.created_at, e.updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.OrgID, &emp.UserID,
		&emp.FirstName, &emp.LastName, &emp.Email,
		&emp.RoleID, &emp.RoleName,
		&emp.LocationID, &emp.LocationName,
		&emp.DaysAvailable, &emp.HoursAvailable, &emp.AnnualDays, &emp.AnnualHours,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func (s *Service) List(ctx context.Context, orgID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    LEFT JOIN roles r ON e.role_id = r.id
    LEFT JOIN locations l ON e.location_id = l.id
    WHERE e.organization_id = $1
    ORDER BY e.created_at DESC
  `, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Service) Get(ctx context.Context, orgID, employeeID string) (Employee, error) {
	emp, err := scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    LEFT JOIN roles r ON e.role_id = r.id
    LEFT JOIN locations l ON e.location_id = l.id
    WHERE e.organization_id = $1 AND e.id = $2
  `, orgID, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return emp, err
}

// Create provisions the employee record together with an employee login
// carrying a generated temporary password. Both inserts share one
// transaction so a half-provisioned employee never exists.
func (s *Service) Create(ctx context.Context, orgID, createdBy string, in Input) (Created, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	tempPassword, err := GenerateTemporaryPassword()
	if err != nil {
		return Created{}, err
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return Created{}, err
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Created{}, err
	}
	defer tx.Rollback(ctx)

	// users.email is unique across organizations, so the check is global.
	var emailTaken bool
	if err := tx.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
  `, email).Scan(&emailTaken); err != nil {
		return Created{}, err
	}
	if emailTaken {
		return Created{}, ErrEmailInUse
	}

	result := Created{TemporaryPassword: tempPassword}
	if err := tx.QueryRow(ctx, `
    INSERT INTO users (organization_id, email, password_hash, first_name, last_name, system_role, must_change_password)
    VALUES ($1, $2, $3, $4, $5, $6, true)
    RETURNING id
  `, orgID, email, hash, in.FirstName, in.LastName, auth.RoleEmployee).Scan(&result.UserID); err != nil {
		return Created{}, err
	}

	if err := tx.QueryRow(ctx, `
    INSERT INTO employees (organization_id, user_id, first_name, last_name, email,
                           role_id, location_id, days_available, hours_available,
                           annual_days, annual_hours, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id
  `, orgID, result.UserID, in.FirstName, in.LastName, email,
		nullIfEmpty(in.RoleID), nullIfEmpty(in.LocationID),
		in.DaysAvailable, in.HoursAvailable, in.AnnualDays, in.AnnualHours,
		nullIfEmpty(createdBy)).Scan(&result.ID); err != nil {
		return Created{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Created{}, err
	}
	return result, nil
}

// Update edits the employee record. Email stays as provisioned; balances
// and annual allotments are admin-settable here.
func (s *Service) Update(ctx context.Context, orgID, employeeID string, in Input) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET first_name = $1, last_name = $2, role_id = $3, location_id = $4,
        days_available = $5, hours_available = $6,
        annual_days = $7, annual_hours = $8, updated_at = now()
    WHERE organization_id = $9 AND id = $10
  `, in.FirstName, in.LastName, nullIfEmpty(in.RoleID), nullIfEmpty(in.LocationID),
		in.DaysAvailable, in.HoursAvailable, in.AnnualDays, in.AnnualHours,
		orgID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the employee and their login. Refused while the employee
// has pending requests; processed history is removed with the record.
func (s *Service) Delete(ctx context.Context, orgID, employeeID string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID *string
	err = tx.QueryRow(ctx, `
    SELECT user_id::text FROM employees WHERE organization_id = $1 AND id = $2
  `, orgID, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var pending int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM requests WHERE employee_id = $1 AND status = $2
  `, employeeID, request.StatusPending).Scan(&pending); err != nil {
		return err
	}
	if pending > 0 {
		return ErrPendingRequests
	}

	if _, err := tx.Exec(ctx, "DELETE FROM requests WHERE employee_id = $1", employeeID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM employees WHERE id = $1", employeeID); err != nil {
		return err
	}
	if userID != nil && *userID != "" {
		if _, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", *userID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Service) Balance(ctx context.Context, orgID, employeeID string) (request.Balance, error) {
	var bal request.Balance
	err := s.DB.QueryRow(ctx, `
    SELECT days_available, hours_available
    FROM employees
    WHERE organization_id = $1 AND id = $2
  `, orgID, employeeID).Scan(&bal.Days, &bal.Hours)
	if errors.Is(err, pgx.ErrNoRows) {
		return request.Balance{}, ErrNotFound
	}
	return bal, err
}

// IDByUserID resolves the employee record backing a login, if any.
func (s *Service) IDByUserID(ctx context.Context, orgID, userID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM employees WHERE organization_id = $1 AND user_id = $2
  `, orgID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func nullIfEmpty(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
