package org

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateName = errors.New("a record with this name already exists in the organization")
	ErrInUse         = errors.New("record is assigned to employees and cannot be deleted")
)

// Service manages the per-organization role and location catalogs. Both
// tables have identical shape, so the operations are generic over the table
// name with uniqueness and in-use rules enforced here.
type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) ListRoles(ctx context.Context, orgID string) ([]Role, error) {
	rows, err := s.list(ctx, "roles", orgID)
	if err != nil {
		return nil, err
	}
	var roles []Role
	for _, r := range rows {
		roles = append(roles, Role(r))
	}
	return roles, nil
}

func (s *Service) ListLocations(ctx context.Context, orgID string) ([]Location, error) {
	rows, err := s.list(ctx, "locations", orgID)
	if err != nil {
		return nil, err
	}
	var locations []Location
	for _, r := range rows {
		locations = append(locations, Location(r))
	}
	return locations, nil
}

func (s *Service) CreateRole(ctx context.Context, orgID, name, createdBy string) (string, error) {
	return s.create(ctx, "roles", orgID, name, createdBy)
}

func (s *Service) CreateLocation(ctx context.Context, orgID, name, createdBy string) (string, error) {
	return s.create(ctx, "locations", orgID, name, createdBy)
}

func (s *Service) RenameRole(ctx context.Context, orgID, id, name string) error {
	return s.rename(ctx, "roles", orgID, id, name)
}

func (s *Service) RenameLocation(ctx context.Context, orgID, id, name string) error {
	return s.rename(ctx, "locations", orgID, id, name)
}

func (s *Service) DeleteRole(ctx context.Context, orgID, id string) error {
	return s.delete(ctx, "roles", "role_id", orgID, id)
}

func (s *Service) DeleteLocation(ctx context.Context, orgID, id string) error {
	return s.delete(ctx, "locations", "location_id", orgID, id)
}

type record struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
}

func (s *Service) list(ctx context.Context, table, orgID string) ([]record, error) {
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT id, organization_id, name, created_at
    FROM %s
    WHERE organization_id = $1
    ORDER BY created_at DESC
  `, table), orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.ID, &r.OrgID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) create(ctx context.Context, table, orgID, name, createdBy string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is required")
	}

	taken, err := s.nameTaken(ctx, table, orgID, name, "")
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrDuplicateName
	}

	var createdByArg *string
	if createdBy != "" {
		createdByArg = &createdBy
	}

	var id string
	err = s.DB.QueryRow(ctx, fmt.Sprintf(`
    INSERT INTO %s (organization_id, name, created_by)
    VALUES ($1, $2, $3)
    RETURNING id
  `, table), orgID, name, createdByArg).Scan(&id)
	return id, err
}

func (s *Service) rename(ctx context.Context, table, orgID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name is required")
	}

	taken, err := s.nameTaken(ctx, table, orgID, name, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateName
	}

	tag, err := s.DB.Exec(ctx, fmt.Sprintf(`
    UPDATE %s SET name = $1, updated_at = now() WHERE organization_id = $2 AND id = $3
  `, table), name, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) delete(ctx context.Context, table, employeeColumn, orgID, id string) error {
	var assigned int
	if err := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT COUNT(1) FROM employees WHERE organization_id = $1 AND %s = $2
  `, employeeColumn), orgID, id).Scan(&assigned); err != nil {
		return err
	}
	if assigned > 0 {
		return ErrInUse
	}

	tag, err := s.DB.Exec(ctx, fmt.Sprintf(`
    DELETE FROM %s WHERE organization_id = $1 AND id = $2
  `, table), orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) nameTaken(ctx context.Context, table, orgID, name, excludeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT EXISTS (
      SELECT 1 FROM %s
      WHERE organization_id = $1 AND lower(name) = lower($2) AND ($3 = '' OR id::text <> $3)
    )
  `, table), orgID, name, excludeID).Scan(&exists)
	return exists, err
}
