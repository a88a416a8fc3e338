package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// StaffProfileRepository handles persistence for staff profiles.
type StaffProfileRepository interface {
	Create(ctx context.Context, staff *domain.StaffProfile) error
	Update(ctx context.Context, staff *domain.StaffProfile) error
	GetByID(ctx context.Context, id string) (*domain.StaffProfile, error)
	List(ctx context.Context, filter StaffProfileFilter) ([]domain.StaffProfile, error)
	UpdateStatus(ctx context.Context, id string, status domain.StaffStatus) error
}

// StaffProfileFilter defines query params for staff listing. Role filters on
// membership in the staff_roles set.
type StaffProfileFilter struct {
	City   *string
	Status *domain.StaffStatus
	Role   *domain.StaffRole
	Limit  int
	Offset int
}

type staffProfileRepository struct {
	pool *pgxpool.Pool
}

// NewStaffProfileRepository instantiates the repository.
func NewStaffProfileRepository(pool *pgxpool.Pool) StaffProfileRepository {
	return &staffProfileRepository{pool: pool}
}

func (r *staffProfileRepository) Create(ctx context.Context, staff *domain.StaffProfile) error {
	const query = `
        INSERT INTO staff_profiles (id, staff_roles, city, status)
        VALUES ($1,$2,$3,$4)`

	_, err := r.pool.Exec(ctx, query,
		staff.ID,
		rolesToStrings(staff.StaffRoles),
		staff.City,
		staff.Status,
	)
	return err
}

func (r *staffProfileRepository) Update(ctx context.Context, staff *domain.StaffProfile) error {
	const query = `
        UPDATE staff_profiles
        SET staff_roles=$1, city=$2, status=$3
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		rolesToStrings(staff.StaffRoles),
		staff.City,
		staff.Status,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffProfileRepository) GetByID(ctx context.Context, id string) (*domain.StaffProfile, error) {
	const query = `
        SELECT id, staff_roles, city, status
        FROM staff_profiles WHERE id=$1`

	var staff domain.StaffProfile
	var roles []string
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&staff.ID,
		&roles,
		&staff.City,
		&staff.Status,
	); err != nil {
		return nil, err
	}
	staff.StaffRoles = stringsToRoles(roles)
	return &staff, nil
}

func (r *staffProfileRepository) List(ctx context.Context, filter StaffProfileFilter) ([]domain.StaffProfile, error) {
	query := `
        SELECT id, staff_roles, city, status
        FROM staff_profiles`
	args := []any{}
	clauses := []string{}

	if filter.City != nil {
		args = append(args, *filter.City)
		clauses = append(clauses, fmt.Sprintf("city=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(staff_roles)", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffProfile
	for rows.Next() {
		var staff domain.StaffProfile
		var roles []string
		if err := rows.Scan(&staff.ID, &roles, &staff.City, &staff.Status); err != nil {
			return nil, err
		}
		staff.StaffRoles = stringsToRoles(roles)
		result = append(result, staff)
	}
	return result, rows.Err()
}

func (r *staffProfileRepository) UpdateStatus(ctx context.Context, id string, status domain.StaffStatus) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE staff_profiles SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func rolesToStrings(roles []domain.StaffRole) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}

func stringsToRoles(values []string) []domain.StaffRole {
	out := make([]domain.StaffRole, len(values))
	for i, val := range values {
		out[i] = domain.StaffRole(val)
	}
	return out
}
