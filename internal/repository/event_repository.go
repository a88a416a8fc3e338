package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// EventFilter captures event listing parameters.
type EventFilter struct {
	Statuses []domain.EventStatus
	City     *string
	Limit    int
	Offset   int
}

// EventRepository encapsulates event and role-requirement persistence.
// Requirements live with the event aggregate: Create inserts the event and
// its requirements in one transaction.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	ListRequirements(ctx context.Context, eventID string) ([]domain.RoleRequirement, error)
	GetRequirement(ctx context.Context, eventID string, role domain.StaffRole) (*domain.RoleRequirement, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates the repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertEvent = `
        INSERT INTO events (title, description, date, start_time, end_time, location, city, client_id, vendor_id, created_by, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, insertEvent,
		event.Title,
		event.Description,
		event.Date,
		event.StartTime,
		event.EndTime,
		event.Location,
		event.City,
		event.ClientID,
		event.VendorID,
		event.CreatedBy,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt); err != nil {
		return err
	}

	const insertRequirement = `
        INSERT INTO event_role_requirements (event_id, role, quantity)
        VALUES ($1,$2,$3)
        RETURNING id`

	for i := range event.Requirements {
		req := &event.Requirements[i]
		req.EventID = event.ID
		if err := tx.QueryRow(ctx, insertRequirement, req.EventID, req.Role, req.Quantity).Scan(&req.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) error {
	const query = `UPDATE events SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	const query = `
        SELECT id, title, description, date, start_time, end_time, location, city,
               client_id, vendor_id, created_by, status, created_at, updated_at
        FROM events WHERE id=$1`

	var event domain.Event
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.StartTime,
		&event.EndTime,
		&event.Location,
		&event.City,
		&event.ClientID,
		&event.VendorID,
		&event.CreatedBy,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}

	requirements, err := r.ListRequirements(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.Requirements = requirements
	return &event, nil
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	base := `
        SELECT id, title, description, date, start_time, end_time, location, city,
               client_id, vendor_id, created_by, status, created_at, updated_at
        FROM events`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.City != nil {
		args = append(args, *filter.City)
		clauses = append(clauses, fmt.Sprintf("city=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY date ASC LIMIT %d OFFSET %d",
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.Date,
			&event.StartTime,
			&event.EndTime,
			&event.Location,
			&event.City,
			&event.ClientID,
			&event.VendorID,
			&event.CreatedBy,
			&event.Status,
			&event.CreatedAt,
			&event.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		requirements, err := r.ListRequirements(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Requirements = requirements
	}
	return result, nil
}

func (r *eventRepository) ListRequirements(ctx context.Context, eventID string) ([]domain.RoleRequirement, error) {
	const query = `
        SELECT id, event_id, role, quantity
        FROM event_role_requirements WHERE event_id=$1 ORDER BY role`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RoleRequirement
	for rows.Next() {
		var req domain.RoleRequirement
		if err := rows.Scan(&req.ID, &req.EventID, &req.Role, &req.Quantity); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *eventRepository) GetRequirement(ctx context.Context, eventID string, role domain.StaffRole) (*domain.RoleRequirement, error) {
	const query = `
        SELECT id, event_id, role, quantity
        FROM event_role_requirements WHERE event_id=$1 AND role=$2`

	var req domain.RoleRequirement
	if err := r.pool.QueryRow(ctx, query, eventID, role).Scan(
		&req.ID,
		&req.EventID,
		&req.Role,
		&req.Quantity,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
