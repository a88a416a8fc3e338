package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// DispatchFilter captures dispatch listing parameters.
type DispatchFilter struct {
	EventID  *string
	StaffID  *string
	Role     *domain.StaffRole
	Statuses []domain.DispatchStatus
	Limit    int
	Offset   int
}

// DispatchRepository encapsulates dispatch-request persistence. Status
// transitions go through conditional updates guarded by status='pending';
// zero affected rows is reported as pgx.ErrNoRows so callers can surface
// the already-responded case.
type DispatchRepository interface {
	CreateBatch(ctx context.Context, requests []*domain.DispatchRequest) error
	GetByID(ctx context.Context, id string) (*domain.DispatchRequest, error)
	List(ctx context.Context, filter DispatchFilter) ([]domain.DispatchRequest, error)
	Accept(ctx context.Context, id string) (*domain.DispatchRequest, error)
	Decline(ctx context.Context, id string) (*domain.DispatchRequest, error)
	HasAccepted(ctx context.Context, eventID, staffID string) (bool, error)
}

type dispatchRepository struct {
	pool *pgxpool.Pool
}

// NewDispatchRepository instantiates the repository.
func NewDispatchRepository(pool *pgxpool.Pool) DispatchRepository {
	return &dispatchRepository{pool: pool}
}

// CreateBatch inserts all requests in a single transaction; either every
// candidate receives a pending request or none do.
func (r *dispatchRepository) CreateBatch(ctx context.Context, requests []*domain.DispatchRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO dispatch_requests (event_id, staff_id, staff_role, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, sent_at`

	for _, req := range requests {
		if err := tx.QueryRow(ctx, query,
			req.EventID,
			req.StaffID,
			req.Role,
			req.Status,
		).Scan(&req.ID, &req.SentAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *dispatchRepository) GetByID(ctx context.Context, id string) (*domain.DispatchRequest, error) {
	const query = `
        SELECT id, event_id, staff_id, staff_role, status, sent_at, responded_at
        FROM dispatch_requests WHERE id=$1`

	var req domain.DispatchRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.EventID,
		&req.StaffID,
		&req.Role,
		&req.Status,
		&req.SentAt,
		&req.RespondedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *dispatchRepository) List(ctx context.Context, filter DispatchFilter) ([]domain.DispatchRequest, error) {
	base := `
        SELECT id, event_id, staff_id, staff_role, status, sent_at, responded_at
        FROM dispatch_requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		clauses = append(clauses, fmt.Sprintf("event_id=$%d", len(args)))
	}
	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("staff_id=$%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("staff_role=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY sent_at DESC LIMIT %d OFFSET %d",
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DispatchRequest
	for rows.Next() {
		var req domain.DispatchRequest
		if err := rows.Scan(
			&req.ID,
			&req.EventID,
			&req.StaffID,
			&req.Role,
			&req.Status,
			&req.SentAt,
			&req.RespondedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// Accept transitions pending->accepted and forces the staff profile to
// assigned, in one transaction. The conditional update is the lock: a
// concurrent responder sees zero affected rows and gets pgx.ErrNoRows.
func (r *dispatchRepository) Accept(ctx context.Context, id string) (*domain.DispatchRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE dispatch_requests
        SET status='accepted', responded_at=NOW()
        WHERE id=$1 AND status='pending'
        RETURNING id, event_id, staff_id, staff_role, status, sent_at, responded_at`

	var req domain.DispatchRequest
	if err := tx.QueryRow(ctx, update, id).Scan(
		&req.ID,
		&req.EventID,
		&req.StaffID,
		&req.Role,
		&req.Status,
		&req.SentAt,
		&req.RespondedAt,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE staff_profiles SET status='assigned' WHERE id=$1`, req.StaffID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &req, nil
}

// Decline transitions pending->declined with no staff-profile side effect.
func (r *dispatchRepository) Decline(ctx context.Context, id string) (*domain.DispatchRequest, error) {
	const update = `
        UPDATE dispatch_requests
        SET status='declined', responded_at=NOW()
        WHERE id=$1 AND status='pending'
        RETURNING id, event_id, staff_id, staff_role, status, sent_at, responded_at`

	var req domain.DispatchRequest
	if err := r.pool.QueryRow(ctx, update, id).Scan(
		&req.ID,
		&req.EventID,
		&req.StaffID,
		&req.Role,
		&req.Status,
		&req.SentAt,
		&req.RespondedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *dispatchRepository) HasAccepted(ctx context.Context, eventID, staffID string) (bool, error) {
	const query = `
        SELECT COUNT(1) FROM dispatch_requests
        WHERE event_id=$1 AND staff_id=$2 AND status='accepted'`

	var count int
	if err := r.pool.QueryRow(ctx, query, eventID, staffID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
