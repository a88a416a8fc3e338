package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// InviteRepository manages staff-invite persistence. MarkAccepted is a
// conditional update: it succeeds only while the invite is unaccepted and
// unexpired, returning pgx.ErrNoRows otherwise.
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.StaffInvite) error
	GetByToken(ctx context.Context, token string) (*domain.StaffInvite, error)
	List(ctx context.Context, limit, offset int) ([]domain.StaffInvite, error)
	MarkAccepted(ctx context.Context, token string) error
}

type inviteRepository struct {
	pool *pgxpool.Pool
}

// NewInviteRepository constructs the repository.
func NewInviteRepository(pool *pgxpool.Pool) InviteRepository {
	return &inviteRepository{pool: pool}
}

func (r *inviteRepository) Create(ctx context.Context, invite *domain.StaffInvite) error {
	const query = `
        INSERT INTO staff_invites (email, invited_by, staff_roles, city, token, accepted, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		invite.Email,
		invite.InvitedBy,
		rolesToStrings(invite.StaffRoles),
		invite.City,
		invite.Token,
		invite.Accepted,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)
}

// GetByToken returns the unaccepted invite matching the token. Accepted
// invites are invisible here, matching the single-use contract.
func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.StaffInvite, error) {
	const query = `
        SELECT id, email, invited_by, staff_roles, city, token, accepted, created_at, expires_at
        FROM staff_invites WHERE token=$1 AND accepted=FALSE`

	var invite domain.StaffInvite
	var roles []string
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&invite.ID,
		&invite.Email,
		&invite.InvitedBy,
		&roles,
		&invite.City,
		&invite.Token,
		&invite.Accepted,
		&invite.CreatedAt,
		&invite.ExpiresAt,
	); err != nil {
		return nil, err
	}
	invite.StaffRoles = stringsToRoles(roles)
	return &invite, nil
}

func (r *inviteRepository) List(ctx context.Context, limit, offset int) ([]domain.StaffInvite, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, email, invited_by, staff_roles, city, token, accepted, created_at, expires_at
        FROM staff_invites ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffInvite
	for rows.Next() {
		var invite domain.StaffInvite
		var roles []string
		if err := rows.Scan(
			&invite.ID,
			&invite.Email,
			&invite.InvitedBy,
			&roles,
			&invite.City,
			&invite.Token,
			&invite.Accepted,
			&invite.CreatedAt,
			&invite.ExpiresAt,
		); err != nil {
			return nil, err
		}
		invite.StaffRoles = stringsToRoles(roles)
		result = append(result, invite)
	}
	return result, rows.Err()
}

func (r *inviteRepository) MarkAccepted(ctx context.Context, token string) error {
	const query = `
        UPDATE staff_invites SET accepted=TRUE
        WHERE token=$1 AND accepted=FALSE AND expires_at > NOW()`
	cmd, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
