package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
)

// In-memory repository fakes mirroring the conditional-update semantics of
// the SQL layer, mutex-guarded so concurrency tests are meaningful.

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]domain.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	r.profiles[profile.ID] = *profile
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	profile.UpdatedAt = time.Now()
	r.profiles[profile.ID] = *profile
	return nil
}

func (r *fakeProfileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.profiles, id)
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &profile, nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.Email == email {
			p := profile
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProfileRepo) List(_ context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Profile
	for _, profile := range r.profiles {
		if filter.Role != nil && profile.Role != *filter.Role {
			continue
		}
		out = append(out, profile)
	}
	return out, nil
}

type fakeStaffRepo struct {
	mu    sync.Mutex
	staff map[string]domain.StaffProfile
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: make(map[string]domain.StaffProfile)}
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &staff, nil
}

func (r *fakeStaffRepo) List(_ context.Context, filter repository.StaffProfileFilter) ([]domain.StaffProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffProfile
	for _, staff := range r.staff {
		if filter.City != nil && staff.City != *filter.City {
			continue
		}
		if filter.Status != nil && staff.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && !staff.HasRole(*filter.Role) {
			continue
		}
		out = append(out, staff)
	}
	return out, nil
}

func (r *fakeStaffRepo) UpdateStatus(_ context.Context, id string, status domain.StaffStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.staff[id]
	if !ok {
		return pgx.ErrNoRows
	}
	staff.Status = status
	r.staff[id] = staff
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	seq    int
	events map[string]domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]domain.Event)}
}

func (r *fakeEventRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("event-%d", r.seq)
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.nextID()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	for i := range event.Requirements {
		event.Requirements[i].ID = fmt.Sprintf("%s-req-%d", event.ID, i)
		event.Requirements[i].EventID = event.ID
	}
	r.events[event.ID] = *event
	return nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id string, status domain.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return pgx.ErrNoRows
	}
	event.Status = status
	r.events[id] = event
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &event, nil
}

func (r *fakeEventRepo) List(_ context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, event := range r.events {
		if filter.City != nil && event.City != *filter.City {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if event.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, event)
	}
	return out, nil
}

func (r *fakeEventRepo) ListRequirements(ctx context.Context, eventID string) ([]domain.RoleRequirement, error) {
	event, err := r.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.Requirements, nil
}

func (r *fakeEventRepo) GetRequirement(ctx context.Context, eventID string, role domain.StaffRole) (*domain.RoleRequirement, error) {
	event, err := r.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for i := range event.Requirements {
		if event.Requirements[i].Role == role {
			return &event.Requirements[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

// fakeDispatchRepo reproduces the store's compare-and-set transitions. Accept
// flips the staff profile to assigned under the same lock, matching the SQL
// transaction.
type fakeDispatchRepo struct {
	mu        sync.Mutex
	seq       int
	dispatch  map[string]domain.DispatchRequest
	staffRepo *fakeStaffRepo
}

func newFakeDispatchRepo(staffRepo *fakeStaffRepo) *fakeDispatchRepo {
	return &fakeDispatchRepo{dispatch: make(map[string]domain.DispatchRequest), staffRepo: staffRepo}
}

func (r *fakeDispatchRepo) CreateBatch(_ context.Context, requests []*domain.DispatchRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range requests {
		r.seq++
		req.ID = fmt.Sprintf("dispatch-%d", r.seq)
		req.SentAt = time.Now()
		r.dispatch[req.ID] = *req
	}
	return nil
}

func (r *fakeDispatchRepo) GetByID(_ context.Context, id string) (*domain.DispatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.dispatch[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &req, nil
}

func (r *fakeDispatchRepo) List(_ context.Context, filter repository.DispatchFilter) ([]domain.DispatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DispatchRequest
	for _, req := range r.dispatch {
		if filter.EventID != nil && req.EventID != *filter.EventID {
			continue
		}
		if filter.StaffID != nil && req.StaffID != *filter.StaffID {
			continue
		}
		if filter.Role != nil && req.Role != *filter.Role {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if req.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *fakeDispatchRepo) Accept(_ context.Context, id string) (*domain.DispatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.dispatch[id]
	if !ok || req.Status != domain.DispatchStatusPending {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	req.Status = domain.DispatchStatusAccepted
	req.RespondedAt = &now
	r.dispatch[id] = req

	r.staffRepo.mu.Lock()
	if staff, ok := r.staffRepo.staff[req.StaffID]; ok {
		staff.Status = domain.StaffStatusAssigned
		r.staffRepo.staff[req.StaffID] = staff
	}
	r.staffRepo.mu.Unlock()
	return &req, nil
}

func (r *fakeDispatchRepo) Decline(_ context.Context, id string) (*domain.DispatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.dispatch[id]
	if !ok || req.Status != domain.DispatchStatusPending {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	req.Status = domain.DispatchStatusDeclined
	req.RespondedAt = &now
	r.dispatch[id] = req
	return &req, nil
}

func (r *fakeDispatchRepo) HasAccepted(_ context.Context, eventID, staffID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.dispatch {
		if req.EventID == eventID && req.StaffID == staffID && req.Status == domain.DispatchStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages []domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = fmt.Sprintf("message-%d", r.seq)
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByEvent(_ context.Context, eventID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msg := range r.messages {
		if msg.EventID == eventID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// fakeInviteRepo keeps MarkAccepted conditional on both the accepted flag
// and expiry, same as the SQL update.
type fakeInviteRepo struct {
	mu      sync.Mutex
	seq     int
	invites map[string]domain.StaffInvite
	now     func() time.Time
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]domain.StaffInvite), now: time.Now}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *domain.StaffInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	invite.ID = fmt.Sprintf("invite-%d", r.seq)
	r.invites[invite.Token] = *invite
	return nil
}

func (r *fakeInviteRepo) GetByToken(_ context.Context, token string) (*domain.StaffInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[token]
	if !ok || invite.Accepted {
		return nil, pgx.ErrNoRows
	}
	return &invite, nil
}

func (r *fakeInviteRepo) List(_ context.Context, _, _ int) ([]domain.StaffInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffInvite
	for _, invite := range r.invites {
		out = append(out, invite)
	}
	return out, nil
}

func (r *fakeInviteRepo) MarkAccepted(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[token]
	if !ok || invite.Accepted || !r.now().Before(invite.ExpiresAt) {
		return pgx.ErrNoRows
	}
	invite.Accepted = true
	r.invites[token] = invite
	return nil
}

func adminProfile() *domain.Profile {
	return &domain.Profile{ID: "admin-1", Email: "ops@example.com", Name: "Ops", Role: domain.RoleAdmin}
}

func staffActor(id string) *domain.Profile {
	return &domain.Profile{ID: id, Email: id + "@example.com", Name: id, Role: domain.RoleStaff}
}
