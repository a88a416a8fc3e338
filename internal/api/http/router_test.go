package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
)

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]domain.Profile)}
}

func (r *memProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = *p
	return nil
}

func (r *memProfileRepo) Update(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.profiles[p.ID] = *p
	return nil
}

func (r *memProfileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.profiles, id)
	return nil
}

func (r *memProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *memProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			copied := p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memProfileRepo) List(_ context.Context, _ repository.ProfileFilter) ([]domain.Profile, error) {
	return nil, nil
}

type memStaffRepo struct {
	mu    sync.Mutex
	staff map[string]domain.StaffProfile
}

func newMemStaffRepo() *memStaffRepo {
	return &memStaffRepo{staff: make(map[string]domain.StaffProfile)}
}

func (r *memStaffRepo) Create(_ context.Context, s *domain.StaffProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff[s.ID] = *s
	return nil
}

func (r *memStaffRepo) Update(_ context.Context, s *domain.StaffProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.staff[s.ID] = *s
	return nil
}

func (r *memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r *memStaffRepo) List(_ context.Context, _ repository.StaffProfileFilter) ([]domain.StaffProfile, error) {
	return nil, nil
}

func (r *memStaffRepo) UpdateStatus(_ context.Context, id string, status domain.StaffStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Status = status
	r.staff[id] = s
	return nil
}

type memInviteRepo struct {
	mu      sync.Mutex
	seq     int
	invites map[string]domain.StaffInvite
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{invites: make(map[string]domain.StaffInvite)}
}

func (r *memInviteRepo) Create(_ context.Context, invite *domain.StaffInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	invite.ID = fmt.Sprintf("invite-%d", r.seq)
	r.invites[invite.Token] = *invite
	return nil
}

func (r *memInviteRepo) GetByToken(_ context.Context, token string) (*domain.StaffInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[token]
	if !ok || invite.Accepted {
		return nil, pgx.ErrNoRows
	}
	return &invite, nil
}

func (r *memInviteRepo) List(_ context.Context, _, _ int) ([]domain.StaffInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffInvite
	for _, invite := range r.invites {
		out = append(out, invite)
	}
	return out, nil
}

func (r *memInviteRepo) MarkAccepted(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.invites[token]
	if !ok || invite.Accepted || !time.Now().Before(invite.ExpiresAt) {
		return pgx.ErrNoRows
	}
	invite.Accepted = true
	r.invites[token] = invite
	return nil
}

type routerFixture struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	profiles := newMemProfileRepo()
	staff := newMemStaffRepo()
	invites := newMemInviteRepo()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("router-test-secret", 60)

	ctx := context.Background()
	require.NoError(t, profiles.Create(ctx, &domain.Profile{
		ID: "admin-1", Email: "admin@example.com", Name: "Admin", Role: domain.RoleAdmin,
	}))
	require.NoError(t, profiles.Create(ctx, &domain.Profile{
		ID: "staff-1", Email: "staff@example.com", Name: "Staff", Role: domain.RoleStaff,
	}))
	require.NoError(t, staff.Create(ctx, &domain.StaffProfile{
		ID: "staff-1", StaffRoles: []domain.StaffRole{domain.StaffRoleServer},
		City: "San Francisco", Status: domain.StaffStatusAvailable,
	}))
	require.NoError(t, profiles.Create(ctx, &domain.Profile{
		ID: "client-1", Email: "client@example.com", Name: "Client", Role: domain.RoleClient,
	}))

	inviteService := service.NewInviteService(service.InviteDependencies{
		InviteRepo:  invites,
		ProfileRepo: profiles,
		StaffRepo:   staff,
		Dispatcher:  dispatcher,
		BaseURL:     "https://dispatch.example.com",
		TTL:         168 * time.Hour,
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		ProfileRepo: profiles,
		StaffRepo:   staff,
		Dispatcher:  dispatcher,
		DefaultCity: "San Francisco",
	})
	authService := service.NewAuthService(service.AuthDependencies{
		ProfileRepo: profiles,
		Tokens:      tokens,
		BcryptCost:  4,
	})
	eventService := service.NewEventService(service.EventDependencies{})
	dispatchService := service.NewDispatchService(service.DispatchDependencies{})

	logger := zap.NewNop()
	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("dispatch-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Events:         handlers.NewEventsHandler(eventService, dispatchService),
		Dispatch:       handlers.NewDispatchHandler(dispatchService),
		Staff:          handlers.NewStaffHandler(inviteService, directoryService),
		Webhook:        handlers.NewWebhookHandler(directoryService, config.IdentityConfig{WebhookSecret: "whsec"}, logger),
		Feed:           handlers.NewFeedHandler(nil, eventService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, profiles, staff),
	})
	return &routerFixture{app: app, tokens: tokens}
}

func (f *routerFixture) request(t *testing.T, method, target, bearer string, body any) *nethttp.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f *routerFixture) bearer(t *testing.T, id string, role domain.UserRole) string {
	t.Helper()
	token, _, err := f.tokens.GenerateToken(id, role)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, resp *nethttp.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func errorCode(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &envelope)
	return envelope.Error.Code
}

func TestInviteRouteContract(t *testing.T) {
	inviteBody := fiber.Map{
		"email":      "new.hire@example.com",
		"staffRoles": []string{"server"},
		"city":       "San Francisco",
	}

	t.Run("missing session is 401", func(t *testing.T) {
		f := newRouterFixture(t)
		resp := f.request(t, nethttp.MethodPost, "/staff/invite", "", inviteBody)
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
	})

	t.Run("staff caller is 403", func(t *testing.T) {
		f := newRouterFixture(t)
		bearer := f.bearer(t, "staff-1", domain.RoleStaff)
		resp := f.request(t, nethttp.MethodPost, "/staff/invite", bearer, inviteBody)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
	})

	t.Run("admin mints invite", func(t *testing.T) {
		f := newRouterFixture(t)
		bearer := f.bearer(t, "admin-1", domain.RoleAdmin)
		resp := f.request(t, nethttp.MethodPost, "/staff/invite", bearer, inviteBody)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

		var created struct {
			Success   bool   `json:"success"`
			InviteURL string `json:"inviteUrl"`
			Invite    struct {
				Token string `json:"token"`
			} `json:"invite"`
		}
		decodeBody(t, resp, &created)
		assert.True(t, created.Success)
		assert.Contains(t, created.InviteURL, "/sign-up?token=")
		assert.Len(t, created.Invite.Token, 64)
	})

	t.Run("invite list is admin only", func(t *testing.T) {
		f := newRouterFixture(t)
		resp := f.request(t, nethttp.MethodGet, "/staff/invite", f.bearer(t, "staff-1", domain.RoleStaff), nil)
		assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

		resp = f.request(t, nethttp.MethodGet, "/staff/invite", f.bearer(t, "admin-1", domain.RoleAdmin), nil)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	})

	t.Run("validate endpoint is public and rejects bad tokens with 400", func(t *testing.T) {
		f := newRouterFixture(t)
		resp := f.request(t, nethttp.MethodGet, "/staff/invite/validate?token=deadbeef", "", nil)
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
	})
}

func TestCompleteOnboardingRouteContract(t *testing.T) {
	mint := func(t *testing.T, f *routerFixture) string {
		t.Helper()
		resp := f.request(t, nethttp.MethodPost, "/staff/invite", f.bearer(t, "admin-1", domain.RoleAdmin), fiber.Map{
			"email":      "new.hire@example.com",
			"staffRoles": []string{"server"},
			"city":       "San Francisco",
		})
		require.Equal(t, nethttp.StatusOK, resp.StatusCode)
		var created struct {
			Invite struct {
				Token string `json:"token"`
			} `json:"invite"`
		}
		decodeBody(t, resp, &created)
		return created.Invite.Token
	}

	t.Run("missing session is 401", func(t *testing.T) {
		f := newRouterFixture(t)
		resp := f.request(t, nethttp.MethodPost, "/staff/complete-onboarding", "", fiber.Map{"token": "deadbeef"})
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
	})

	t.Run("unknown token is 400", func(t *testing.T) {
		f := newRouterFixture(t)
		bearer := f.bearer(t, "client-1", domain.RoleClient)
		resp := f.request(t, nethttp.MethodPost, "/staff/complete-onboarding", bearer, fiber.Map{"token": "deadbeef"})
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
	})

	t.Run("valid token redeems once", func(t *testing.T) {
		f := newRouterFixture(t)
		token := mint(t, f)
		bearer := f.bearer(t, "client-1", domain.RoleClient)

		resp := f.request(t, nethttp.MethodPost, "/staff/complete-onboarding", bearer, fiber.Map{"token": token})
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
		var ack struct {
			Success bool `json:"success"`
		}
		decodeBody(t, resp, &ack)
		assert.True(t, ack.Success)

		resp = f.request(t, nethttp.MethodPost, "/staff/complete-onboarding", bearer, fiber.Map{"token": token})
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	})
}
