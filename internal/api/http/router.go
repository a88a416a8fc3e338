package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Events         *handlers.EventsHandler
	Dispatch       *handlers.DispatchHandler
	Staff          *handlers.StaffHandler
	Webhook        *handlers.WebhookHandler
	Feed           *handlers.FeedHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/register", cfg.Auth.Register)
	app.Post("/auth/login", cfg.Auth.Login)
	app.Get("/auth/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	app.Post("/webhooks/identity", cfg.Webhook.HandleIdentity)

	// the signup page resolves invite tokens before any session exists
	app.Get("/staff/invite/validate", cfg.Staff.ValidateInvite)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staff.Post("/invite", auth.RequireRole(domain.RoleAdmin), cfg.Staff.CreateInvite)
	staff.Get("/invite", auth.RequireRole(domain.RoleAdmin), cfg.Staff.ListInvites)
	staff.Post("/complete-onboarding", auth.RequireAuth(), cfg.Staff.CompleteOnboarding)
	staff.Get("/members", auth.RequireRole(domain.RoleAdmin), cfg.Staff.ListMembers)
	staff.Get("/members/:id", auth.RequireRole(domain.RoleAdmin), cfg.Staff.GetMember)
	staff.Patch("/members/:id", auth.RequireRole(domain.RoleAdmin), cfg.Staff.UpdateMember)

	events := app.Group("/events", cfg.AuthMiddleware.Handle)
	events.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Events.CreateEvent)
	events.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Events.ListEvents)
	events.Get("/:id", auth.RequireAuth(), cfg.Events.GetEvent)
	events.Patch("/:id/status", auth.RequireRole(domain.RoleAdmin), cfg.Events.UpdateEventStatus)
	events.Get("/:id/staffing", auth.RequireRole(domain.RoleAdmin), cfg.Events.GetStaffing)
	events.Post("/:id/dispatch", auth.RequireRole(domain.RoleAdmin), cfg.Events.IssueDispatch)
	events.Get("/:id/dispatch", auth.RequireRole(domain.RoleAdmin), cfg.Events.ListEventDispatches)
	events.Get("/:id/eligible-staff", auth.RequireRole(domain.RoleAdmin), cfg.Events.ListEligibleStaff)
	events.Post("/:id/messages", auth.RequireAuth(), cfg.Events.PostMessage)
	events.Get("/:id/messages", auth.RequireAuth(), cfg.Events.ListMessages)
	events.Get("/:id/feed", auth.RequireAuth(), cfg.Feed.Stream)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/dispatch/:id/respond", auth.RequireRole(domain.RoleStaff), cfg.Dispatch.Respond)
	protected.Get("/jobs", auth.RequireRole(domain.RoleStaff), cfg.Dispatch.ListJobs)
}
