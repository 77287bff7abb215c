package handlers

import (
	"github.com/labstack/echo/v4"

	"clubsphere/internal/middleware"
	"clubsphere/internal/models"
	"clubsphere/internal/services"
)

// Dependencies is everything the HTTP layer needs
type Dependencies struct {
	Users         *services.UserService
	Clubs         *services.ClubService
	Events        *services.EventService
	Memberships   *services.MembershipService
	Registrations *services.RegistrationService
	Payments      *services.PaymentService
	Stats         *services.StatsService
	Audit         *services.AuditLogger

	Verifier     middleware.TokenVerifier
	Sessions     SessionIssuer
	JWTSecret    string
	SecureCookie bool
}

// RegisterRoutes mounts the JSON API on e
func RegisterRoutes(e *echo.Echo, d Dependencies) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	requireAuth := middleware.RequireAuth(d.Verifier)
	requireAdmin := middleware.RequireRole(d.Users, models.RoleAdmin)

	authHandler := NewAuthHandler(d.Users, d.Sessions, d.JWTSecret, d.SecureCookie)
	userHandler := NewUserHandler(d.Users)
	clubHandler := NewClubHandler(d.Clubs, d.Users)
	eventHandler := NewEventHandler(d.Events, d.Users)
	membershipHandler := NewMembershipHandler(d.Memberships, d.Users)
	registrationHandler := NewRegistrationHandler(d.Registrations, d.Users)
	paymentHandler := NewPaymentHandler(d.Payments, d.Users)
	dashboardHandler := NewDashboardHandler(d.Stats, d.Audit, d.Users)

	e.GET("/", Health)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/jwt", authHandler.IssueToken)
	auth.POST("/session", authHandler.CreateSession, requireAuth)
	auth.POST("/logout", authHandler.Logout)

	users := api.Group("/users", requireAuth)
	users.GET("", userHandler.ListUsers, requireAdmin)
	users.GET("/me", userHandler.Me)
	users.PATCH("/:email/role", userHandler.SetRole, requireAdmin)

	clubs := api.Group("/clubs")
	clubs.GET("", clubHandler.ListClubs)
	clubs.GET("/pending", clubHandler.ListPending, requireAuth, requireAdmin)
	clubs.GET("/my-clubs", clubHandler.MyClubs, requireAuth)
	clubs.GET("/:id", clubHandler.GetClub)
	clubs.POST("", clubHandler.CreateClub, requireAuth)
	clubs.PATCH("/:id", clubHandler.UpdateClub, requireAuth)
	clubs.PATCH("/:id/status", clubHandler.SetStatus, requireAuth, requireAdmin)
	clubs.DELETE("/:id", clubHandler.DeleteClub, requireAuth)

	events := api.Group("/events")
	events.GET("", eventHandler.ListEvents)
	events.GET("/club/:clubId", eventHandler.ClubEvents)
	events.GET("/my-events", eventHandler.MyEvents, requireAuth)
	events.GET("/:id", eventHandler.GetEvent)
	events.POST("", eventHandler.CreateEvent, requireAuth)
	events.PATCH("/:id", eventHandler.UpdateEvent, requireAuth)
	events.DELETE("/:id", eventHandler.DeleteEvent, requireAuth)

	memberships := api.Group("/memberships", requireAuth)
	memberships.GET("/my-memberships", membershipHandler.MyMemberships)
	memberships.GET("/club/:clubId", membershipHandler.ClubMembers)
	memberships.POST("/join", membershipHandler.Join)
	memberships.PATCH("/:id/status", membershipHandler.SetStatus)

	registrations := api.Group("/event-registrations", requireAuth)
	registrations.GET("/my-registrations", registrationHandler.MyRegistrations)
	registrations.GET("/event/:eventId", registrationHandler.EventRegistrations)
	registrations.POST("/register", registrationHandler.Register)
	registrations.PATCH("/:id/cancel", registrationHandler.Cancel)

	payments := api.Group("/payments", requireAuth)
	payments.POST("/create-membership-intent", paymentHandler.CreateMembershipIntent)
	payments.POST("/create-event-intent", paymentHandler.CreateEventIntent)
	payments.POST("/confirm-payment", paymentHandler.ConfirmPayment)
	payments.GET("/my-payments", paymentHandler.MyPayments)
	payments.GET("/club/:clubId", paymentHandler.ClubPayments)
	payments.GET("/all", paymentHandler.AllPayments, requireAdmin)

	admin := api.Group("/admin", requireAuth, requireAdmin)
	admin.GET("/stats/overview", dashboardHandler.Overview)
	admin.GET("/stats/memberships-per-club", dashboardHandler.MembershipsPerClub)
	admin.GET("/audit-logs", dashboardHandler.AuditLogs)
}
