package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaradmin/jar-backend/api/controllers"
	"github.com/jaradmin/jar-backend/api/middleware"
	"github.com/jaradmin/jar-backend/internal/assignments"
	"github.com/jaradmin/jar-backend/internal/audit"
	"github.com/jaradmin/jar-backend/internal/auth"
	"github.com/jaradmin/jar-backend/internal/billing"
	"github.com/jaradmin/jar-backend/internal/declarations"
	"github.com/jaradmin/jar-backend/internal/documents"
	"github.com/jaradmin/jar-backend/internal/education"
	"github.com/jaradmin/jar-backend/internal/matches"
	"github.com/jaradmin/jar-backend/internal/notifications"
	"github.com/jaradmin/jar-backend/internal/settings"
	"github.com/jaradmin/jar-backend/internal/users"
	"github.com/jaradmin/jar-backend/pkg/auth/session"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Settings      settings.Service
	Matches       matches.Service
	Reference     matches.ReferenceService
	Assignments   assignments.Service
	Declarations  declarations.Service
	Notifications notifications.Service
	Billing       billing.Service
	Education     education.Service
	Documents     documents.Service
	Audit         audit.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPing controllers.Pinger,
	redisPing controllers.Pinger,
	sessions session.AccessSessionChecker,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPing, redisPing))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	authed := middleware.Auth(cfg.JWT, sessions, logg)
	adminOnly := middleware.RequireAdmin(logg)
	userAdmin := middleware.RequireCapability(enums.CapUserAdmin, logg)
	matchAdmin := middleware.RequireCapability(enums.CapMatchAdmin, logg)
	accounting := middleware.RequireCapability(enums.CapAccounting, logg)
	committee := middleware.RequireCapability(enums.CapCommittee, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Post("/change-password", controllers.AuthChangePassword(svcs.Auth, logg))
			r.With(adminOnly).Post("/users/{userId}/reset-password", controllers.AuthResetPassword(svcs.Auth, logg))
		})
	})

	// Published content is readable without a session.
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/news", controllers.ListPublishedNews(svcs.Education, logg))
		r.Get("/news/{newsId}", controllers.GetNews(svcs.Education, logg))
		r.Get("/knowledge", controllers.ListPublishedKnowledge(svcs.Education, logg))
		r.Get("/knowledge/{knowledgeId}", controllers.GetKnowledge(svcs.Education, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(authed)

		r.Route("/api/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.Me(svcs.Users, logg))
			r.Get("/me/notification-settings", controllers.GetNotificationSettings(svcs.Users, logg))
			r.Put("/me/notification-settings", controllers.UpdateNotificationSettings(svcs.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(userAdmin)
				r.Post("/", controllers.CreateUser(svcs.Users, logg))
				r.Get("/", controllers.ListUsers(svcs.Users, logg))
				r.Get("/{userId}", controllers.GetUser(svcs.Users, logg))
				r.Put("/{userId}", controllers.UpdateUser(svcs.Users, logg))
				r.Post("/{userId}/archive", controllers.ArchiveUser(svcs.Users, logg))
				r.Post("/{userId}/login-disabled", controllers.SetLoginDisabled(svcs.Users, logg))
				r.Get("/{userId}/capabilities", controllers.UserCapabilities(svcs.Users, logg))
				r.Get("/{userId}/documents", controllers.ListUserDocuments(svcs.Documents, logg))
				r.With(adminOnly).Delete("/{userId}", controllers.DeleteUser(svcs.Users, logg))
			})
		})

		r.Route("/api/v1/settings", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", controllers.GetSettings(svcs.Settings, logg))
			r.Put("/", controllers.UpdateSettings(svcs.Settings, logg))
		})

		r.Route("/api/v1/audit", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", controllers.ListAuditLog(svcs.Audit, logg))
		})

		r.Route("/api/v1/matches", func(r chi.Router) {
			r.Get("/", controllers.ListMatches(svcs.Matches, logg))
			r.Get("/mine", controllers.ListMyMatches(svcs.Matches, logg))
			r.Get("/{matchId}", controllers.GetMatch(svcs.Matches, logg))
			r.Get("/{matchId}/assignments", controllers.ListMatchAssignments(svcs.Assignments, logg))
			r.Get("/{matchId}/feedback", controllers.ListMatchFeedback(svcs.Matches, logg))
			r.Post("/{matchId}/apply", controllers.ApplyToMatch(svcs.Matches, logg))
			r.Post("/{matchId}/feedback", controllers.SubmitMatchFeedback(svcs.Matches, logg))

			r.Group(func(r chi.Router) {
				r.Use(matchAdmin)
				r.Post("/", controllers.CreateMatch(svcs.Matches, logg))
				r.Put("/{matchId}", controllers.UpdateMatch(svcs.Matches, logg))
				r.Post("/{matchId}/transition", controllers.TransitionMatch(svcs.Matches, logg))
				r.Get("/{matchId}/applications", controllers.ListMatchApplications(svcs.Matches, logg))
				r.Post("/applications/{applicationId}/approve", controllers.ApproveApplication(svcs.Matches, logg))
				r.Post("/applications/{applicationId}/reject", controllers.RejectApplication(svcs.Matches, logg))
			})
		})

		r.Route("/api/v1/assignments", func(r chi.Router) {
			r.Get("/mine", controllers.ListMyAssignments(svcs.Assignments, logg))
			r.Post("/{assignmentId}/respond", controllers.RespondToAssignment(svcs.Assignments, logg))

			r.Group(func(r chi.Router) {
				r.Use(matchAdmin)
				r.Post("/", controllers.AssignUser(svcs.Assignments, logg))
				r.Delete("/{assignmentId}", controllers.RemoveAssignment(svcs.Assignments, logg))
				r.Put("/{assignmentId}/placeholder", controllers.SetAssignmentPlaceholder(svcs.Assignments, logg))
			})
		})

		r.Route("/api/v1/reference", func(r chi.Router) {
			r.Get("/seasons", controllers.ListSeasons(svcs.Reference, logg))
			r.Get("/competitions", controllers.ListCompetitions(svcs.Reference, logg))
			r.Get("/competitions/{competitionId}/phases", controllers.ListPhases(svcs.Reference, logg))
			r.Get("/venues", controllers.ListVenues(svcs.Reference, logg))
			r.Get("/clubs", controllers.ListClubs(svcs.Reference, logg))
			r.Get("/teams", controllers.ListTeams(svcs.Reference, logg))

			r.Group(func(r chi.Router) {
				r.Use(matchAdmin)
				r.Post("/seasons", controllers.CreateSeason(svcs.Reference, logg))
				r.Put("/seasons/{seasonId}", controllers.UpdateSeason(svcs.Reference, logg))
				r.Delete("/seasons/{seasonId}", controllers.DeleteSeason(svcs.Reference, logg))
				r.Post("/competitions", controllers.CreateCompetition(svcs.Reference, logg))
				r.Put("/competitions/{competitionId}", controllers.UpdateCompetition(svcs.Reference, logg))
				r.Delete("/competitions/{competitionId}", controllers.DeleteCompetition(svcs.Reference, logg))
				r.Post("/phases", controllers.CreatePhase(svcs.Reference, logg))
				r.Put("/phases/{phaseId}", controllers.UpdatePhase(svcs.Reference, logg))
				r.Delete("/phases/{phaseId}", controllers.DeletePhase(svcs.Reference, logg))
				r.Post("/venues", controllers.CreateVenue(svcs.Reference, logg))
				r.Put("/venues/{venueId}", controllers.UpdateVenue(svcs.Reference, logg))
				r.Delete("/venues/{venueId}", controllers.DeleteVenue(svcs.Reference, logg))
				r.Post("/clubs", controllers.CreateClub(svcs.Reference, logg))
				r.Put("/clubs/{clubId}", controllers.UpdateClub(svcs.Reference, logg))
				r.Delete("/clubs/{clubId}", controllers.DeleteClub(svcs.Reference, logg))
				r.Post("/teams", controllers.CreateTeam(svcs.Reference, logg))
				r.Put("/teams/{teamId}", controllers.UpdateTeam(svcs.Reference, logg))
				r.Delete("/teams/{teamId}", controllers.DeleteTeam(svcs.Reference, logg))
			})
		})

		r.Route("/api/v1/declarations", func(r chi.Router) {
			r.Use(accounting)
			r.Get("/", controllers.ListDeclarations(svcs.Declarations, logg))
			r.Get("/{declarationId}", controllers.GetDeclaration(svcs.Declarations, logg))
			r.Post("/{declarationId}/declared", controllers.MarkDeclarationDeclared(svcs.Declarations, logg))
		})

		r.Route("/api/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/api/v1/billing", func(r chi.Router) {
			r.Post("/travel-costs", controllers.SubmitTravelCost(svcs.Billing, logg))
			r.Get("/travel-costs/mine", controllers.ListMyTravelCosts(svcs.Billing, logg))

			r.Group(func(r chi.Router) {
				r.Use(accounting)
				r.Put("/fee-structures", controllers.UpsertFeeStructure(svcs.Billing, logg))
				r.Get("/fee-structures", controllers.ListFeeStructures(svcs.Billing, logg))
				r.Delete("/fee-structures/{competitionId}", controllers.DeleteFeeStructure(svcs.Billing, logg))
				r.Get("/assignments/{assignmentId}/fee", controllers.ComputeAssignmentFee(svcs.Billing, logg))
				r.Get("/travel-costs", controllers.ListTravelCosts(svcs.Billing, logg))
				r.Post("/travel-costs/{travelCostId}/review", controllers.ReviewTravelCost(svcs.Billing, logg))
				r.Post("/statements/build", controllers.BuildStatement(svcs.Billing, logg))
				r.Post("/statements/finalize", controllers.FinalizeStatement(svcs.Billing, logg))
				r.Get("/statements", controllers.ListStatements(svcs.Billing, logg))
				r.Get("/statements/{userId}", controllers.GetStatement(svcs.Billing, logg))
			})
		})

		r.Route("/api/v1/news", func(r chi.Router) {
			r.Get("/", controllers.ListNews(svcs.Education, logg))
			r.Group(func(r chi.Router) {
				r.Use(committee)
				r.Post("/", controllers.CreateNews(svcs.Education, logg))
				r.Put("/{newsId}", controllers.UpdateNews(svcs.Education, logg))
				r.Delete("/{newsId}", controllers.DeleteNews(svcs.Education, logg))
			})
		})

		r.Route("/api/v1/knowledge", func(r chi.Router) {
			r.Get("/", controllers.ListKnowledge(svcs.Education, logg))
			r.Group(func(r chi.Router) {
				r.Use(committee)
				r.Post("/", controllers.CreateKnowledge(svcs.Education, logg))
				r.Put("/{knowledgeId}", controllers.UpdateKnowledge(svcs.Education, logg))
				r.Delete("/{knowledgeId}", controllers.DeleteKnowledge(svcs.Education, logg))
			})
		})

		r.Route("/api/v1/documents", func(r chi.Router) {
			r.Post("/", controllers.UploadDocument(svcs.Documents, cfg.Documents, logg))
			r.Get("/", controllers.ListMyDocuments(svcs.Documents, logg))
			r.Get("/{documentId}", controllers.DownloadDocument(svcs.Documents, logg))
			r.Delete("/{documentId}", controllers.DeleteDocument(svcs.Documents, logg))
		})
	})

	return r
}
