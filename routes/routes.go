package routes

import (
	"net/http"

	"clanhall/handlers"
	"clanhall/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes wires the HTTP surface. Reads are public (with optional
// auth to widen visibility), writes sit behind the bearer-token
// middleware.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	matchHandler *handlers.MatchHandler,
	standingsHandler *handlers.StandingsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/tournaments", func(r chi.Router) {
		// Public reads; optional auth widens visibility to private
		// tournaments for logged-in users.
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticateOptional)

			r.Get("/", tournamentHandler.ListHandler)
			r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
			r.Get("/{tournamentID}/admins", tournamentHandler.ListAdminsHandler)
			r.Get("/{tournamentID}/participants", participantHandler.ListHandler)
			r.Get("/{tournamentID}/matches", matchHandler.ListHandler)
			r.Get("/{tournamentID}/matches/{matchID}", matchHandler.GetByIDHandler)
			r.Get("/{tournamentID}/standings", standingsHandler.GetStandingsHandler)
			r.Get("/{tournamentID}/bracket", standingsHandler.GetBracketHandler)
		})

		// Authenticated writes.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Patch("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Patch("/{tournamentID}/status", tournamentHandler.UpdateStatusHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)
			r.Post("/{tournamentID}/banner", tournamentHandler.UploadBannerHandler)

			r.Post("/{tournamentID}/admins", tournamentHandler.AddAdminHandler)
			r.Delete("/{tournamentID}/admins/{userID}", tournamentHandler.RemoveAdminHandler)

			r.Post("/{tournamentID}/participants", participantHandler.RegisterHandler)
			r.Post("/{tournamentID}/participants/direct", participantHandler.AddDirectHandler)
			r.Patch("/{tournamentID}/participants/{participantID}/status", participantHandler.UpdateStatusHandler)
			r.Delete("/{tournamentID}/participants/me", participantHandler.WithdrawHandler)
			r.Delete("/{tournamentID}/participants/{participantID}", participantHandler.RemoveHandler)

			r.Post("/{tournamentID}/matches", matchHandler.CreateHandler)
			r.Patch("/{tournamentID}/matches/{matchID}", matchHandler.UpdateHandler)
			r.Post("/{tournamentID}/matches/{matchID}/result", matchHandler.RecordResultHandler)
			r.Post("/{tournamentID}/matches/{matchID}/replay", matchHandler.UploadReplayHandler)
			r.Delete("/{tournamentID}/matches/{matchID}", matchHandler.DeleteHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
