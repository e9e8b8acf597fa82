package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/abanoub-dev/score-tracker/handlers"
	"github.com/abanoub-dev/score-tracker/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	sessionHandler *handlers.SessionHandler,
	timerHandler *handlers.TimerHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/board", teamHandler.Board)
		r.Post("/undo", teamHandler.Undo)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.List)
			r.Post("/", teamHandler.Create)
			r.Route("/{teamID}", func(r chi.Router) {
				r.Patch("/", teamHandler.Update)
				r.Delete("/", teamHandler.Delete)
				r.Post("/score", teamHandler.ChangeScore)
				r.Post("/reset", teamHandler.ResetScore)
				r.Post("/penalty", teamHandler.Penalize)
				r.Post("/undo", teamHandler.UndoTeam)
				r.Get("/history", teamHandler.History)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/start", sessionHandler.Start)
			r.Post("/end", sessionHandler.End)
			r.Get("/history", sessionHandler.History)
			r.Delete("/{sessionID}", sessionHandler.Delete)
		})

		r.Route("/timer", func(r chi.Router) {
			r.Get("/", timerHandler.State)
			r.Post("/set", timerHandler.Set)
			r.Post("/pause", timerHandler.Pause)
			r.Post("/resume", timerHandler.Resume)
			r.Post("/reset", timerHandler.Reset)
		})

		r.Get("/ws", webSocketHandler.ServeWs)
	})
}
