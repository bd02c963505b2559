package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"quiz-service/internal/auth"
)

const requestTimeout = 30 * time.Second

// NewRouter wires every route. The live feed route is kept outside the
// request timeout because the connection stays open.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz Management System API"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/auth/login", h.Login)
			r.Get("/public/quizzes/{quizID}", h.GetPublicQuiz)
			r.Post("/public/quizzes/{quizID}/submit", h.SubmitQuiz)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(h.auth, writeError))
			r.Get("/quizzes/{quizID}/live", h.ServeLiveFeed)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(requestTimeout))
				r.Get("/quizzes", h.ListQuizzes)
				r.Post("/quizzes", h.CreateQuiz)
				r.Get("/quizzes/{quizID}", h.GetQuiz)
				r.Put("/quizzes/{quizID}", h.UpdateQuiz)
				r.Delete("/quizzes/{quizID}", h.DeleteQuiz)
				r.Post("/quizzes/{quizID}/questions", h.CreateQuestion)
				r.Get("/quizzes/{quizID}/attempts", h.ListAttempts)
				r.Put("/questions/{questionID}", h.UpdateQuestion)
				r.Delete("/questions/{questionID}", h.DeleteQuestion)
				r.Get("/attempts/{attemptID}", h.GetAttempt)
			})
		})
	})

	return r
}
