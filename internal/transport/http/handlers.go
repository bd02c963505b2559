package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"quiz-service/internal/app"
	"quiz-service/internal/auth"
	"quiz-service/internal/domain"
)

type Handler struct {
	authoring *app.AuthoringService
	quizzes   *app.QuizService
	auth      *auth.Service
	upgrader  websocket.Upgrader
}

func NewHandler(authoring *app.AuthoringService, quizzes *app.QuizService, authSvc *auth.Service) *Handler {
	return &Handler{
		authoring: authoring,
		quizzes:   quizzes,
		auth:      authSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Login accepts JSON or form-encoded credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isFormRequest(r) {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, domain.Invalid(domain.ErrInvalidRequest, "malformed form body"))
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		if err := validateStruct(req); err != nil {
			writeError(w, r, err)
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.auth.Authenticate(req.Username, req.Password); err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, err)
		return
	}
	token, ttl, err := h.auth.IssueToken(req.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(ttl.Seconds()),
	})
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.authoring.CreateQuiz(r.Context(), req.Title, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.authoring.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]quizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, quizSummary{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			CreatedAt:   q.CreatedAt,
			UpdatedAt:   q.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.authoring.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.authoring.UpdateQuiz(r.Context(), chi.URLParam(r, "quizID"), domain.QuizPatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.authoring.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	spec, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	question, err := h.authoring.ValidateAndCreateQuestion(r.Context(), chi.URLParam(r, "quizID"), spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	question, err := h.authoring.ValidateAndUpdateQuestion(r.Context(), chi.URLParam(r, "questionID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.authoring.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.quizzes.ListAttempts(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]attemptBody, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, newAttemptBody(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.quizzes.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAttemptBody(attempt))
}

func (h *Handler) GetPublicQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.GetPublicQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.quizzes.Submit(r.Context(), chi.URLParam(r, "quizID"), req.UserName, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSubmitResponse(res))
}
