package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"inkwell/internal/metrics"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/session"
)

// UserAuthenticator looks up authors and verifies their passwords.
// *store.UserStore satisfies it.
type UserAuthenticator interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// SessionManager creates and destroys author sessions.
// *session.Store satisfies it.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups the author authentication handlers.
type Auth struct {
	users    UserAuthenticator
	sessions SessionManager
}

// NewAuth creates a new Auth handler group.
func NewAuth(users UserAuthenticator, sessions SessionManager) *Auth {
	return &Auth{users: users, sessions: sessions}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// currentUser is the public view of a signed-in author.
type currentUser struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role"`
}

func viewOf(d *session.Data) *currentUser {
	return &currentUser{ID: d.UserID, Email: d.Email, DisplayName: d.DisplayName, Role: d.Role}
}

// Login verifies credentials and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	in, err := decodeBody[loginInput](r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if msg := validateLogin(in.Email, in.Password); msg != "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", msg)
		return
	}

	user, err := a.users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred")
		return
	}

	if user == nil || !a.users.CheckPassword(user, in.Password) || !user.CanWrite() {
		metrics.Logins.WithLabelValues("rejected").Inc()
		slog.Warn("login rejected", "email", in.Email, "request_id", middleware.RequestIDFromCtx(r.Context()))
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
		return
	}

	data := session.FromUser(user)
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred")
		return
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	slog.Info("author signed in", "user_id", user.ID, "role", user.Role)
	writeResult(w, viewOf(data))
}

// Logout ends the current session, if any.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred")
		return
	}
	writeResult(w, map[string]bool{"success": true})
}

// Me returns the signed-in author, or a null result for visitors.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeResult(w, nil)
		return
	}
	writeResult(w, viewOf(sess))
}

// decodeBody reads a JSON request body into T.
func decodeBody[T any](r *http.Request) (T, error) {
	var buf []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			var zero T
			return zero, invalidInput("Could not read request body")
		}
		buf = b
	}
	return decode[T](buf)
}
