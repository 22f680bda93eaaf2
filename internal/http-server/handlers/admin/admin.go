package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"clubreg/entity"
	"clubreg/impl/auth"
	"clubreg/lib/api/response"
	"clubreg/lib/sl"
)

type Core interface {
	Approve(id string) (*entity.Member, error)
	Reject(id string) (*entity.Member, error)
	PendingMembers() ([]*entity.Member, error)
	AllMembers() ([]*entity.Member, error)
}

type Authenticator interface {
	AdminLogin(login *entity.AdminLogin) (string, error)
}

func reqLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.admin"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Login exchanges deployment-admin credentials for a bearer token.
func Login(log *slog.Logger, handler Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := reqLogger(log, r)

		var login entity.AdminLogin
		if err := render.Bind(r, &login); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("username", login.Username))

		token, err := handler.AdminLogin(&login)
		if err != nil {
			logger.Error("admin login", sl.Err(err))
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Invalid credentials"))
				return
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		logger.Debug("admin logged in")

		render.JSON(w, r, response.Ok(map[string]any{
			"token": token,
			"admin": map[string]string{
				"username": login.Username,
				"role":     entity.RoleAdmin,
			},
		}))
	}
}

// Pending lists members awaiting a decision, newest first.
func Pending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := reqLogger(log, r)

		members, err := handler.PendingMembers()
		if err != nil {
			logger.Error("list pending members", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		render.JSON(w, r, response.Ok(members))
	}
}

// Members lists all records, newest first.
func Members(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := reqLogger(log, r)

		members, err := handler.AllMembers()
		if err != nil {
			logger.Error("list members", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		render.JSON(w, r, response.Ok(members))
	}
}

// Approve transitions a pending member into approved.
func Approve(log *slog.Logger, handler Core) http.HandlerFunc {
	return decide(log, "approve", func(id string) (*entity.Member, error) {
		return handler.Approve(id)
	})
}

// Reject transitions a pending member into rejected.
func Reject(log *slog.Logger, handler Core) http.HandlerFunc {
	return decide(log, "reject", func(id string) (*entity.Member, error) {
		return handler.Reject(id)
	})
}

func decide(log *slog.Logger, action string, fn func(id string) (*entity.Member, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := reqLogger(log, r).With(
			slog.String("member", id),
			slog.String("action", action),
		)

		member, err := fn(id)
		if err != nil {
			logger.Error("decide member", sl.Err(err))
			switch {
			case errors.Is(err, entity.ErrNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("User not found"))
			case errors.Is(err, entity.ErrTerminalStatus):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("Membership already decided"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Server error"))
			}
			return
		}
		logger.With(slog.String("status", string(member.Status))).Info("member decided")

		render.JSON(w, r, response.Ok(member))
	}
}
