package member

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"clubreg/entity"
	"clubreg/impl/auth"
	"clubreg/lib/api/cont"
	"clubreg/lib/api/response"
	"clubreg/lib/sl"
)

type Core interface {
	MemberProfile(id string) (*entity.Member, error)
	Card(id string) (*entity.Card, error)
}

type Authenticator interface {
	MemberLogin(login *entity.MemberLogin) (string, *entity.Member, error)
}

func reqLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.member"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Login exchanges phone and membership id for a portal token. Only approved
// members may log in.
func Login(log *slog.Logger, handler Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := reqLogger(log, r)

		var login entity.MemberLogin
		if err := render.Bind(r, &login); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("membership_id", login.MembershipID))

		token, member, err := handler.MemberLogin(&login)
		if err != nil {
			logger.Error("member login", sl.Err(err))
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Invalid phone number or Membership ID"))
			case errors.Is(err, entity.ErrNotApproved):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("Membership not approved yet"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Server error"))
			}
			return
		}
		logger.Debug("member logged in")

		render.JSON(w, r, response.Ok(map[string]any{
			"token": token,
			"member": map[string]string{
				"name":          member.Name,
				"phone":         member.Phone,
				"membership_id": member.MembershipID,
			},
		}))
	}
}

// Profile returns the caller's own record.
func Profile(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := reqLogger(log, r)

		identity := cont.GetIdentity(r.Context())
		member, err := handler.MemberProfile(identity.MemberID)
		if err != nil {
			logger.Error("member profile", sl.Err(err))
			if errors.Is(err, entity.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("User not found"))
				return
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Server error"))
			return
		}
		render.JSON(w, r, response.Ok(member))
	}
}

// Card returns the payload the ID-card renderer consumes for the caller.
func Card(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := reqLogger(log, r)

		identity := cont.GetIdentity(r.Context())
		card, err := handler.Card(identity.MemberID)
		if err != nil {
			logger.Error("member card", sl.Err(err))
			switch {
			case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrNotApproved):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("Membership not approved"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Server error"))
			}
			return
		}
		render.JSON(w, r, response.Ok(card))
	}
}
