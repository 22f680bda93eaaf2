package register

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"clubreg/entity"
	"clubreg/lib/api/response"
	"clubreg/lib/sl"
)

type Core interface {
	Register(reg *entity.Registration) (*entity.Receipt, error)
}

// New handles membership applications.
func New(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.register")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var reg entity.Registration
		if err := render.Bind(r, &reg); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(
			slog.String("phone", reg.Phone),
			slog.String("name", reg.Name),
		)

		receipt, err := handler.Register(&reg)
		if err != nil {
			logger.Error("register member", sl.Err(err))
			switch {
			case errors.Is(err, entity.ErrValidation):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(err.Error()))
			case errors.Is(err, entity.ErrDuplicatePhone):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("User with this phone number already exists"))
			case errors.Is(err, entity.ErrAllocationExhausted):
				// transient: the whole request is safe to retry
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("Registration is busy, please retry"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Server error"))
			}
			return
		}
		logger.With(
			slog.String("membership_id", receipt.MembershipID),
		).Debug("member registered")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(receipt))
	}
}
