package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

// writeError maps core errors onto HTTP responses.  Anything unrecognised
// is logged and reported as a 500 without detail.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var (
		ve *reservation.ValidationError
		te *reservation.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, reservation.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &te):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          te.Error(),
			"code":           "invalid_transition",
			"current_status": te.From,
			"target_status":  te.To,
		})
	case errors.Is(err, reservation.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, reservation.ErrNoCapacityAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "no_capacity_available"})
	case errors.Is(err, reservation.ErrNoTableAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "code": "no_table_available"})
	case errors.Is(err, reservation.ErrStaleStatus):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation changed concurrently, retry", "code": "status_conflict"})
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		return c.NoContent(499)
	}
	log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
