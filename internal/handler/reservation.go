// Package handler contains the echo handlers of the HTTP API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

// ReservationService is what the HTTP layer needs from reservation.Service.
type ReservationService interface {
	CreateReservation(ctx context.Context, req reservation.Request) (model.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, target model.Status) (model.Reservation, error)
	GetReservation(ctx context.Context, id string) (model.ReservationView, error)
	ListReservations(ctx context.Context, f reservation.Filter) ([]model.ReservationView, error)
}

// ReservationHandler serves /v1/reservations.  Dates and times in requests
// are wall-clock values in the restaurant's time zone.
type ReservationHandler struct {
	svc ReservationService
	loc *time.Location
	log *slog.Logger
}

// NewReservationHandler panics on a nil service.  A nil location means UTC.
func NewReservationHandler(svc ReservationService, loc *time.Location, logger *slog.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHandler{svc: svc, loc: loc, log: logger}
}

type createReservationRequest struct {
	GuestName string `json:"guest_name" validate:"required,max=100"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
	PartySize int    `json:"party_size"`
}

// Create handles POST /v1/reservations.  It returns 201 with the confirmed
// reservation and its table, or 409 when no table can take the party.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.GuestName = strings.TrimSpace(body.GuestName)
	if err := c.Validate(&body); err != nil {
		return h.invalidBody(c, err)
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", body.Date+" "+body.Time, h.loc)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date or time"})
	}

	r, err := h.svc.CreateReservation(c.Request().Context(), reservation.Request{
		GuestName: body.GuestName,
		PartySize: body.PartySize,
		StartsAt:  start,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// List handles GET /v1/reservations?status=&day=YYYY-MM-DD&include_past=.
func (h *ReservationHandler) List(c echo.Context) error {
	var f reservation.Filter
	f.Status = model.Status(strings.TrimSpace(c.QueryParam("status")))
	if day := c.QueryParam("day"); day != "" {
		d, err := time.ParseInLocation("2006-01-02", day, h.loc)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be YYYY-MM-DD", "field": "day"})
		}
		f.Day = d
	}
	if s := c.QueryParam("include_past"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "include_past must be a boolean", "field": "include_past"})
		}
		f.IncludePast = v
	}

	views, err := h.svc.ListReservations(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views, "count": len(views)})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := reservationID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	v, err := h.svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.  Disallowed
// transitions answer 409 naming the current and requested statuses.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok := reservationID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	var body updateStatusRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return h.invalidBody(c, err)
	}

	r, err := h.svc.UpdateReservationStatus(c.Request().Context(), id, model.Status(strings.TrimSpace(body.Status)))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReservationHandler) invalidBody(c echo.Context, err error) error {
	if fields, ok := fieldErrors(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "fields": fields})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
}

// reservationID returns the :id path parameter when it is a UUID.
func reservationID(c echo.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
