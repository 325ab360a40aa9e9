package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// TableLister lists the restaurant's tables.
type TableLister interface {
	List(ctx context.Context) ([]model.Table, error)
}

type TableHandler struct {
	tables TableLister
	log    *slog.Logger
}

func NewTableHandler(tables TableLister, logger *slog.Logger) *TableHandler {
	if tables == nil {
		panic("nil TableLister passed to NewTableHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TableHandler{tables: tables, log: logger}
}

// List handles GET /v1/tables.
func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.tables.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	if tables == nil {
		tables = []model.Table{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tables})
}
