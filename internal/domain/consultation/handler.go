package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/pkg/pagination"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor))
	g.GET("/consultations", h.ListConsultations)
	g.GET("/consultations/:id", h.GetConsultation)
	g.POST("/consultations", h.CreateConsultation)
	g.PATCH("/consultations/:id", h.UpdateConsultation)
	g.POST("/consultations/:id/complete", h.CompleteConsultation)
	g.POST("/consultations/:id/cancel", h.CancelConsultation)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	h.store.FetchAll(c.Request().Context())
	if msg := h.store.Err(); msg != "" {
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}

	all := h.store.Consultations()
	if c.QueryParam("status") != "" {
		want := Status(c.QueryParam("status"))
		filtered := all[:0:0]
		for _, cons := range all {
			if cons.Status == want {
				filtered = append(filtered, cons)
			}
		}
		all = filtered
	}

	p := pagination.FromContext(c)
	total := len(all)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(all[start:end], total, p.Limit, p.Offset))
}

func (h *Handler) GetConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}
	cons, err := h.store.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) CreateConsultation(c echo.Context) error {
	var req NewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.store.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}
	var upd Update
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.store.Update(c.Request().Context(), id, upd)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) CompleteConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var body struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err = h.store.Complete(c.Request().Context(), id, body.Note, user.ID)
	if errors.Is(err, ErrNotActive) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}
	err = h.store.Cancel(c.Request().Context(), id)
	if errors.Is(err, ErrNotActive) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
