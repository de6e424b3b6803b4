package staff

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor))
	g.GET("/staff", h.ListStaff)
	g.GET("/staff/doctors", h.ListDoctors)
}

func (h *Handler) ListStaff(c echo.Context) error {
	members, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ActiveDoctors(c.Request().Context(), c.QueryParam("department"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, doctors)
}
