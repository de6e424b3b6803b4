package discharge

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/consultation"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

type Handler struct {
	workflow *Workflow
}

func NewHandler(workflow *Workflow) *Handler {
	return &Handler{workflow: workflow}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/discharge", auth.RequireRole(auth.RoleDoctor))
	g.GET("/candidates", h.ListCandidates)
	g.POST("/select", h.SelectCandidate)
	g.POST("/submit", h.Submit)
	g.GET("/state", h.GetState)
}

func (h *Handler) ListCandidates(c echo.Context) error {
	candidates, err := h.workflow.ListCandidates(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, candidates)
}

func (h *Handler) SelectCandidate(c echo.Context) error {
	var body struct {
		Kind      Kind      `json:"kind"`
		EpisodeID uuid.UUID `json:"episode_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Kind == "" || body.EpisodeID == uuid.Nil {
		h.workflow.Select(nil)
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.workflow.SelectByID(body.Kind, body.EpisodeID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, h.workflow.Selected())
}

func (h *Handler) Submit(c echo.Context) error {
	var form Form
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user := auth.UserFromContext(c.Request().Context())

	err := h.workflow.Submit(c.Request().Context(), user, form)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, ErrSubmitting):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, patient.ErrNotActive), errors.Is(err, consultation.ErrNotActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}

func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":    h.workflow.State(),
		"selected": h.workflow.Selected(),
		"error":    h.workflow.Err(),
	})
}
