package note

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/auth"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor))
	g.GET("/patients/:id/notes", h.ListPatientNotes)
	g.POST("/patients/:id/notes", h.CreateNote)
}

func (h *Handler) ListPatientNotes(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	notes, err := h.repo.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) CreateNote(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var body struct {
		Type    Type   `json:"type"`
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !body.Type.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid note type")
	}
	if body.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "note content is required")
	}

	n := &MedicalNote{
		PatientID: patientID,
		DoctorID:  user.ID,
		Type:      body.Type,
		Content:   body.Content,
	}
	if err := h.repo.Insert(c.Request().Context(), n); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, n)
}
