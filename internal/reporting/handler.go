package reporting

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/appointment"
	"github.com/caretrack/caretrack/internal/domain/consultation"
	"github.com/caretrack/caretrack/internal/domain/patient"
	"github.com/caretrack/caretrack/internal/domain/staff"
	"github.com/caretrack/caretrack/internal/platform/auth"
)

type Handler struct {
	patients      *patient.Store
	consultations *consultation.Store
	appointments  *appointment.Store
	staff         *staff.Service
}

func NewHandler(p *patient.Store, c *consultation.Store, a *appointment.Store, s *staff.Service) *Handler {
	return &Handler{patients: p, consultations: c, appointments: a, staff: s}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleDoctor))
	g.GET("/specialties/:name", h.SpecialtySnapshot)
	g.GET("/safety", h.SafetyStats)
	g.GET("/summary", h.Summary)
	g.GET("/workload", h.Workload)
	g.GET("/episodes", h.Episodes)
}

func windowFromQuery(c echo.Context) (Window, error) {
	var w Window
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return w, echo.NewHTTPError(http.StatusBadRequest, "invalid from date, want YYYY-MM-DD")
		}
		w.Start = t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return w, echo.NewHTTPError(http.StatusBadRequest, "invalid to date, want YYYY-MM-DD")
		}
		// include the whole end day
		w.End = t.Add(24*time.Hour - time.Nanosecond)
	}
	return w, nil
}

// refresh reloads the stores the report reads from.
func (h *Handler) refresh(c echo.Context) error {
	ctx := c.Request().Context()
	h.patients.FetchAll(ctx)
	if msg := h.patients.Err(); msg != "" {
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}
	h.consultations.FetchAll(ctx)
	if msg := h.consultations.Err(); msg != "" {
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}
	h.appointments.FetchAll(ctx)
	if msg := h.appointments.Err(); msg != "" {
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}
	return nil
}

func (h *Handler) SpecialtySnapshot(c echo.Context) error {
	w, err := windowFromQuery(c)
	if err != nil {
		return err
	}
	if err := h.refresh(c); err != nil {
		return err
	}
	snap := SnapshotSpecialty(h.patients.Patients(), h.consultations.Consultations(), w, c.Param("name"))
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) SafetyStats(c echo.Context) error {
	w, err := windowFromQuery(c)
	if err != nil {
		return err
	}
	if err := h.refresh(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SafetyAdmissionStats(h.patients.Patients(), w))
}

func (h *Handler) Summary(c echo.Context) error {
	w, err := windowFromQuery(c)
	if err != nil {
		return err
	}
	if err := h.refresh(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, Summarize(h.patients.Patients(), h.consultations.Consultations(), w))
}

func (h *Handler) Workload(c echo.Context) error {
	w, err := windowFromQuery(c)
	if err != nil {
		return err
	}
	if err := h.refresh(c); err != nil {
		return err
	}
	doctors, err := h.staff.ActiveDoctors(c.Request().Context(), c.QueryParam("department"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	wl := DoctorWorkload(doctors, h.patients.Patients(), h.consultations.Consultations(), w, c.QueryParam("department"))
	return c.JSON(http.StatusOK, wl)
}

// Episodes returns the filtered report rows across all three entity
// collections.
func (h *Handler) Episodes(c echo.Context) error {
	w, err := windowFromQuery(c)
	if err != nil {
		return err
	}
	if err := h.refresh(c); err != nil {
		return err
	}
	f := Filters{
		Window:    w,
		Specialty: c.QueryParam("specialty"),
		Query:     c.QueryParam("q"),
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patients":      f.FilterPatients(h.patients.Patients()),
		"consultations": f.FilterConsultations(h.consultations.Consultations()),
		"appointments":  f.FilterAppointments(h.appointments.Appointments()),
	})
}
