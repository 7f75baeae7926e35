package scheduling

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
	"github.com/connectcare/telehealth/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the /consultations endpoints on g, which must
// already require authentication.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateAppointment)
	g.GET("", h.ListAll, auth.RequireRole(auth.RoleDoctor))
	g.GET("/:id", h.GetAppointment)
	g.GET("/patient/:patientId", h.ListByPatient)
	g.GET("/doctor/:doctorId", h.ListByDoctor, auth.RequireRole(auth.RoleDoctor))
	g.PATCH("/:id", h.UpdateAppointment, auth.RequireRole(auth.RoleDoctor))
	g.DELETE("/:id", h.DeleteAppointment, auth.RequireRole(auth.RoleAdmin))
}

type bookingRequest struct {
	PatientID        int64  `json:"patient_id"`
	DoctorID         int64  `json:"doctor_id"`
	ConsultationDate string `json:"consultation_date"`
	Notes            string `json:"notes"`
}

// actsFor reports whether the caller may read or book for patientID.
// Patients are limited to their own records.
func actsFor(ctx context.Context, patientID int64) bool {
	if auth.RoleFromContext(ctx) != auth.RolePatient {
		return true
	}
	return auth.SubjectIDFromContext(ctx) == patientID
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name, "%s must be a positive integer", name)
	}
	return id, nil
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	if req.PatientID == 0 && auth.RoleFromContext(ctx) == auth.RolePatient {
		req.PatientID = auth.SubjectIDFromContext(ctx)
	}
	if req.ConsultationDate == "" {
		return apperr.Invalid("consultation_date", "consultation_date is required")
	}
	date, err := ParseDate(req.ConsultationDate)
	if err != nil {
		return apperr.Invalid("consultation_date", "consultation_date must be YYYY-MM-DD")
	}
	if req.PatientID > 0 && !actsFor(ctx, req.PatientID) {
		return apperr.ErrForbidden
	}

	a, err := h.svc.CreateAppointment(ctx, Booking{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !actsFor(c.Request().Context(), a.PatientID) {
		// Hide existence from other patients.
		return apperr.NotFound("consultation")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := pathID(c, "patientId")
	if err != nil {
		return err
	}
	if !actsFor(c.Request().Context(), patientID) {
		return apperr.ErrForbidden
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(nonNil(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(nonNil(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAll(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(nonNil(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var u AppointmentUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func nonNil(items []*Appointment) []*Appointment {
	if items == nil {
		return []*Appointment{}
	}
	return items
}
