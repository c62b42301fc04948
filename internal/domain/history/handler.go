package history

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/respicare/respicare/internal/platform/auth"
	"github.com/respicare/respicare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/histories/:id", h.Get)
	api.GET("/patients/:patientId/histories", h.ListByPatient)

	// Record keeping is restricted to care staff.
	staff := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	staff.POST("/histories", h.Create)
	staff.PUT("/histories/:id", h.Update)
	staff.GET("/histories", h.List)
	staff.GET("/histories/search", h.Search)
	staff.GET("/doctors/:doctorId/histories", h.ListByDoctor)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/histories/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Doctors record visits under their own identity.
	if auth.UserRole(c) == auth.RoleDoctor {
		uid, err := uuid.Parse(auth.UserID(c))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session identity")
		}
		in.DoctorID = uid
		if in.DoctorName == "" {
			in.DoctorName = auth.UserName(c)
		}
	}
	m, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "medical history not found")
	}
	if auth.UserRole(c) == auth.RolePatient && m.PatientID.String() != auth.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "medical history not found")
	}
	if err := c.Bind(m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.Update(c.Request().Context(), m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medical history not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// List serves the staff listing with an optional visit-date range.
func (h *Handler) List(c echo.Context) error {
	fromStr, toStr := c.QueryParam("from"), c.QueryParam("to")
	if fromStr == "" && toStr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from or to date is required")
	}
	from := time.Time{}
	to := time.Now().UTC()
	if fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, expected RFC3339")
		}
		from = t
	}
	if toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, expected RFC3339")
		}
		to = t
	}
	histories, err := h.svc.ListByDateRange(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, histories)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if auth.UserRole(c) == auth.RolePatient && patientID.String() != auth.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	pg := pagination.FromContext(c)
	histories, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(histories, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	pg := pagination.FromContext(c)
	histories, total, err := h.svc.ListByDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(histories, total, pg.Limit, pg.Offset))
}

func (h *Handler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	pg := pagination.FromContext(c)
	histories, total, err := h.svc.Search(c.Request().Context(), query, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(histories, total, pg.Limit, pg.Offset))
}
