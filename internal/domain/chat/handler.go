package chat

import (
	"errors"
	"net/http"

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
	api.POST("/chat/conversations", h.Start)
	api.GET("/chat/conversations", h.ListMine)
	api.GET("/chat/conversations/:id", h.Get)
	api.POST("/chat/conversations/:id/messages", h.SendMessage)
	api.POST("/chat/conversations/:id/close", h.Close)

	staff := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	staff.GET("/chat/search", h.Search)
	staff.GET("/chat/statistics", h.Statistics)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/chat/conversations/:id", h.Delete)
}

func sessionUser(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(auth.UserID(c))
}

type startRequest struct {
	Title string `json:"title"`
}

func (h *Handler) Start(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session identity")
	}
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	conv, err := h.svc.Start(c.Request().Context(), userID, auth.UserName(c), req.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, conv)
}

func (h *Handler) ListMine(c echo.Context) error {
	userID, err := sessionUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session identity")
	}
	pg := pagination.FromContext(c)
	convs, total, err := h.svc.ListByUser(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(convs, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	conv, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	role := auth.UserRole(c)
	if role != auth.RoleDoctor && role != auth.RoleAdmin && conv.UserID.String() != auth.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return c.JSON(http.StatusOK, conv)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) SendMessage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, err := sessionUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session identity")
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	conv, err := h.svc.SendMessage(c.Request().Context(), id, userID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		case errors.Is(err, ErrClosed), errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMaxMessageBytes):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *Handler) Close(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID, err := sessionUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session identity")
	}
	conv, err := h.svc.Close(c.Request().Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		case errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	convs, total, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(convs, total, pg.Limit, pg.Offset))
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
