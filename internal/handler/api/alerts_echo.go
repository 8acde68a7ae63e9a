package api

import (
	"errors"

	models "MarketCal/internal/domain/models"
	"MarketCal/internal/repository"
	"MarketCal/internal/usecase"
	xhttp "MarketCal/pkg/http"
	xlogger "MarketCal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertsEchoHandler serves alert-rule CRUD and on-demand evaluation.
type AlertsEchoHandler struct {
	logger *xlogger.Logger
	alerts *usecase.AlertUsecase
}

func NewAlertsEchoHandler(logger *xlogger.Logger, alerts *usecase.AlertUsecase) *AlertsEchoHandler {
	return &AlertsEchoHandler{logger: logger, alerts: alerts}
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/alerts")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/evaluate", h.Evaluate)
}

func (h *AlertsEchoHandler) List(c echo.Context) error {
	alerts, err := h.alerts.List(c.Request().Context())
	if err != nil {
		h.logger.Error("alert list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, alerts)
}

func (h *AlertsEchoHandler) Create(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alert, err := h.alerts.Create(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("alert create error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, alert)
}

func (h *AlertsEchoHandler) Update(c echo.Context) error {
	id := c.Param("id")
	req := &models.UpdateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alert, err := h.alerts.Update(c.Request().Context(), id, *req)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("alert %s not found", id))
		}
		h.logger.Error("alert update error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, alert)
}

func (h *AlertsEchoHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.alerts.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("alert %s not found", id))
		}
		h.logger.Error("alert delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *AlertsEchoHandler) Evaluate(c echo.Context) error {
	evaluations, err := h.alerts.Evaluate(c.Request().Context())
	if err != nil {
		h.logger.Error("alert evaluation error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, evaluations)
}
