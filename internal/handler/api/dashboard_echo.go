package api

import (
	"errors"
	"net/http"

	models "MarketCal/internal/domain/models"
	domrepo "MarketCal/internal/domain/repository"
	"MarketCal/internal/export"
	"MarketCal/internal/pattern"
	"MarketCal/internal/usecase"
	xhttp "MarketCal/pkg/http"
	xlogger "MarketCal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardEchoHandler serves the calendar, order-book, and indicator
// endpoints of the dashboard API.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	calendar *usecase.CalendarUsecase
	live     *usecase.LiveSession
	source   domrepo.MarketDataSource
}

func NewDashboardEchoHandler(
	logger *xlogger.Logger,
	calendar *usecase.CalendarUsecase,
	live *usecase.LiveSession,
	source domrepo.MarketDataSource,
) *DashboardEchoHandler {
	return &DashboardEchoHandler{logger: logger, calendar: calendar, live: live, source: source}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/calendar", h.Calendar)
	g.GET("/calendar/summary", h.Summary)
	g.GET("/calendar/export", h.Export)
	g.GET("/orderbook", h.OrderBook)
	g.GET("/ticker", h.Ticker)
	g.GET("/indicators", h.Indicators)
	g.GET("/patterns", h.Patterns)
	g.POST("/refresh", h.Refresh)
}

func (h *DashboardEchoHandler) Calendar(c echo.Context) error {
	req := &models.CalendarRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series, err := h.calendar.GetCalendar(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("calendar usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, series)
}

func (h *DashboardEchoHandler) Summary(c echo.Context) error {
	req := &models.CalendarRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	summary, err := h.calendar.GetSummary(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("summary usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *DashboardEchoHandler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.Timeframe)

	series, err := h.calendar.GetCalendar(c.Request().Context(), models.CalendarRequest{
		Symbol:    req.Symbol,
		Timeframe: string(tf),
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("export usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+export.Filename(req.Symbol, tf)+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteCSV(c.Response(), series)
}

// OrderBook serves the live replica. Requesting a different symbol
// retargets the live session before responding.
func (h *DashboardEchoHandler) OrderBook(c echo.Context) error {
	req := &models.OrderBookRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Symbol != h.live.Symbol() {
		if err := h.live.ChangeSymbol(c.Request().Context(), req.Symbol); err != nil {
			h.logger.Error("symbol switch failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	}

	book := h.live.OrderBook()
	if req.Depth > 0 && req.Depth < len(book.Bids) {
		book.Bids = book.Bids[:req.Depth]
	}
	if req.Depth > 0 && req.Depth < len(book.Asks) {
		book.Asks = book.Asks[:req.Depth]
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"book":   book,
		"stats":  h.live.Stats(),
		"status": h.live.Status(),
	})
}

// Ticker serves the live snapshot for the tracked symbol and falls
// back to a one-off fetch for any other.
func (h *DashboardEchoHandler) Ticker(c echo.Context) error {
	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Symbol == h.live.Symbol() {
		return xhttp.SuccessResponse(c, h.live.Ticker())
	}
	ticker, err := h.source.FetchTicker(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("ticker fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, ticker)
}

func (h *DashboardEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	set, err := h.calendar.GetIndicators(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, set)
}

func (h *DashboardEchoHandler) Patterns(c echo.Context) error {
	req := &models.PatternsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.calendar.GetPatterns(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, pattern.ErrSuperseded) {
			return xhttp.AppErrorResponse(c, xhttp.WorkerError("pattern run superseded by a newer request"))
		}
		h.logger.Error("patterns usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.calendar.Refresh(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("refresh usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"refreshed": req.Symbol})
}
