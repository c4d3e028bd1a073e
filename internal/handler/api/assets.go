// Package api exposes the HTTP surface: asset search, manual cache
// warm-up and health.
package api

import (
	"errors"
	"strings"
	"time"

	"AssetHist/internal/ratelimit"
	"AssetHist/internal/scheduler"
	"AssetHist/internal/search"
	xhttp "AssetHist/pkg/http"
	xlogger "AssetHist/pkg/logger"
	"AssetHist/pkg/util"

	"github.com/labstack/echo/v4"
)

// SearchRequest carries the /api/search query parameters.
type SearchRequest struct {
	Assets  string `query:"assets" validate:"required"`
	MinDate string `query:"minDate" validate:"required"`
	MaxDate string `query:"maxDate" validate:"required"`
}

// AssetsHandler implements the Echo routes over the search resolver
// and the scheduler.
type AssetsHandler struct {
	logger *xlogger.Logger
	search *search.Service
	sched  *scheduler.Scheduler
	rl     *ratelimit.Limiter
}

// NewAssetsHandler creates the handler. The limiter guards the search
// endpoint.
func NewAssetsHandler(logger *xlogger.Logger, svc *search.Service, sched *scheduler.Scheduler, rl *ratelimit.Limiter) *AssetsHandler {
	return &AssetsHandler{
		logger: logger,
		search: svc,
		sched:  sched,
		rl:     rl,
	}
}

// RegisterRoutes registers the HTTP routes.
func (h *AssetsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/search", h.Search)
	g.POST("/scheduler/run", h.RunScheduler)
}

// Search resolves the comma-separated asset expressions over the
// requested date window.
func (h *AssetsHandler) Search(c echo.Context) error {
	req := &SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP() + ":search") {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	minDate, ok := util.ParseTime(req.MinDate)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid minDate %q", req.MinDate))
	}
	maxDate, ok := util.ParseTime(req.MaxDate)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid maxDate %q", req.MaxDate))
	}
	if minDate.After(maxDate) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("minDate is after maxDate"))
	}

	assets := splitAssets(req.Assets)
	if len(assets) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("no assets requested"))
	}

	result, err := h.search.Search(c.Request().Context(), assets, util.StartOfDay(minDate), util.EndOfDay(maxDate))
	if err != nil {
		h.logger.Error("search error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapSearchError(err))
	}

	return xhttp.SuccessResponse(c, result)
}

// RunScheduler triggers a cache warm-up outside the daily schedule.
// An optional assets query param restricts the run to a subset.
func (h *AssetsHandler) RunScheduler(c echo.Context) error {
	if h.sched == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("scheduler is disabled"))
	}

	var failed int
	if assets := splitAssets(c.QueryParam("assets")); len(assets) > 0 {
		failed = h.sched.Run(c.Request().Context(), assets)
	} else {
		failed = h.sched.RunOnce(c.Request().Context())
	}
	return xhttp.SuccessResponse(c, map[string]int{"failed": failed})
}

// Health reports liveness.
func (h *AssetsHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// mapSearchError translates resolver failures: malformed expressions
// and limits are the client's fault, everything else is an upstream
// problem.
func mapSearchError(err error) error {
	switch {
	case errors.Is(err, search.ErrTooManyAssets), errors.Is(err, search.ErrInvalidAsset):
		return xhttp.BadRequestError(err.Error())
	default:
		return xhttp.BadGatewayError(err.Error())
	}
}

func splitAssets(raw string) []string {
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
