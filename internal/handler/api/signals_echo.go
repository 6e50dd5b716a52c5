package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	icache "FinSignal/internal/service/cache"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/util"
)

// SignalsHandler exposes scoring, temporal analysis and signal history over HTTP.
type SignalsHandler struct {
	pipeline *usecase.SignalPipeline
	store    domrepo.SignalStore
	cache    icache.BytesCache
	cacheTTL time.Duration
	mw       []echo.MiddlewareFunc
	l        *applogger.Logger
	now      func() time.Time
}

type HandlerOption func(*SignalsHandler)

// WithStore enables ranged queries and the store health check.
func WithStore(s domrepo.SignalStore) HandlerOption {
	return func(h *SignalsHandler) { h.store = s }
}

// WithTemporalCache caches temporal responses per symbol for ttl.
func WithTemporalCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *SignalsHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithGroupMiddleware applies mw to the /api/v1 group only.
func WithGroupMiddleware(mw ...echo.MiddlewareFunc) HandlerOption {
	return func(h *SignalsHandler) { h.mw = append(h.mw, mw...) }
}

func NewSignalsHandler(pipeline *usecase.SignalPipeline, l *applogger.Logger, opts ...HandlerOption) *SignalsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	h := &SignalsHandler{pipeline: pipeline, l: l, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1", h.mw...)
	g.POST("/score", h.Score)
	g.GET("/temporal", h.Temporal)
	g.GET("/signals", h.Signals)
	g.GET("/signals/summary", h.Summary)
	e.GET("/healthz", h.Health)
}

func (h *SignalsHandler) Score(c echo.Context) error {
	req := &models.SentimentInput{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.pipeline.Process(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.l.Error("score failed", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsHandler) Temporal(c echo.Context) error {
	req := &models.TemporalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.TrimSpace(req.Symbol)
	key := "temporal:" + symbol

	if h.cache != nil {
		b, ok, err := h.cache.GetBytes(key)
		if err != nil {
			h.l.Warn("temporal cache get failed", applogger.String("key", key), applogger.Error(err))
		} else if ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	body, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    h.pipeline.Temporal(symbol),
	})
	if err != nil {
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil && h.cacheTTL > 0 {
		if err := h.cache.SetBytes(key, body, h.cacheTTL); err != nil {
			h.l.Warn("temporal cache set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *SignalsHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.TrimSpace(req.Symbol)

	if req.From == "" && req.To == "" {
		rows := h.pipeline.History().Recent(symbol, req.Limit)
		return xhttp.ListResponse(c, rows, int64(len(rows)))
	}

	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal store is not configured"))
	}
	to := h.now().UTC()
	if req.To != "" {
		t, ok := util.ParseTime(req.To)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid to: %q", req.To))
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if req.From != "" {
		t, ok := util.ParseTime(req.From)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid from: %q", req.From))
		}
		from = t
	}
	if from.After(to) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must not be after to"))
	}

	rows, err := h.store.QuerySignals(c.Request().Context(), symbol, from, to, req.Limit)
	if err != nil {
		h.l.Error("signal query failed", applogger.String("symbol", symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal store query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsHandler) Summary(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.pipeline.History().Summary())
}

// Health reports 503 when a configured store does not answer.
func (h *SignalsHandler) Health(c echo.Context) error {
	status := map[string]string{"pipeline": "ok"}
	healthy := true
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Health(ctx); err != nil {
			status["store"] = err.Error()
			healthy = false
		} else {
			status["store"] = "ok"
		}
	}
	if !healthy {
		return xhttp.ServiceUnavailableResponse(c, status)
	}
	return xhttp.SuccessResponse(c, status)
}
