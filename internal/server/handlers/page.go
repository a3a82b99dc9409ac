package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/page"
	"github.com/vzahanych/weather-page/internal/server/utils"
	"github.com/vzahanych/weather-page/pkg/logger"
	"go.uber.org/zap"
)

// IndexTemplate is the name of the page template registered on the engine.
const IndexTemplate = "index.html"

var errUnpairedCoords = errors.New("lat and lon must be given together")

type PageHandler struct {
	builder *page.Builder
	logger  *zap.Logger
}

func NewPageHandler(builder *page.Builder, logger *zap.Logger) *PageHandler {
	return &PageHandler{
		builder: builder,
		logger:  logger,
	}
}

// Index renders the weather page. Without a city or coordinates it shows
// the empty landing page.
func (h *PageHandler) Index(c *gin.Context) {
	requestID := utils.GetRequestIDFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", requestID))
	ctx := logger.WithContext(utils.GetContextFromGinContext(c), reqLogger)

	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.renderInvalid(c, reqLogger, req.Lang, err.Error())
		return
	}
	req.clearEmpty(c)
	if errs := utils.ValidateStruct(&req); len(errs) > 0 {
		h.renderInvalid(c, reqLogger, req.Lang, utils.Summary(errs))
		return
	}
	if unpaired(req) {
		h.renderInvalid(c, reqLogger, req.Lang, errUnpairedCoords.Error())
		return
	}

	if req.City == "" && req.Lat == nil {
		c.HTML(http.StatusOK, IndexTemplate, h.builder.Blank(req.Lang))
		return
	}

	p, err := h.builder.Build(ctx, toQuery(req))
	c.HTML(statusFor(err), IndexTemplate, p)
}

// Page returns the same data as Index as JSON.
func (h *PageHandler) Page(c *gin.Context) {
	requestID := utils.GetRequestIDFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", requestID))
	ctx := logger.WithContext(utils.GetContextFromGinContext(c), reqLogger)

	var req PageRequest
	if !bindQuery(c, reqLogger, &req) {
		return
	}
	if unpaired(req) {
		badRequest(c, reqLogger, errUnpairedCoords.Error())
		return
	}

	p, err := h.builder.Build(ctx, toQuery(req))
	if err != nil {
		status := statusFor(err)
		code := "UPSTREAM_ERROR"
		switch status {
		case http.StatusBadRequest:
			code = "INVALID_PARAMS"
		case http.StatusNotFound:
			code = "CITY_NOT_FOUND"
		}
		c.JSON(status, ErrorResponse{
			Error:   p.Error,
			Code:    code,
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *PageHandler) renderInvalid(c *gin.Context, reqLogger *zap.Logger, lang, details string) {
	reqLogger.Warn("Invalid request parameters", zap.String("details", details))
	p := h.builder.Blank(lang)
	p.Error = details
	c.HTML(http.StatusBadRequest, IndexTemplate, p)
}

func unpaired(req PageRequest) bool {
	return (req.Lat == nil) != (req.Lon == nil)
}

func toQuery(req PageRequest) page.Query {
	return page.Query{
		City: req.City,
		Lat:  req.Lat,
		Lon:  req.Lon,
		Lang: req.Lang,
		Day:  req.Day,
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, page.ErrEmptyQuery):
		return http.StatusBadRequest
	default:
		return upstreamStatus(err)
	}
}
