package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/openweather"
	"github.com/vzahanych/weather-page/internal/server/utils"
	"go.uber.org/zap"
)

// WeatherHandler passes raw OpenWeatherMap responses through the cached client.
type WeatherHandler struct {
	client *openweather.Client
	logger *zap.Logger
}

func NewWeatherHandler(client *openweather.Client, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		client: client,
		logger: logger,
	}
}

func (h *WeatherHandler) ByCity(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req CityRequest
	if !bindQuery(c, reqLogger, &req) {
		return
	}

	kind, err := openweather.ParseKind(req.Type)
	if err != nil {
		badRequest(c, reqLogger, err.Error())
		return
	}

	reqLogger.Info("Processing weather request",
		zap.String("city", req.City),
		zap.String("type", string(kind)))

	body, err := h.client.ByCity(ctx, req.City, kind)
	if err != nil {
		h.upstreamError(c, reqLogger, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *WeatherHandler) ByCoords(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req CoordsRequest
	if !bindQuery(c, reqLogger, &req) {
		return
	}

	kind, err := openweather.ParseKind(req.Type)
	if err != nil {
		badRequest(c, reqLogger, err.Error())
		return
	}

	coords := openweather.Coords{Lat: *req.Lat, Lon: *req.Lon}
	reqLogger.Info("Processing weather request",
		zap.Float64("lat", coords.Lat),
		zap.Float64("lon", coords.Lon),
		zap.String("type", string(kind)))

	body, err := h.client.ByLatLong(ctx, coords, kind)
	if err != nil {
		h.upstreamError(c, reqLogger, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *WeatherHandler) upstreamError(c *gin.Context, reqLogger *zap.Logger, err error) {
	status := upstreamStatus(err)
	if status == http.StatusNotFound {
		reqLogger.Info("Location not found", zap.Error(err))
		c.JSON(status, ErrorResponse{
			Error:   openweather.ErrNotFound.Error(),
			Code:    "CITY_NOT_FOUND",
			Details: err.Error(),
		})
		return
	}

	reqLogger.Error("Failed to get weather data", zap.Error(err))
	c.JSON(status, ErrorResponse{
		Error:   "Failed to fetch weather data",
		Code:    "UPSTREAM_ERROR",
		Details: err.Error(),
	})
}

// upstreamStatus maps a client error to the response status: rejected
// lookups are 404, upstream outages and transport errors are 502.
func upstreamStatus(err error) int {
	var statusErr *openweather.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= http.StatusInternalServerError {
		return http.StatusBadGateway
	}
	if openweather.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// bindQuery binds and validates the query string into req, answering 400
// itself when either step fails.
func bindQuery(c *gin.Context, reqLogger *zap.Logger, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		badRequest(c, reqLogger, err.Error())
		return false
	}
	if q, ok := req.(interface{ clearEmpty(*gin.Context) }); ok {
		q.clearEmpty(c)
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		badRequest(c, reqLogger, utils.Summary(errs))
		return false
	}
	return true
}

func badRequest(c *gin.Context, reqLogger *zap.Logger, details string) {
	reqLogger.Warn("Invalid request parameters", zap.String("details", details))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request parameters",
		Code:    "INVALID_PARAMS",
		Details: details,
	})
}
