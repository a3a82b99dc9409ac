package handlers

import "github.com/gin-gonic/gin"

// CityRequest asks for a raw upstream response by city name.
type CityRequest struct {
	City string `form:"city" json:"city" validate:"required,min=1,max=100"`
	Type string `form:"type" json:"type" validate:"omitempty,oneof=one forecast"`
}

// CoordsRequest asks for a raw upstream response by coordinates. The
// pointers tell a missing value apart from the equator or the meridian.
type CoordsRequest struct {
	Lat  *float64 `form:"lat" json:"lat" validate:"required,latitude"`
	Lon  *float64 `form:"lon" json:"lon" validate:"required,longitude"`
	Type string   `form:"type" json:"type" validate:"omitempty,oneof=one forecast"`
}

// PageRequest carries the page query string. Either city or both lat and lon
// select the location; lang is a picker display name or an API code.
// Pairing of lat and lon is checked by the handler.
type PageRequest struct {
	City string   `form:"city" json:"city" validate:"omitempty,max=100"`
	Lat  *float64 `form:"lat" json:"lat" validate:"omitempty,latitude"`
	Lon  *float64 `form:"lon" json:"lon" validate:"omitempty,longitude"`
	Lang string   `form:"lang" json:"lang" validate:"omitempty,max=40"`
	Day  string   `form:"day" json:"day" validate:"omitempty,datetime=2006-01-02"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string `json:"error" validate:"required,min=1,max=500"`
	Code    string `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details string `json:"details,omitempty" validate:"omitempty,max=1000"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string                 `json:"status" validate:"required,oneof=ok alive ready"`
	Uptime    string                 `json:"uptime" validate:"required"`
	Timestamp string                 `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// absentIfEmpty clears a coordinate whose query key is missing or blank.
// Binding turns "lat=" into 0, which is a real place.
func absentIfEmpty(c *gin.Context, key string, v **float64) {
	if c.Query(key) == "" {
		*v = nil
	}
}

func (r *CoordsRequest) clearEmpty(c *gin.Context) {
	absentIfEmpty(c, "lat", &r.Lat)
	absentIfEmpty(c, "lon", &r.Lon)
}

func (r *PageRequest) clearEmpty(c *gin.Context) {
	absentIfEmpty(c, "lat", &r.Lat)
	absentIfEmpty(c, "lon", &r.Lon)
}
