package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordsQuery struct {
	Lat  *float64 `form:"lat" validate:"required,latitude"`
	Lon  *float64 `form:"lon" validate:"omitempty,longitude"`
	Name string   `form:"name" validate:"omitempty,max=5"`
}

func ptr(v float64) *float64 { return &v }

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(&coordsQuery{Lat: ptr(0)}), "zero is a valid latitude")
	assert.Empty(t, ValidateStruct(&coordsQuery{Lat: ptr(-90), Lon: ptr(180)}))

	errs := ValidateStruct(&coordsQuery{})
	require.Len(t, errs, 1)
	assert.Equal(t, "lat", errs[0].Field)
	assert.Equal(t, "required", errs[0].Tag)
	assert.Equal(t, "lat is required", errs[0].Message)

	errs = ValidateStruct(&coordsQuery{Lat: ptr(90.5), Lon: ptr(-200), Name: "toolong"})
	require.Len(t, errs, 3)
	assert.Equal(t,
		"lat must be a valid latitude between -90 and 90 degrees; "+
			"lon must be a valid longitude between -180 and 180 degrees; "+
			"name must be at most 5 characters long",
		Summary(errs))
}
