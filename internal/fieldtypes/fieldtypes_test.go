package fieldtypes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"benefit-calculator/internal/model"
)

func TestRegistryCoversEveryDataType(t *testing.T) {
	for _, dt := range []model.DataType{model.DataTypeString, model.DataTypeDouble, model.DataTypeBoolean, model.DataTypeDate} {
		_, ok := Get(dt)
		assert.True(t, ok, "missing handler for %s", dt)
	}
	_, ok := Get("Currency")
	assert.False(t, ok)
	assert.Equal(t, model.WireTypeString, For("Currency").WireType())
}

func TestWireTypes(t *testing.T) {
	assert.Equal(t, model.WireTypeDouble, For(model.DataTypeDouble).WireType())
	assert.Equal(t, model.WireTypeString, For(model.DataTypeString).WireType())
	assert.Equal(t, model.WireTypeString, For(model.DataTypeBoolean).WireType())
	assert.Equal(t, model.WireTypeString, For(model.DataTypeDate).WireType())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"50000.5", 50000.5, true},
		{" 12 ", 12, true},
		{42.0, 42, true},
		{7, 7, true},
		{"abc", 0, false},
		{"12abc", 0, false},
		{true, 1, true},
		{false, 0, true},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestDoubleConvertPassesNaNThrough(t *testing.T) {
	got := For(model.DataTypeDouble).Convert("not a number")
	f, ok := got.(float64)
	assert.True(t, ok)
	assert.True(t, math.IsNaN(f))
}

func TestBooleanConvert(t *testing.T) {
	h := For(model.DataTypeBoolean)
	assert.Equal(t, false, h.Convert(false))
	assert.Equal(t, true, h.Convert(true))
	assert.Equal(t, true, h.Convert("false"))
	assert.Equal(t, true, h.Convert("no"))
	assert.Equal(t, true, h.Convert(0.0))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-31", "2024-02-29", "01/15/2024", "2024-01-15T10:00:00Z"} {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"not a date", "2023-02-30", "2024-13-01"} {
		_, ok := ParseDate(s)
		assert.False(t, ok, s)
	}
}
