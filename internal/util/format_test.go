package util

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"Zero bytes", 0, "0 B"},
		{"Small bytes", 512, "512 B"},
		{"Max bytes", 1023, "1023 B"},
		{"Exact 1 KB", 1024, "1 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"1.25 KB", 1280, "1.25 KB"},
		{"Exact 1 MB", 1048576, "1 MB"},
		{"1.5 MB", 1572864, "1.5 MB"},
		{"Exact 1 GB", 1073741824, "1 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSize(tt.size))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs     int
		expected string
	}{
		{0, "0h00"},
		{59, "0h00"},
		{60, "0h01"},
		{3840, "1h04"},
		{9840, "2h44"},
		{36000, "10h00"},
		{-5, "0h00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.secs), "FormatDuration(%d)", tt.secs)
	}
}

func TestFormatMillimetres(t *testing.T) {
	assert.Equal(t, "0.05mm", FormatMillimetres(0.05))
	assert.Equal(t, "150mm", FormatMillimetres(150))
	assert.Equal(t, "20.5mm", FormatMillimetres(20.5))
}

func TestJoinValues(t *testing.T) {
	assert.Equal(t, "1440 x 2560", JoinValues([]int{1440, 2560}, strconv.Itoa))
	assert.Equal(t, "68.04mm x 120.96mm x 150mm", JoinValues([]float64{68.04, 120.96, 150}, FormatMillimetres))
	assert.Equal(t, "", JoinValues([]int{}, func(int) string { return "x" }))
}
