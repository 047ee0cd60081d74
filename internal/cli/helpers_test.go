package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0s"},
		{45, "45s"},
		{184, "3m 4s"},
		{3600, "1h 0m"},
		{7500, "2h 5m"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, formatSeconds(tc.seconds), "for %d seconds", tc.seconds)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1 << 20, "5.0 MB"},
		{3 * 1 << 30, "3.0 GB"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, formatBytes(tc.bytes))
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n        int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, formatNumber(tc.n))
	}
}
