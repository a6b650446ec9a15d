package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSize renders a byte count using binary units, e.g. "1.5 KB".
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	div := int64(unit)
	exp := 1
	for size/div >= unit && exp < len(units)-1 {
		div *= unit
		exp++
	}

	value := size / div
	// Omit decimals for integer values
	if size%div == 0 {
		return fmt.Sprintf("%d %s", value, units[exp])
	}

	// Three decimal places, computed with integers to avoid float rounding
	remainder := size % div
	decimal := (remainder * 1000) / div

	switch {
	case decimal%10 != 0:
		return fmt.Sprintf("%d.%03d %s", value, decimal, units[exp])
	case decimal%100 != 0:
		return fmt.Sprintf("%d.%02d %s", value, decimal/10, units[exp])
	default:
		return fmt.Sprintf("%d.%d %s", value, decimal/100, units[exp])
	}
}

// FormatDuration renders seconds as hours and zero-padded minutes, e.g. "2h05".
func FormatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%dh%02d", secs/3600, (secs%3600)/60)
}

// FormatMillimetres renders a length with the shortest exact decimal form, e.g. "0.05mm".
func FormatMillimetres(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

// JoinValues renders values separated by " x ", e.g. "1440 x 2560".
func JoinValues[T any](values []T, format func(T) string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, format(v))
	}
	return strings.Join(parts, " x ")
}
