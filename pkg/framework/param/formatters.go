package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// PercentFormatter formats a normalized value as a percentage.
func PercentFormatter(normalized float64) string {
	return fmt.Sprintf("%.1f%%", normalized*100)
}

// PercentParser parses "42%" or "42" as a percentage.
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return v / 100, nil
}

// FixedFormatter returns a formatter printing normalized values with the
// given number of decimals.
func FixedFormatter(decimals int) func(float64) string {
	return func(normalized float64) string {
		return strconv.FormatFloat(normalized, 'f', decimals, 64)
	}
}
