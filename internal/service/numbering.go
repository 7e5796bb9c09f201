package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"po-manager/internal/models"
)

const maxOrderSequence = 9999

var trailingDigits = regexp.MustCompile(`\d+$`)

// OrderNumberPrefix returns the year partition prefix, e.g. "PO-2025-"
func OrderNumberPrefix(year int) string {
	return fmt.Sprintf("PO-%d-", year)
}

// NextOrderNumber derives the number following last within year. last is the
// greatest existing number of that year, or "" when the year has none yet.
func NextOrderNumber(last string, year int) (string, error) {
	prefix := OrderNumberPrefix(year)

	seq := 1
	if last != "" {
		if !strings.HasPrefix(last, prefix) {
			return "", fmt.Errorf("order number %q is outside partition %q", last, prefix)
		}
		digits := trailingDigits.FindString(last)
		if digits != "" {
			n, err := strconv.Atoi(digits)
			if err != nil {
				return "", fmt.Errorf("parse order number %q: %w", last, err)
			}
			seq = n + 1
		}
	}

	if seq > maxOrderSequence {
		return "", fmt.Errorf("%w: %s reached %d orders", models.ErrSequenceExhausted, prefix, maxOrderSequence)
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
