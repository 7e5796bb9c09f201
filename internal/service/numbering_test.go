package service

import (
	"testing"

	"po-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOrderNumber(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "PO-2025-0001"},
		{"PO-2025-0001", "PO-2025-0002"},
		{"PO-2025-0041", "PO-2025-0042"},
		{"PO-2025-9998", "PO-2025-9999"},
	}

	for _, tt := range tests {
		got, err := NextOrderNumber(tt.last, 2025)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNextOrderNumberExhausted(t *testing.T) {
	_, err := NextOrderNumber("PO-2025-9999", 2025)
	assert.ErrorIs(t, err, models.ErrSequenceExhausted)
}

func TestNextOrderNumberRejectsOtherYear(t *testing.T) {
	_, err := NextOrderNumber("PO-2024-0007", 2025)
	assert.Error(t, err)
}

func TestOrderNumberPrefix(t *testing.T) {
	assert.Equal(t, "PO-2026-", OrderNumberPrefix(2026))
}
