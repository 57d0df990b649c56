package services

import (
	"strings"
	"testing"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderReminderRows(t *testing.T) {
	rows := RenderReminderRows([]models.Transaction{
		{Date: "2025-09-15", Merchant: "Costco", Amount: decimal.RequireFromString("-101.5")},
	})
	assert.Equal(t, 1, strings.Count(rows, "<tr>"))
	assert.Contains(t, rows, "Costco")
	assert.Contains(t, rows, "$101.50")

	assert.Empty(t, RenderReminderRows(nil))
}

func TestRenderReminderBody(t *testing.T) {
	body := RenderReminderBody([]models.Transaction{{Merchant: "Amazon", Amount: decimal.NewFromInt(-3)}})
	assert.Contains(t, body, "1 purchase(s)")
	assert.Contains(t, body, "width: 100%;")
	assert.Contains(t, body, "Amazon")
}
