package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "Walmart\nBananas $3.50\nTOTAL $38.25\n", "parse")
	require.NoError(t, err)

	var parsed models.ParsedReceipt
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "Walmart", parsed.Merchant)
	assert.True(t, parsed.Total.Decimal.Equal(decimal.RequireFromString("38.25")))
	assert.Len(t, parsed.Items, 2)
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, "", "classify", "--merchant", "Uber Trip")
	require.NoError(t, err)
	assert.Equal(t, "negative\n", out)

	out, err = run(t, "", "classify", "Veggie Burger")
	require.NoError(t, err)
	assert.Equal(t, "positive\n", out)

	_, err = run(t, "", "classify")
	assert.Error(t, err)
}

func TestEstimateCommand(t *testing.T) {
	out, err := run(t, "", "estimate", "--amount", "-100", "--score", "10")
	require.NoError(t, err)
	assert.Contains(t, out, `"cashback": 5`)

	out, err = run(t, "", "estimate", "--amount", "-100")
	require.NoError(t, err)
	assert.Contains(t, out, `"co2Kg": null`)

	_, err = run(t, "", "estimate", "--amount", "lots")
	assert.Error(t, err)
}

func TestAttachCommand(t *testing.T) {
	out, err := run(t, "Walmart\nBananas $3.50\nTOTAL $38.25\n", "attach", "--merchant", "WALMART #1234", "--amount", "-40.00")
	require.NoError(t, err)

	var tx models.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &tx))
	assert.NotEmpty(t, tx.ID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-38.25")))
	require.NotNil(t, tx.EcoScore)
	assert.Equal(t, 8, *tx.EcoScore)
	require.NotNil(t, tx.Receipt)
	assert.Equal(t, "stdin.txt", tx.Receipt.FileName)
	assert.True(t, tx.Receipt.Baseline.Amount.Equal(decimal.RequireFromString("-40")))
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, `{"merchant":"A","date":null,"subtotal":null,"tax":null,"total":null,"items":[]}`, "validate")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = run(t, `{"merchant":"A"}`, "validate")
	assert.Error(t, err)
}
