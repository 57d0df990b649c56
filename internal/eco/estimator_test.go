package eco

import (
	"testing"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCO2PerDollar(t *testing.T) {
	want := map[int]string{
		10: "0.05", 9: "0.10",
		8: "0.15", 7: "0.25",
		6: "0.40", 5: "0.55",
		4: "0.80", 3: "1.10",
		2: "1.50", 1: "2.00", 0: "2.50",
	}
	for score, v := range want {
		assert.True(t, CO2PerDollar(score).Equal(decimal.RequireFromString(v)), "score %d got %s", score, CO2PerDollar(score))
	}
	for score := MinScore + 1; score <= MaxScore; score++ {
		assert.True(t, CO2PerDollar(score).LessThan(CO2PerDollar(score-1)), "score %d", score)
	}
}

func TestCashbackMonotonic(t *testing.T) {
	for _, amt := range []string{"0.01", "1", "38.25", "999.99", "12345.67"} {
		amount := decimal.RequireFromString(amt)
		prev := decimal.NewFromInt(-1)
		for score := MinScore; score <= MaxScore; score++ {
			s := score
			cb := Estimate(amount, &s, nil).Cashback
			assert.True(t, cb.GreaterThanOrEqual(prev), "amount %s score %d", amt, score)
			prev = cb
		}
	}
}

func TestEstimate_TierRates(t *testing.T) {
	amount := decimal.RequireFromString("-200")
	want := map[int]string{10: "10", 8: "6", 6: "3", 4: "2", 2: "1"}
	for score, cb := range want {
		s := score
		got := Estimate(amount, &s, nil)
		assert.True(t, got.Cashback.Equal(decimal.RequireFromString(cb)), "score %d got %s", score, got.Cashback)
	}
}

func TestEstimate_NoScore(t *testing.T) {
	got := Estimate(decimal.RequireFromString("-38.25"), nil, ScoreItems([]models.LineItem{{Name: "Kale", Price: decimal.NewFromInt(3)}}))
	assert.True(t, got.Cashback.IsZero())
	assert.False(t, got.CO2Kg.Valid)
}

func TestEstimate_TransactionLevel(t *testing.T) {
	s := 8
	got := Estimate(decimal.RequireFromString("-38.25"), &s, nil)
	assert.True(t, got.Cashback.Equal(decimal.RequireFromString("1.15")), got.Cashback.String())
	require.True(t, got.CO2Kg.Valid)
	// 38.25 * 0.15 = 5.7375
	assert.True(t, got.CO2Kg.Decimal.Equal(decimal.RequireFromString("5.738")), got.CO2Kg.Decimal.String())
}

func TestEstimate_ItemOverride(t *testing.T) {
	s := 6
	items := []models.ItemEcoScore{
		{Item: models.LineItem{Name: "Beef Burger", Price: decimal.NewFromInt(10)}},
		{Item: models.LineItem{Name: "Organic Kale", Price: decimal.NewFromInt(5)}},
		{Item: models.LineItem{Name: "Paper Towels", Price: decimal.NewFromInt(2)}},
	}
	got := Estimate(decimal.RequireFromString("-17"), &s, items)
	// 0.40 * (10*2.5 + 5*0.4 + 2*1.0) = 0.40 * 29 = 11.6
	require.True(t, got.CO2Kg.Valid)
	assert.True(t, got.CO2Kg.Decimal.Equal(decimal.RequireFromString("11.6")), got.CO2Kg.Decimal.String())

	require.Len(t, got.Items, 3)
	for i, want := range []string{"10", "0.8", "0.8"} {
		require.True(t, got.Items[i].CO2Kg.Valid, got.Items[i].Item.Name)
		assert.True(t, got.Items[i].CO2Kg.Decimal.Equal(decimal.RequireFromString(want)), got.Items[i].CO2Kg.Decimal.String())
	}
	assert.False(t, items[0].CO2Kg.Valid, "input items must not be modified")

	zero := []models.ItemEcoScore{{Item: models.LineItem{Name: "Free sample"}}}
	got = Estimate(decimal.RequireFromString("-10"), &s, zero)
	assert.True(t, got.CO2Kg.Decimal.Equal(decimal.RequireFromString("4")), got.CO2Kg.Decimal.String())

	unscored := Estimate(decimal.RequireFromString("-17"), nil, items)
	require.Len(t, unscored.Items, 3)
	assert.False(t, unscored.Items[0].CO2Kg.Valid)
}

func TestCategoryMultiplier(t *testing.T) {
	tests := map[string]string{
		"Angus Steak":      "2.5",
		"Chicken Thighs":   "1.8",
		"Oat Milk":         "1.4",
		"Frozen Pizza":     "1.2",
		"Local Honey":      "0.4",
		"Black Beans":      "0.3",
		"Paper Towels":     "1",
		"Chicken Burger":   "2.5",
		"Organic Broccoli": "0.4",
	}
	for name, want := range tests {
		assert.True(t, CategoryMultiplier(name).Equal(decimal.RequireFromString(want)), name)
	}
}
