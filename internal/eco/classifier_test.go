package eco

import (
	"testing"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		merchant string
		items    []string
		want     models.EcoClassification
	}{
		{"transit", "SEPTA Metro", nil, models.EcoPositive},
		{"monthly pass", "Monthly Pass Kiosk", nil, models.EcoPositive},
		{"market", "Union Square Farmers Market", nil, models.EcoPositive},
		{"co-op", "Park Slope Co-op", nil, models.EcoPositive},
		{"rideshare", "UBER *TRIP", nil, models.EcoNegative},
		{"fuel", "Shell Fuel 42", nil, models.EcoNegative},
		{"market beats uber", "Uber Eats Farmer's Market", nil, models.EcoPositive},
		{"merchant beats items", "Lyft", []string{"green tea"}, models.EcoNegative},
		{"items veggie", "Walmart", []string{"Veggie Burger", "Bread"}, models.EcoPositive},
		{"items across names", "", []string{"Recycled", "Paper"}, models.EcoPositive},
		{"bananas are not listed", "Walmart", []string{"Bananas", "TOTAL"}, models.EcoUnknown},
		{"nothing", "", nil, models.EcoUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.merchant, tt.items))
		})
	}
}
