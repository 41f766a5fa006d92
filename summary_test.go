package realty_test

import (
	"testing"

	"github.com/fwojciec/realty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want float64
		ok   bool
	}{
		{"half fraction", "1/2", 0.5, true},
		{"three quarters", "3/4", 0.75, true},
		{"currency", "$1,200,000", 1200000, true},
		{"decimal", "4.5", 4.5, true},
		{"square feet", "4500", 4500, true},
		{"not applicable", "N/A", 0, false},
		{"empty", "", 0, false},
		{"zero denominator falls back to digits", "1/0", 10, true},
		{"multiple decimal points", "1.2.3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := realty.ParseNumber(tt.raw)

			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("averages present numeric fields", func(t *testing.T) {
		t.Parallel()

		listings := []*realty.Listing{
			{Area: "globe", Price: realty.String("$100,000"), Beds: realty.String("2"), Baths: realty.String("1"), SqFt: realty.String("1000"), Agency: realty.String("Acme")},
			{Area: "globe", Price: realty.String("$200,000"), Beds: realty.String("3"), Baths: realty.String("1/2"), Agency: realty.String("Best")},
			{Area: "globe", Price: realty.String("$300,000"), Beds: realty.String("4"), SqFt: realty.String("2000"), Agency: realty.String("Best")},
		}

		s := realty.Summarize("globe", listings)

		assert.Equal(t, "globe", s.Area)
		assert.Equal(t, 3, s.Listings)
		assert.Equal(t, 3, s.PricedListings)
		assert.InDelta(t, 200000, s.MeanPrice, 1e-9)
		assert.Equal(t, 3, s.MeanBeds)
		assert.InDelta(t, 0.75, s.MeanBaths, 1e-9)
		assert.InDelta(t, 1500, s.MeanSqFt, 1e-9)
		assert.Equal(t, "Best", s.TopAgency)
	})

	t.Run("excludes unparseable values from their mean only", func(t *testing.T) {
		t.Parallel()

		listings := []*realty.Listing{
			{Area: "globe", Price: realty.String("Call for price"), Beds: realty.String("2")},
			{Area: "globe", Price: realty.String("$250,000"), Beds: realty.String("N/A")},
		}

		s := realty.Summarize("globe", listings)

		assert.Equal(t, 1, s.PricedListings)
		assert.InDelta(t, 250000, s.MeanPrice, 1e-9)
		assert.Equal(t, 2, s.MeanBeds)
	})

	t.Run("rounds mean beds half to even", func(t *testing.T) {
		t.Parallel()

		listings := []*realty.Listing{
			{Area: "globe", Beds: realty.String("2")},
			{Area: "globe", Beds: realty.String("3")},
		}

		s := realty.Summarize("globe", listings)

		assert.Equal(t, 2, s.MeanBeds)
	})

	t.Run("agency tie goes to first seen", func(t *testing.T) {
		t.Parallel()

		listings := []*realty.Listing{
			{Area: "globe", Agency: realty.String("Zeta Realty")},
			{Area: "globe", Agency: realty.String("Alpha Homes")},
		}

		s := realty.Summarize("globe", listings)

		assert.Equal(t, "Zeta Realty", s.TopAgency)
	})

	t.Run("reports N/A without agencies", func(t *testing.T) {
		t.Parallel()

		s := realty.Summarize("globe", []*realty.Listing{{Area: "globe"}})

		assert.Equal(t, realty.NoAgency, s.TopAgency)
		assert.Zero(t, s.MeanPrice)
		assert.Zero(t, s.PricedListings)
	})
}

func TestSummary_Format(t *testing.T) {
	t.Parallel()

	s := &realty.Summary{
		MeanPrice: 200000,
		MeanBeds:  3,
		MeanBaths: 2.5,
		MeanSqFt:  1850,
		TopAgency: "Acme Realty",
	}

	text := s.Format()

	assert.Equal(t, "$200,000.00", text.MeanPrice)
	assert.Equal(t, "3", text.MeanBeds)
	assert.Equal(t, "2.50", text.MeanBaths)
	assert.Equal(t, "1,850.00", text.MeanSqFt)
	require.Equal(t, []string{
		"Avg. Price: $200,000.00",
		"Avg. Beds: 3",
		"Avg. Baths: 2.50",
		"Avg. Sq. Ft.: 1,850.00 sq ft",
		"Top Agency: Acme Realty",
	}, text.Lines())
}

func TestFormatWholePrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,250,000", realty.FormatWholePrice(1250000))
	assert.Equal(t, "$0", realty.FormatWholePrice(0))
}
