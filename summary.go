package realty

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoAgency is reported as the top agency when no listing names one.
const NoAgency = "N/A"

// Summary holds the statistics computed from one area's listings.
type Summary struct {
	Area           string  `json:"area"`
	Listings       int     `json:"listings"`
	PricedListings int     `json:"pricedListings"`
	MeanPrice      float64 `json:"meanPrice"`
	MeanBeds       int     `json:"meanBeds"`
	MeanBaths      float64 `json:"meanBaths"`
	MeanSqFt       float64 `json:"meanSqFt"`
	TopAgency      string  `json:"topAgency"`
}

// SummaryStore reads and writes summary artifacts.
type SummaryStore interface {
	WriteSummary(ctx context.Context, path string, summary *Summary) error

	// ReadSummary loads a summary artifact.
	// Returns ENOTFOUND if the artifact does not exist.
	ReadSummary(ctx context.Context, path string) (*Summary, error)
}

// ParseNumber coerces raw listing text to a number.
//
// A value containing "/" is first tried as a fraction of exactly two parts
// ("1/2" is 0.5). Otherwise, or if that fails, every character that is not
// a digit or a decimal point is stripped and the rest parsed ("$1,200,000"
// is 1200000). The bool result is false when neither works.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)

	if strings.Contains(s, "/") {
		if parts := strings.Split(s, "/"); len(parts) == 2 {
			num, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			den, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err1 == nil && err2 == nil && den != 0 {
				if v := num / den; !math.IsNaN(v) && !math.IsInf(v, 0) {
					return v, true
				}
			}
		}
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseField parses an optional raw field.
func parseField(p *string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return ParseNumber(*p)
}

// Summarize computes the statistics for an area's listings.
//
// A listing missing a field, or whose field does not parse, is excluded from
// that field's mean only. Means over no values are zero. MeanBeds is rounded
// half to even. Agency ties go to the agency seen first.
func Summarize(area string, listings []*Listing) *Summary {
	var prices, beds, baths, sqft mean
	counts := make(map[string]int)
	var order []string

	for _, l := range listings {
		if v, ok := parseField(l.Price); ok {
			prices.add(v)
		}
		if v, ok := parseField(l.Beds); ok {
			beds.add(v)
		}
		if v, ok := parseField(l.Baths); ok {
			baths.add(v)
		}
		if v, ok := parseField(l.SqFt); ok {
			sqft.add(v)
		}
		if l.Agency != nil && *l.Agency != "" {
			if counts[*l.Agency] == 0 {
				order = append(order, *l.Agency)
			}
			counts[*l.Agency]++
		}
	}

	top := NoAgency
	best := 0
	for _, agency := range order {
		if counts[agency] > best {
			top, best = agency, counts[agency]
		}
	}

	return &Summary{
		Area:           area,
		Listings:       len(listings),
		PricedListings: prices.n,
		MeanPrice:      prices.value(),
		MeanBeds:       int(math.RoundToEven(beds.value())),
		MeanBaths:      baths.value(),
		MeanSqFt:       sqft.value(),
		TopAgency:      top,
	}
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// SummaryText holds the display form of a Summary.
type SummaryText struct {
	MeanPrice string
	MeanBeds  string
	MeanBaths string
	MeanSqFt  string
	TopAgency string
}

var printer = message.NewPrinter(language.English)

// Format returns the display strings for the summary,
// e.g. "$200,000.00", "3", "2.50", "1,850.00".
func (s *Summary) Format() SummaryText {
	return SummaryText{
		MeanPrice: FormatPrice(s.MeanPrice),
		MeanBeds:  strconv.Itoa(s.MeanBeds),
		MeanBaths: strconv.FormatFloat(s.MeanBaths, 'f', 2, 64),
		MeanSqFt:  printer.Sprintf("%.2f", s.MeanSqFt),
		TopAgency: s.TopAgency,
	}
}

// FormatPrice formats a price in dollars with thousands separators and cents.
func FormatPrice(v float64) string {
	return "$" + printer.Sprintf("%.2f", v)
}

// FormatWholePrice formats a price in whole dollars with thousands separators.
func FormatWholePrice(v float64) string {
	return "$" + printer.Sprintf("%.0f", v)
}

// Lines returns the summary block printed by the aggregate stage and
// drawn on the chart.
func (t SummaryText) Lines() []string {
	return []string{
		"Avg. Price: " + t.MeanPrice,
		"Avg. Beds: " + t.MeanBeds,
		"Avg. Baths: " + t.MeanBaths,
		"Avg. Sq. Ft.: " + t.MeanSqFt + " sq ft",
		"Top Agency: " + t.TopAgency,
	}
}
