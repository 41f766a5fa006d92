package realty

import "strings"

// DefaultArea is crawled when no area is given.
const DefaultArea = "maricopa"

// NormalizeArea lowercases and trims an area identifier.
// Returns EINVALID for an empty area or one that cannot be used as a
// file name component.
func NormalizeArea(raw string) (string, error) {
	area := strings.ToLower(strings.TrimSpace(raw))
	if area == "" {
		return "", Errorf(EINVALID, "area name cannot be empty")
	}
	if strings.ContainsAny(area, `/\`) || area == "." || area == ".." {
		return "", Errorf(EINVALID, "invalid area name %q", raw)
	}
	return area, nil
}

// ListingsFilename returns the record artifact file name for an area.
func ListingsFilename(area string) string {
	return area + ".json"
}

// SummaryFilename returns the summary artifact file name for an area.
func SummaryFilename(area string) string {
	return "stats_" + area + ".json"
}

// ChartFilename returns the render artifact file name for an area.
func ChartFilename(area, ext string) string {
	return "price_analysis_" + area + "." + ext
}
