// Package realty crawls real-estate listing pages for an area and runs the
// crawl, aggregate and render stages that turn them into a price summary
// and chart.
//
// This package contains domain types, interfaces and the pure parsing and
// statistics logic. Implementations live in subdirectories named after
// their primary dependency (e.g., goquery/, sqlite/, http/).
package realty
