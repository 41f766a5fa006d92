package realty

import (
	"context"
	"iter"
)

// Listing represents one real-estate listing as extracted from a page.
// Numeric-looking fields hold the raw page text; coercion happens in
// Summarize. Field order matches the record artifact key order.
type Listing struct {
	Address *string `json:"address"`
	Price   *string `json:"price"`
	Agency  *string `json:"agency"`
	Area    string  `json:"area"`
	Beds    *string `json:"beds"`
	Baths   *string `json:"baths"`
	SqFt    *string `json:"sq_ft"`
}

// Validate returns an error if the listing contains invalid fields.
func (l *Listing) Validate() error {
	if l.Area == "" {
		return Errorf(EINVALID, "listing area required")
	}
	return nil
}

// ListingPage is the result of parsing one page of listings.
type ListingPage struct {
	// Listings in document order. Area is not set.
	Listings []*Listing

	// NextURL is the absolute URL of the following page, or empty on the last page.
	NextURL string
}

// PageParser extracts listings and the pagination link from a listing page.
type PageParser interface {
	// ParsePage parses the HTML of the page at pageURL.
	// Relative links are resolved against pageURL.
	ParsePage(html string, pageURL string) (*ListingPage, error)
}

// ListingCrawler produces the listings of an area.
type ListingCrawler interface {
	// Crawl returns a lazy sequence of the area's listings. A failure is
	// yielded as a single error that ends the sequence.
	Crawl(ctx context.Context, area string) iter.Seq2[*Listing, error]
}

// ListingStore reads and writes record artifacts.
type ListingStore interface {
	// WriteListings drains seq and writes every listing to path.
	// If seq yields an error nothing is written and the error is returned.
	// Returns the number of listings written.
	WriteListings(ctx context.Context, path string, seq iter.Seq2[*Listing, error]) (int, error)

	// ReadListings loads a record artifact.
	// Returns ENOTFOUND if the artifact does not exist.
	ReadListings(ctx context.Context, path string) ([]*Listing, error)
}

// String returns a pointer to s, or nil if s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value returns the string p points to, or "" if p is nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
