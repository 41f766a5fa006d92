// Package readability extracts page content with go-readability. It is
// used as the fallback when trafilatura finds nothing on a page.
package readability

import (
	"strings"

	"github.com/fwojciec/realty"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements realty.Extractor at compile time.
var _ realty.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
// Returns ENOTFOUND if the page has no readable content.
func (e *Extractor) Extract(rawHTML string) (*realty.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, realty.Errorf(realty.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, realty.Errorf(realty.ENOTFOUND, "no readable content")
	}

	return &realty.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
