// Package trafilatura extracts the main content of market report pages
// with go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/realty"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements realty.Extractor at compile time.
var _ realty.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	// Fallback is consulted when trafilatura fails or finds no content,
	// which happens on short pages such as listing summaries.
	Fallback realty.Extractor
}

// NewExtractor creates a new Extractor with an optional fallback.
func NewExtractor(fallback realty.Extractor) *Extractor {
	return &Extractor{Fallback: fallback}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*realty.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, realty.Errorf(realty.EINVALID, "empty HTML input")
	}

	res, err := e.extract(rawHTML)
	if err == nil && strings.TrimSpace(res.ContentHTML) != "" {
		return res, nil
	}
	if e.Fallback == nil {
		return res, err
	}

	fallback, ferr := e.Fallback.Extract(rawHTML)
	if ferr != nil {
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	if fallback.Title == "" && res != nil {
		fallback.Title = res.Title
	}
	return fallback, nil
}

func (e *Extractor) extract(rawHTML string) (*realty.ExtractResult, error) {
	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &realty.ExtractResult{
		Title:       strings.TrimSpace(result.Metadata.Title),
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
