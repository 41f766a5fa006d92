package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/realty"
	"golang.org/x/net/html"
)

// Selectors names the page structure a ListingParser reads.
// Class names are bare, without the leading dot.
type Selectors struct {
	Listing   string // one listing card
	Address   string // direct text is the street address
	Price     string // direct text of its span children
	Agency    string // direct text of its div children
	Info      string // info panel container
	InfoLabel string // direct text is a label such as "Beds"
	InfoValue string // text inside descendant elements is a value
	Next      string // pagination link
}

// DefaultSelectors returns the selectors for the listing site's markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Listing:   "div.si-listing",
		Address:   "div.si-listing__title-main",
		Price:     "div.si-listing__photo-price > span",
		Agency:    "div.si-listing__footer > div",
		Info:      "si-listing__info",
		InfoLabel: "si-listing__info-label",
		InfoValue: "si-listing__info-value",
		Next:      `a[class*="next"]`,
	}
}

// Ensure ListingParser implements realty.PageParser.
var _ realty.PageParser = (*ListingParser)(nil)

// ListingParser extracts listings from search result pages.
type ListingParser struct {
	Selectors Selectors
}

// NewListingParser creates a ListingParser using DefaultSelectors.
func NewListingParser() *ListingParser {
	return &ListingParser{Selectors: DefaultSelectors()}
}

// ParsePage implements realty.PageParser.
func (p *ListingParser) ParsePage(htmlContent string, pageURL string) (*realty.ListingPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, realty.Errorf(realty.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, realty.Errorf(realty.EINVALID, "failed to parse HTML: %v", err)
	}

	page := &realty.ListingPage{}
	doc.Find(p.Selectors.Listing).Each(func(_ int, sel *goquery.Selection) {
		page.Listings = append(page.Listings, ExtractListing(sel, p.Selectors))
	})

	if href, ok := doc.Find(p.Selectors.Next).First().Attr("href"); ok {
		page.NextURL = resolveURL(base, strings.TrimSpace(href))
	}

	return page, nil
}

// ExtractListing reads one listing card. Fields that are missing from the
// card are left nil; Area is not set.
func ExtractListing(sel *goquery.Selection, s Selectors) *realty.Listing {
	features := realty.ParseFeatures(InfoTokens(sel, s))
	return &realty.Listing{
		Address: realty.String(firstText(sel.Find(s.Address))),
		Price:   realty.String(firstText(sel.Find(s.Price))),
		Agency:  realty.String(firstText(sel.Find(s.Agency))),
		Beds:    features.Beds,
		Baths:   features.Baths,
		SqFt:    features.SqFt,
	}
}

// InfoTokens returns the raw info panel text of a listing card in document
// order: the direct text of every label, and the text nested inside the
// child elements of every value. Text sitting directly in a value element
// is not included.
func InfoTokens(sel *goquery.Selection, s Selectors) []string {
	var tokens []string
	for _, panel := range sel.Find("." + s.Info).Nodes {
		var walk func(n *html.Node, inValue bool)
		walk = func(n *html.Node, inValue bool) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				switch c.Type {
				case html.TextNode:
					if inValue || hasClass(n, s.InfoLabel) {
						tokens = append(tokens, c.Data)
					}
				case html.ElementNode:
					// Elements below a value carry value text.
					walk(c, inValue || hasClass(n, s.InfoValue))
				}
			}
		}
		walk(panel, false)
	}
	return tokens
}

// firstText returns the first non-blank direct text node across the
// elements of sel in document order, trimmed.
func firstText(sel *goquery.Selection) string {
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if text := strings.TrimSpace(c.Data); text != "" {
				return text
			}
		}
	}
	return ""
}

// hasClass reports whether n is an element carrying class.
func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// resolveURL resolves href against base and drops the fragment.
// Returns empty string for unparseable or non-HTTP links.
func resolveURL(base *url.URL, href string) string {
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#"
}
