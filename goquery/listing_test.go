package goquery_test

import (
	"strings"
	"testing"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingCard = `
<div class="si-listing">
	<div class="si-listing__photo-price"><span>$425,000</span></div>
	<div class="si-listing__title-main">
		123 Main St
		<div class="si-listing__title-description">Globe, AZ 85501</div>
	</div>
	<div class="si-listing__info">
		<div class="si-listing__info-value"><span>3</span></div>
		<div class="si-listing__info-label">Beds</div>
		<div class="si-listing__info-value"><span>2</span></div>
		<div class="si-listing__info-label">Baths</div>
		<div class="si-listing__info-value"><span>1,850</span></div>
		<div class="si-listing__info-label">Sq.Ft.</div>
	</div>
	<div class="si-listing__footer"><div>Acme Realty</div></div>
</div>`

func page(body string) string {
	return "<!DOCTYPE html><html><body>" + body + "</body></html>"
}

func TestListingParser_ParsePage(t *testing.T) {
	t.Parallel()

	t.Run("extracts every field of a listing", func(t *testing.T) {
		t.Parallel()

		p := goquery.NewListingParser()

		result, err := p.ParsePage(page(listingCard), "https://example.com/globe")

		require.NoError(t, err)
		require.Len(t, result.Listings, 1)
		l := result.Listings[0]
		assert.Equal(t, "123 Main St", realty.Value(l.Address))
		assert.Equal(t, "$425,000", realty.Value(l.Price))
		assert.Equal(t, "Acme Realty", realty.Value(l.Agency))
		assert.Equal(t, "3", realty.Value(l.Beds))
		assert.Equal(t, "2", realty.Value(l.Baths))
		assert.Equal(t, "1850", realty.Value(l.SqFt))
		assert.Empty(t, l.Area)
		assert.Empty(t, result.NextURL)
	})

	t.Run("keeps listings in document order", func(t *testing.T) {
		t.Parallel()

		html := page(`
<div class="si-listing"><div class="si-listing__title-main">1 First Ave</div></div>
<div class="si-listing"><div class="si-listing__title-main">2 Second Ave</div></div>`)

		result, err := goquery.NewListingParser().ParsePage(html, "https://example.com/globe")

		require.NoError(t, err)
		require.Len(t, result.Listings, 2)
		assert.Equal(t, "1 First Ave", realty.Value(result.Listings[0].Address))
		assert.Equal(t, "2 Second Ave", realty.Value(result.Listings[1].Address))
	})

	t.Run("leaves missing fields absent", func(t *testing.T) {
		t.Parallel()

		html := page(`<div class="si-listing"><div class="si-listing__title-main">9 Empty Rd</div></div>`)

		result, err := goquery.NewListingParser().ParsePage(html, "https://example.com/globe")

		require.NoError(t, err)
		require.Len(t, result.Listings, 1)
		l := result.Listings[0]
		assert.Nil(t, l.Price)
		assert.Nil(t, l.Agency)
		assert.Nil(t, l.Beds)
		assert.Nil(t, l.Baths)
		assert.Nil(t, l.SqFt)
	})

	t.Run("takes text from a later element when the first is blank", func(t *testing.T) {
		t.Parallel()

		html := page(`<div class="si-listing">
			<div class="si-listing__photo-price"><span> </span><span>$310,000</span></div>
			<div class="si-listing__title-main"><span>New</span></div>
			<div class="si-listing__title-main">4 Late St</div>
			<div class="si-listing__footer"><div></div><div>Desert Homes</div></div>
		</div>`)

		result, err := goquery.NewListingParser().ParsePage(html, "https://example.com/globe")

		require.NoError(t, err)
		require.Len(t, result.Listings, 1)
		l := result.Listings[0]
		assert.Equal(t, "$310,000", realty.Value(l.Price))
		assert.Equal(t, "4 Late St", realty.Value(l.Address))
		assert.Equal(t, "Desert Homes", realty.Value(l.Agency))
	})

	t.Run("returns no listings for a page without cards", func(t *testing.T) {
		t.Parallel()

		result, err := goquery.NewListingParser().ParsePage(page(`<p>No results</p>`), "https://example.com/globe")

		require.NoError(t, err)
		assert.Empty(t, result.Listings)
	})

	t.Run("resolves relative next link against page URL", func(t *testing.T) {
		t.Parallel()

		html := page(listingCard + `<a class="pagination__next" href="?page=2#top">Next</a>`)

		result, err := goquery.NewListingParser().ParsePage(html, "https://example.com/globe")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/globe?page=2", result.NextURL)
	})

	t.Run("uses first next link", func(t *testing.T) {
		t.Parallel()

		html := page(`<a class="next" href="/globe/page-2">Next</a><a class="next" href="/globe/page-9">Next</a>`)

		result, err := goquery.NewListingParser().ParsePage(html, "https://example.com/globe")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/globe/page-2", result.NextURL)
	})

	t.Run("ignores non-HTTP next link", func(t *testing.T) {
		t.Parallel()

		html := page(`<a class="next" href="javascript:void(0)">Next</a>`)

		result, err := goquery.NewListingParser().ParsePage(html, "https://example.com/globe")

		require.NoError(t, err)
		assert.Empty(t, result.NextURL)
	})

	t.Run("returns error for invalid page URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewListingParser().ParsePage(page(listingCard), "://bad")

		assert.Equal(t, realty.EINVALID, realty.ErrorCode(err))
	})
}

func TestInfoTokens(t *testing.T) {
	t.Parallel()

	t.Run("skips text directly inside value elements", func(t *testing.T) {
		t.Parallel()

		html := page(`<div class="si-listing"><div class="si-listing__info">
<div class="si-listing__info-value">stray<span>4</span></div>
<div class="si-listing__info-label">Beds</div>
</div></div>`)
		sel := find(t, html)

		tokens := goquery.InfoTokens(sel, goquery.DefaultSelectors())

		var cleaned []string
		for _, tok := range tokens {
			if s := strings.TrimSpace(tok); s != "" {
				cleaned = append(cleaned, s)
			}
		}
		assert.Equal(t, []string{"4", "Beds"}, cleaned)
	})

	t.Run("includes deeply nested value text", func(t *testing.T) {
		t.Parallel()

		html := page(`<div class="si-listing"><div class="si-listing__info">
<div class="si-listing__info-value"><span><strong>2</strong></span></div>
<div class="si-listing__info-label">Baths</div>
</div></div>`)
		sel := find(t, html)

		listing := goquery.ExtractListing(sel, goquery.DefaultSelectors())

		assert.Equal(t, "2", realty.Value(listing.Baths))
	})

	t.Run("label first is ignored", func(t *testing.T) {
		t.Parallel()

		html := page(`<div class="si-listing"><div class="si-listing__info">
<div class="si-listing__info-label">Beds</div>
<div class="si-listing__info-value"><span>4,500</span></div>
<div class="si-listing__info-label">Sq.Ft.</div>
</div></div>`)
		sel := find(t, html)

		listing := goquery.ExtractListing(sel, goquery.DefaultSelectors())

		assert.Nil(t, listing.Beds)
		assert.Equal(t, "4500", realty.Value(listing.SqFt))
	})
}

func find(t *testing.T, html string) *gq.Selection {
	t.Helper()
	doc, err := gq.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	sel := doc.Find("div.si-listing").First()
	require.Equal(t, 1, sel.Length())
	return sel
}
