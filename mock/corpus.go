package mock

import (
	"context"

	"github.com/fwojciec/realty"
)

var _ realty.CorpusService = (*CorpusService)(nil)

// CorpusService is a mock implementation of realty.CorpusService.
type CorpusService struct {
	SaveDocumentFn          func(ctx context.Context, doc *realty.CorpusDocument) error
	FindDocumentsFn         func(ctx context.Context, filter realty.CorpusFilter) ([]*realty.CorpusDocument, error)
	DeleteDocumentsByCityFn func(ctx context.Context, city string) error
}

func (s *CorpusService) SaveDocument(ctx context.Context, doc *realty.CorpusDocument) error {
	return s.SaveDocumentFn(ctx, doc)
}

func (s *CorpusService) FindDocuments(ctx context.Context, filter realty.CorpusFilter) ([]*realty.CorpusDocument, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *CorpusService) DeleteDocumentsByCity(ctx context.Context, city string) error {
	return s.DeleteDocumentsByCityFn(ctx, city)
}

var _ realty.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of realty.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *realty.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *realty.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

var _ realty.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of realty.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*realty.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*realty.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ realty.Converter = (*Converter)(nil)

// Converter is a mock implementation of realty.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ realty.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of realty.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (t *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return t.CountTokensFn(ctx, text)
}
