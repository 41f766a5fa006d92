package realty

import (
	"context"
	"sort"
	"time"
)

// CorpusDocument is a page of area market content kept for the external
// indexing service. City tags the area the page was collected for.
type CorpusDocument struct {
	ID          string    `json:"id"`
	City        string    `json:"city"`
	SourceURL   string    `json:"sourceUrl"`
	Title       string    `json:"title"`
	Content     string    `json:"content"` // Markdown
	ContentHash string    `json:"contentHash"`
	Tokens      int       `json:"tokens"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *CorpusDocument) Validate() error {
	if d.City == "" {
		return Errorf(EINVALID, "document city required")
	}
	if d.SourceURL == "" {
		return Errorf(EINVALID, "document source URL required")
	}
	return nil
}

// CorpusService stores corpus documents.
type CorpusService interface {
	// SaveDocument inserts a document, replacing any existing document
	// with the same city and source URL.
	SaveDocument(ctx context.Context, doc *CorpusDocument) error

	// FindDocuments retrieves documents matching the filter.
	FindDocuments(ctx context.Context, filter CorpusFilter) ([]*CorpusDocument, error)

	// DeleteDocumentsByCity removes all documents for a city.
	DeleteDocumentsByCity(ctx context.Context, city string) error
}

// CorpusFilter represents a filter for FindDocuments.
type CorpusFilter struct {
	City      *string `json:"city"`
	SourceURL *string `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Sources returns the unique source URLs of docs, sorted.
func Sources(docs []*CorpusDocument) []string {
	seen := make(map[string]bool, len(docs))
	sources := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.SourceURL == "" || seen[doc.SourceURL] {
			continue
		}
		seen[doc.SourceURL] = true
		sources = append(sources, doc.SourceURL)
	}
	sort.Strings(sources)
	return sources
}
