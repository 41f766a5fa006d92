package sqlite

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/realty"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ realty.CorpusService = (*CorpusService)(nil)

// CorpusService implements realty.CorpusService using SQLite.
type CorpusService struct {
	db *DB
}

// NewCorpusService creates a new CorpusService.
func NewCorpusService(db *DB) *CorpusService {
	return &CorpusService{db: db}
}

// hashContent returns the hex xxHash of content.
func hashContent(content string) string {
	return strconv.FormatUint(xxhash.Sum64String(content), 16)
}

// SaveDocument inserts doc, or replaces the document stored for the same
// city and source URL while keeping its ID. Missing ID, hash and fetch
// time are filled in; doc.ID is set to the stored ID.
func (s *CorpusService) SaveDocument(ctx context.Context, doc *realty.CorpusDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.ContentHash == "" {
		doc.ContentHash = hashContent(doc.Content)
	}
	if doc.FetchedAt.IsZero() {
		doc.FetchedAt = time.Now()
	}
	doc.FetchedAt = doc.FetchedAt.UTC().Truncate(time.Second)

	return s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, city, source_url, title, content, content_hash, tokens, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (city, source_url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			tokens = excluded.tokens,
			fetched_at = excluded.fetched_at
		RETURNING id
	`, doc.ID, doc.City, doc.SourceURL, doc.Title, doc.Content, doc.ContentHash,
		doc.Tokens, doc.FetchedAt.Format(time.RFC3339)).Scan(&doc.ID)
}

// FindDocuments retrieves documents matching the filter, ordered by city
// and source URL.
func (s *CorpusService) FindDocuments(ctx context.Context, filter realty.CorpusFilter) ([]*realty.CorpusDocument, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, city, source_url, title, content, content_hash, tokens, fetched_at FROM documents WHERE 1=1")

	if filter.City != nil {
		query.WriteString(" AND city = ?")
		args = append(args, *filter.City)
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	query.WriteString(" ORDER BY city ASC, source_url ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*realty.CorpusDocument
	for rows.Next() {
		var doc realty.CorpusDocument
		var fetchedAt string

		if err := rows.Scan(&doc.ID, &doc.City, &doc.SourceURL, &doc.Title,
			&doc.Content, &doc.ContentHash, &doc.Tokens, &fetchedAt); err != nil {
			return nil, err
		}

		if doc.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at"); err != nil {
			return nil, err
		}

		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// DeleteDocumentsByCity removes all documents for a city.
func (s *CorpusService) DeleteDocumentsByCity(ctx context.Context, city string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE city = ?", city)
	return err
}
