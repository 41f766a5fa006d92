package fs

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/realty"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a corpus page URL to a relative markdown file path.
// Dot segments are resolved against the site root, so the result never
// climbs above it.
// Example: https://example.com/globe/market-report → globe/market-report.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	p := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	switch {
	case p == "":
		return "index.md", nil
	case strings.HasSuffix(u.Path, "/"):
		return p + "/index.md", nil
	default:
		return p + ".md", nil
	}
}

// frontmatter is the YAML header the external indexer reads its tags from.
type frontmatter struct {
	SourceURL string `yaml:"source_url"`
	City      string `yaml:"city"`
	Title     string `yaml:"title"`
	Fetched   string `yaml:"fetched"`
}

// FormatDocument renders a corpus document as markdown with a YAML
// frontmatter block.
func FormatDocument(doc *realty.CorpusDocument) (string, error) {
	header, err := yaml.Marshal(frontmatter{
		SourceURL: doc.SourceURL,
		City:      doc.City,
		Title:     doc.Title,
		Fetched:   doc.FetchedAt.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(doc.Content)
	return b.String(), nil
}

// Exporter writes corpus documents as markdown files under a directory,
// one subdirectory per city.
type Exporter struct {
	baseDir string
}

// NewExporter creates an Exporter rooted at baseDir.
func NewExporter(baseDir string) *Exporter {
	return &Exporter{baseDir: baseDir}
}

// Export writes every document and returns the number written.
func (e *Exporter) Export(docs []*realty.CorpusDocument) (int, error) {
	n := 0
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			return n, err
		}
		rel, err := URLToPath(doc.SourceURL)
		if err != nil {
			return n, err
		}
		cityDir := filepath.Join(e.baseDir, doc.City)
		target := filepath.Join(cityDir, filepath.FromSlash(rel))
		if !within(e.baseDir, cityDir) || !within(cityDir, target) {
			return n, realty.Errorf(realty.EINVALID, "document %s escapes export directory", doc.SourceURL)
		}
		content, err := FormatDocument(doc)
		if err != nil {
			return n, err
		}
		if err := WriteFileAtomic(target, func(w io.Writer) error {
			_, err := io.WriteString(w, content)
			return err
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// within reports whether target lies strictly inside dir.
func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
