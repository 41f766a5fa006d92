package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkSaveDocument measures corpus writes against a file database,
// both for new pages and for re-collected pages that replace existing rows.
func BenchmarkSaveDocument(b *testing.B) {
	b.Run("insert", func(b *testing.B) {
		benchmarkSaveDocument(b, func(i int) string {
			return fmt.Sprintf("https://example.com/globe/page%d", i)
		})
	})

	b.Run("upsert", func(b *testing.B) {
		benchmarkSaveDocument(b, func(i int) string {
			return fmt.Sprintf("https://example.com/globe/page%d", i%10)
		})
	})
}

func benchmarkSaveDocument(b *testing.B, sourceURL func(i int) string) {
	b.Helper()

	db := sqlite.NewDB(filepath.Join(b.TempDir(), "bench.db"))
	require.NoError(b, db.Open())
	defer db.Close()

	svc := sqlite.NewCorpusService(db)
	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		doc := &realty.CorpusDocument{
			City:      "globe",
			SourceURL: sourceURL(i),
			Title:     fmt.Sprintf("Page %d", i),
			Content:   fmt.Sprintf("# Page %d\n\nHomes in Globe sold for a median of $%d last month.", i, 250000+i),
		}
		if err := svc.SaveDocument(ctx, doc); err != nil {
			b.Fatal(err)
		}
	}
}
