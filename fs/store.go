// Package fs stores pipeline artifacts and corpus exports on the local
// file system. Every artifact is written to a temporary sibling and
// renamed into place, so readers never see a partial file.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/fwojciec/realty"
)

// Ensure Store implements the artifact interfaces at compile time.
var (
	_ realty.ListingStore = (*Store)(nil)
	_ realty.SummaryStore = (*Store)(nil)
)

// Store reads and writes JSON artifacts.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// WriteListings drains seq and writes the listings as an indented JSON
// array. An empty sequence writes "[]". If seq yields an error or an
// invalid listing, or ctx is canceled, nothing is written.
func (s *Store) WriteListings(ctx context.Context, path string, seq iter.Seq2[*realty.Listing, error]) (int, error) {
	listings := []*realty.Listing{}
	for l, err := range seq {
		if err != nil {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := l.Validate(); err != nil {
			return 0, err
		}
		listings = append(listings, l)
	}

	err := WriteFileAtomic(path, func(w io.Writer) error {
		return encode(w, listings)
	})
	if err != nil {
		return 0, err
	}
	return len(listings), nil
}

// ReadListings implements realty.ListingStore.
func (s *Store) ReadListings(ctx context.Context, path string) ([]*realty.Listing, error) {
	var listings []*realty.Listing
	if err := decode(path, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// WriteSummary implements realty.SummaryStore.
// Equal summaries always produce identical bytes.
func (s *Store) WriteSummary(ctx context.Context, path string, summary *realty.Summary) error {
	if summary == nil {
		return realty.Errorf(realty.EINVALID, "summary required")
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		return encode(w, summary)
	})
}

// ReadSummary implements realty.SummaryStore.
func (s *Store) ReadSummary(ctx context.Context, path string) (*realty.Summary, error) {
	var summary realty.Summary
	if err := decode(path, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// WriteFileAtomic creates path's parent directories, streams write into
// path+".tmp" and renames it over path. On any error the temporary file is
// removed and path is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err := write(f); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

func decode(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return realty.Errorf(realty.ENOTFOUND, "artifact not found: %s", path)
	} else if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return realty.Errorf(realty.EINVALID, "malformed artifact %s: %v", path, err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Remove deletes the file at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
