// Package ingest turns external data sources into in-memory Tables.
//
// A source is described by config.Source: local files and HTTP(S) URLs
// carrying CSV or JSON bodies (optionally gzip- or zip-compressed), or SQL
// databases read through a query or a bare table name. Whatever the source,
// the result is a *table.Table whose cells are restricted to the shared value
// domain (nil, int64, float64, bool, string); everything downstream relies on
// that coercion happening here.
package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"strings"

	"tabsynth/internal/config"
	"tabsynth/internal/table"
)

// FormatError reports input that could not be mapped to a tabular format:
// unsupported extensions, undecodable bodies, empty archives.
type FormatError struct {
	// Source names the offending input (path, URL, or source kind).
	Source string
	// Reason is a human-readable explanation.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("ingest: %s: %s", e.Source, e.Reason)
}

// Load reads the configured source into a Table. It dispatches on src.Kind;
// unknown kinds fail with *FormatError.
func Load(ctx context.Context, src config.Source) (*table.Table, error) {
	switch src.Kind {
	case "file":
		return loadFile(ctx, src)
	case "http":
		return loadHTTP(ctx, src)
	case "postgres":
		return loadPostgres(ctx, src)
	case "sqlite", "mysql", "mssql":
		return loadSQL(ctx, src)
	default:
		return nil, &FormatError{Source: src.Kind, Reason: "unsupported source kind"}
	}
}

// LoadPath is a convenience wrapper for CLI use: it sniffs the source kind
// from the string itself. http:// and https:// prefixes select the HTTP
// loader, anything else is treated as a local file path. The format comes
// from the extension.
func LoadPath(ctx context.Context, pathOrURL string) (*table.Table, error) {
	src := config.Source{Kind: "file", Path: pathOrURL}
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		src.Kind = "http"
	}
	return Load(ctx, src)
}

// loadFile opens a local file and decodes it.
//
// Behavior mirrors the usual filesystem-source contract: if the context is
// already canceled the filesystem is never touched, and open errors are
// wrapped with the path so errors.Is(err, os.ErrNotExist) still works.
func loadFile(ctx context.Context, src config.Source) (*table.Table, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Path, err)
	}
	defer f.Close()
	return decode(f, src.Path, src)
}

// loadHTTP fetches the URL with retry/backoff and decodes the body. The body
// is buffered so that zip archives (which need random access) work the same
// as local files.
func loadHTTP(ctx context.Context, src config.Source) (*table.Table, error) {
	body, err := newFetcher(fetchConfig{timeout: fetchTimeout(src.Options)}).get(ctx, src.Path)
	if err != nil {
		return nil, err
	}
	name := src.Path
	if u, uerr := url.Parse(src.Path); uerr == nil && u.Path != "" {
		name = u.Path
	}
	return decode(bytes.NewReader(body), name, src)
}

// decode unwraps any archive layer and parses the payload per the resolved
// format. name is the logical file name used for sniffing; src carries the
// explicit format and the decoder options.
func decode(r io.Reader, name string, src config.Source) (*table.Table, error) {
	inner, base, err := unwrapArchive(r, name)
	if err != nil {
		return nil, err
	}

	format := src.Format
	if format == "" {
		format = sniffFormat(base)
	}

	switch format {
	case "csv":
		tbl, skipped, err := readCSV(inner, base, csvOptionsFrom(src.Options))
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			log.Printf("ingest: %s: skipped %d malformed rows", base, skipped)
		}
		return tbl, nil
	case "json":
		return readJSON(inner, base)
	default:
		return nil, &FormatError{Source: name, Reason: "cannot determine format; use .csv/.json or set source.format"}
	}
}

// unwrapArchive peels one compression layer off r based on the file name:
// .gz streams through gzip, .zip extracts the single file entry (archives
// holding one data file are the common distribution shape). It returns the
// payload reader and the name with the archive extension removed.
func unwrapArchive(r io.Reader, name string) (io.Reader, string, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, "", &FormatError{Source: name, Reason: fmt.Sprintf("gzip: %v", err)}
		}
		return zr, strings.TrimSuffix(name, ".gz"), nil

	case strings.HasSuffix(name, ".zip"):
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", name, err)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, "", &FormatError{Source: name, Reason: fmt.Sprintf("zip: %v", err)}
		}
		for _, entry := range zr.File {
			if entry.FileInfo().IsDir() {
				continue
			}
			rc, err := entry.Open()
			if err != nil {
				return nil, "", fmt.Errorf("open zip entry %s: %w", entry.Name, err)
			}
			// The entry name, not the archive name, carries the format.
			return rc, entry.Name, nil
		}
		return nil, "", &FormatError{Source: name, Reason: "zip archive contains no files"}

	default:
		return r, name, nil
	}
}

// sniffFormat maps a file extension to a decoder name, or "" when unknown.
func sniffFormat(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "csv"
	case ".json", ".ndjson":
		return "json"
	}
	return ""
}
