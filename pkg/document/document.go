// Package document stores design graphs as zip archives holding a single
// Document.json entry, the on-disk form of every model artifact.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// EntryName is the archive member holding the document.
const EntryName = "Document.json"

// ErrMalformed is returned by Open for archives that are not documents.
var ErrMalformed = errors.New("document: malformed archive")

// Document is an opened or newly created model.
type Document struct {
	UID        uuid.UUID          `json:"uid"`
	Label      string             `json:"label"`
	Properties map[string]string  `json:"properties,omitempty"`
	Graph      *graph.DesignGraph `json:"graph"`

	path string
	zr   *zip.ReadCloser
}

// New creates a document with a fresh UID.
func New(label string, g *graph.DesignGraph) *Document {
	return &Document{
		UID:        uuid.New(),
		Label:      label,
		Properties: map[string]string{},
		Graph:      g,
	}
}

// Path is the file the document was opened from, or "" for new documents.
func (d *Document) Path() string { return d.path }

// Save writes doc to path. The archive is written to a temporary file in
// the same directory and renamed into place.
func Save(path string, doc *Document) error {
	if doc.Graph == nil {
		return fmt.Errorf("document: %s has no graph", doc.Label)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("document: encode %s: %w", doc.Label, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: EntryName, Method: zip.Deflate})
	if err == nil {
		_, err = w.Write(raw)
	}
	if err == nil {
		err = zw.Close()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("document: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	return nil
}

// Open reads the document at path. The archive stays open until Close.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document: %w", err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	doc, err := decode(zr)
	if err != nil {
		zr.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	doc.path = path
	doc.zr = zr
	return doc, nil
}

func decode(zr *zip.ReadCloser) (*Document, error) {
	for _, f := range zr.File {
		if f.Name != EntryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if doc.Graph == nil {
			return nil, errors.New("no graph")
		}
		return &doc, nil
	}
	return nil, fmt.Errorf("no %s entry", EntryName)
}

// Close releases the archive. It is safe to call more than once.
func (d *Document) Close() error {
	if d.zr == nil {
		return nil
	}
	err := d.zr.Close()
	d.zr = nil
	return err
}
