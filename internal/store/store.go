// Package store persists the bot document as a single JSON file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// File implements engine.Store on top of a JSON document.
// Every Save rewrites the whole file through a temporary file and a rename,
// so a crash leaves either the previous or the new document on disk.
type File struct {
	Path string
}

// NewFile returns a store for path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads the document, returning engine.ErrNoDocument when the file does not exist.
func (f *File) Load() (*engine.Document, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, engine.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLoadDocument, err)
	}

	var doc engine.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDecodeDocument, err)
	}
	return &doc, nil
}

// Save atomically replaces the document on disk.
func (f *File) Save(doc *engine.Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrEncodeDocument, err)
	}

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrWriteDocument, err)
	}
	tmpName := tmp.Name()
	// Best effort cleanup; after a successful rename the file is gone.
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", config.ErrWriteDocument, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", config.ErrWriteDocument, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrWriteDocument, err)
	}
	if err := os.Chmod(tmpName, config.FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", config.ErrWriteDocument, err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("%s: %w", config.ErrWriteDocument, err)
	}

	slog.Debug(config.MsgDocSaved,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, f.Path,
		config.LogKeySizeBytes, len(raw),
	)
	return nil
}
