// Package store persists stock records and analysis results as flat JSON
// files under one directory. Flat files are the only persistence layer; a
// snapshot is a point-in-time document, never mutated in place.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ashare_analysis/pkg/core/jsonutil"
	"ashare_analysis/pkg/models"
)

// Store reads and writes JSON snapshots under its base directory.
type Store struct {
	dir string
}

// Open ensures the directory exists and returns a store over it.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(".", "data")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveRecord writes one stock record, keyed by code and fetch date.
func (s *Store) SaveRecord(rec *models.StockRecord) (string, error) {
	name := fmt.Sprintf("%s_%s.json", rec.Code, time.Now().Format("20060102"))
	path := filepath.Join(s.dir, name)
	if err := s.writeJSON(path, rec); err != nil {
		return "", err
	}
	return path, nil
}

// LoadRecord reads a stock record from an arbitrary path, validating nothing;
// contract checks belong to the caller. The decode is lenient so snapshots
// that were hand-edited still load.
func (s *Store) LoadRecord(path string) (*models.StockRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec models.StockRecord
	if err := jsonutil.DecodeLenient(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}
	return &rec, nil
}

// LatestRecord finds the most recent snapshot for a code, by filename.
func (s *Store) LatestRecord(code string) (*models.StockRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan store dir: %w", err)
	}
	var names []string
	prefix := code + "_"
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no snapshot for %s under %s", code, s.dir)
	}
	sort.Strings(names)
	return s.LoadRecord(filepath.Join(s.dir, names[len(names)-1]))
}

// SaveResult writes any result document under a kind prefix.
func (s *Store) SaveResult(kind, key string, doc any) (string, error) {
	name := fmt.Sprintf("%s_%s_%s.json", kind, key, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	if err := s.writeJSON(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// writeJSON writes pretty JSON atomically: temp file in the same directory,
// then rename, so a crash never leaves a half-written snapshot behind.
func (s *Store) writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}
