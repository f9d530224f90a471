// Package filestore keeps trigger records as zstd-compressed JSON files, one
// per save slot, next to the host's save games.
package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/ShaneeexD/SODMurderItemSpawner-sub000/internal/trigger"
)

const fileSuffix = ".triggers.json.zst"

// Store implements trigger.Store on a directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file that holds slot.
func (s *Store) Path(slot string) (string, error) {
	if slot == "" || strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return "", fmt.Errorf("invalid save slot %q", slot)
	}
	return filepath.Join(s.dir, slot+fileSuffix), nil
}

// Load implements trigger.Store.
func (s *Store) Load(_ context.Context, slot string) (trigger.Record, error) {
	var rec trigger.Record

	path, err := s.Path(slot)
	if err != nil {
		return rec, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rec, trigger.ErrNoRecord
		}
		return rec, fmt.Errorf("opening trigger file %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return rec, fmt.Errorf("opening zstd stream %s: %w", path, err)
	}
	defer dec.Close()

	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&rec); err != nil {
		return rec, fmt.Errorf("decoding trigger file %s: %w", path, err)
	}
	if rec.Rules == nil {
		rec.Rules = make(map[string]trigger.RuleState)
	}
	return rec, nil
}

// Save implements trigger.Store. The record is written to a temporary file
// and renamed over the previous one so a crash never leaves a torn file.
func (s *Store) Save(_ context.Context, slot string, rec trigger.Record) error {
	path, err := s.Path(slot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating trigger directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp trigger file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := writeRecord(tmp, rec); err != nil {
		tmp.Close()
		return fmt.Errorf("writing trigger file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp trigger file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing trigger file %s: %w", path, err)
	}
	return nil
}

func writeRecord(f *os.File, rec trigger.Record) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)
	if err := json.NewEncoder(bw).Encode(rec); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Clear implements trigger.Store.
func (s *Store) Clear(_ context.Context, slot string) error {
	path, err := s.Path(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing trigger file %s: %w", path, err)
	}
	return nil
}
