// Copyright (c) 2024 Akxen Labs

// Package casedb stores casefiles and solutions in a DuckDB database.
// Bodies are zstd-compressed JSON.
package casedb

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/klauspost/compress/zstd"
)

///////////////////////////////////////////////////////////////////////////////

// Store is a DuckDB-backed casefile/solution store. Safe for use from one
// goroutine at a time; batch drivers should open one store per worker.
type Store struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens (or creates) the store at path. An empty path opens an
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb at %q: %w", path, err)
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, encoder: encoder, decoder: decoder}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS casefiles (
			case_id    VARCHAR PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			body       BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS solutions (
			case_id    VARCHAR NOT NULL,
			run_mode   VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			body       BLOB NOT NULL,
			PRIMARY KEY (case_id, run_mode)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating store: %w", err)
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// PutCasefile inserts or replaces a casefile document.
func (s *Store) PutCasefile(caseID string, body []byte) error {
	compressed := s.encoder.EncodeAll(body, nil)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO casefiles (case_id, created_at, body) VALUES (?, ?, ?)`,
		caseID, time.Now().UTC(), compressed)
	if err != nil {
		return fmt.Errorf("storing casefile %s: %w", caseID, err)
	}
	return nil
}

// GetCasefile fetches a casefile document by id. Implements the engine's
// CaseStore interface.
func (s *Store) GetCasefile(caseID string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT body FROM casefiles WHERE case_id = ?`, caseID).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("casefile %s not found in store", caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading casefile %s: %w", caseID, err)
	}
	return s.decoder.DecodeAll(compressed, nil)
}

// PutSolution inserts or replaces a solved case's solution document.
func (s *Store) PutSolution(caseID, runMode string, body []byte) error {
	compressed := s.encoder.EncodeAll(body, nil)
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO solutions (case_id, run_mode, created_at, body) VALUES (?, ?, ?, ?)`,
		caseID, runMode, time.Now().UTC(), compressed)
	if err != nil {
		return fmt.Errorf("storing solution %s/%s: %w", caseID, runMode, err)
	}
	return nil
}

// GetSolution fetches a stored solution document.
func (s *Store) GetSolution(caseID, runMode string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(
		`SELECT body FROM solutions WHERE case_id = ? AND run_mode = ?`, caseID, runMode).Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("solution %s/%s not found in store", caseID, runMode)
	}
	if err != nil {
		return nil, fmt.Errorf("loading solution %s/%s: %w", caseID, runMode, err)
	}
	return s.decoder.DecodeAll(compressed, nil)
}

// ListCases returns stored case ids with the given prefix (e.g. a YYYYMMDD
// day), sorted.
func (s *Store) ListCases(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT case_id FROM casefiles WHERE case_id LIKE ? ORDER BY case_id`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
