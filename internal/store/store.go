// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package store keeps named projects in a SQLite database.
//
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/db47h/circsim/format"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no project has the requested name.
//
var ErrNotFound = errors.New("project not found")

// Entry describes a stored project.
//
type Entry struct {
	ID       uuid.UUID
	Name     string
	Circuits int
	Created  time.Time
	Updated  time.Time
}

// Store is a project database.
//
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. Use ":memory:" for a
// transient store.
//
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// an in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err = s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		circuits INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`)
	return err
}

// Close closes the database.
//
func (s *Store) Close() error { return s.db.Close() }

// Save stores f under name, replacing any project of the same name. The
// project keeps its ID and creation time across saves.
//
func (s *Store) Save(ctx context.Context, name string, f *format.File) (*Entry, error) {
	if name == "" {
		return nil, errors.New("empty project name")
	}
	data, err := format.Marshal(f)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	e, err := s.entry(ctx, name)
	switch {
	case err == ErrNotFound:
		e = &Entry{ID: uuid.New(), Name: name, Created: now}
	case err != nil:
		return nil, err
	}
	e.Circuits = len(f.Circuits)
	e.Updated = now
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, circuits, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			circuits = excluded.circuits,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, e.ID.String(), name, e.Circuits, data, e.Created.UnixNano(), e.Updated.UnixNano())
	if err != nil {
		return nil, errors.Wrapf(err, "save project %s", name)
	}
	log.WithFields(log.Fields{"name": name, "id": e.ID}).Debug("project saved")
	return e, nil
}

// Load returns the project stored under name.
//
func (s *Store) Load(ctx context.Context, name string) (*format.File, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM projects WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load project %s", name)
	}
	return format.Unmarshal(data)
}

// List returns every stored project, by name.
//
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, circuits, created_at, updated_at
		FROM projects ORDER BY name
	`)
	if err != nil {
		return nil, errors.Wrap(err, "list projects")
	}
	defer rows.Close()
	var es []Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		es = append(es, *e)
	}
	return es, errors.Wrap(rows.Err(), "list projects")
}

// Delete removes the project stored under name.
//
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return errors.Wrapf(err, "delete project %s", name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrap(ErrNotFound, name)
	}
	return nil
}

func (s *Store) entry(ctx context.Context, name string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, circuits, created_at, updated_at
		FROM projects WHERE name = ?
	`, name)
	e, err := scan(row)
	if errors.Cause(err) == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(r scanner) (*Entry, error) {
	var (
		e        Entry
		id       string
		cre, upd int64
	)
	if err := r.Scan(&id, &e.Name, &e.Circuits, &cre, &upd); err != nil {
		return nil, errors.Wrap(err, "scan project")
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, errors.Wrapf(err, "project %s", e.Name)
	}
	e.Created, e.Updated = time.Unix(0, cre), time.Unix(0, upd)
	return &e, nil
}
