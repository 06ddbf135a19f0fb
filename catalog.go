package olympus

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/olympus/ets"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a SQLite database of indexed ETS containers keyed by their
// content digest.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens or creates the catalog database in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS container (id INTEGER PRIMARY KEY NOT NULL, digest TEXT NOT NULL UNIQUE, path TEXT NOT NULL, records INTEGER NOT NULL, table_offset INTEGER NOT NULL)",
		"CREATE TABLE IF NOT EXISTS level (container_id INTEGER NOT NULL, level INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, first_offset INTEGER NOT NULL, PRIMARY KEY(container_id, level), FOREIGN KEY(container_id) REFERENCES container(id) ON DELETE CASCADE)",
		"CREATE TABLE IF NOT EXISTS tile (container_id INTEGER NOT NULL, level INTEGER NOT NULL, col INTEGER NOT NULL, row INTEGER NOT NULL, data_offset INTEGER NOT NULL, data_size INTEGER NOT NULL, FOREIGN KEY(container_id) REFERENCES container(id) ON DELETE CASCADE)",
		"CREATE INDEX IF NOT EXISTS tile_position ON tile (container_id, level, col, row)",
	} {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Store records the pyramid and every tile record of container under
// digest, replacing anything already stored for that digest.
func (c *Catalog) Store(path, digest string, container *ets.Container) (err error) {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM container WHERE digest = ?", digest); err != nil {
		return err
	}

	idx := container.Index()
	result, err := tx.Exec("INSERT INTO container (digest, path, records, table_offset) VALUES (?, ?, ?, ?)", digest, path, idx.Header.RecordCount, idx.Header.TableOffset)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	tile, err := tx.Prepare("INSERT INTO tile (container_id, level, col, row, data_offset, data_size) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer tile.Close()

	for _, l := range idx.Levels {
		if _, err = tx.Exec("INSERT INTO level (container_id, level, width, height, first_offset) VALUES (?, ?, ?, ?, ?)", id, l.Level, l.Width, l.Height, l.FirstRecordOffset); err != nil {
			return err
		}

		if err = container.Records(l.Level, func(rec ets.Record, _ uint64) error {
			_, err := tile.Exec(id, rec.Level, rec.Column, rec.Row, rec.DataOffset, rec.DataSize)
			return err
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Lookup returns the pyramid stored under digest, or nil if the digest is
// not in the catalog.
func (c *Catalog) Lookup(digest string) (*ets.Index, error) {
	var (
		id  int64
		idx ets.Index
	)
	switch err := c.db.QueryRow("SELECT id, records, table_offset FROM container WHERE digest = ?", digest).Scan(&id, &idx.Header.RecordCount, &idx.Header.TableOffset); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
	default:
		return nil, err
	}

	rows, err := c.db.Query("SELECT level, width, height, first_offset FROM level WHERE container_id = ? ORDER BY level", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l ets.Level
		if err := rows.Scan(&l.Level, &l.Width, &l.Height, &l.FirstRecordOffset); err != nil {
			return nil, err
		}
		idx.Levels = append(idx.Levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &idx, nil
}

// FindTile returns the stored record for the tile at column x, row y of
// level l of the container with the given digest, or false if there is no
// such tile.
func (c *Catalog) FindTile(digest string, l, x, y uint32) (ets.Record, bool, error) {
	rec := ets.Record{
		Column: x,
		Row:    y,
		Level:  l,
	}
	switch err := c.db.QueryRow("SELECT t.data_offset, t.data_size FROM tile AS t JOIN container AS c ON t.container_id = c.id WHERE c.digest = ? AND t.level = ? AND t.col = ? AND t.row = ?", digest, l, x, y).Scan(&rec.DataOffset, &rec.DataSize); err {
	case sql.ErrNoRows:
		return ets.Record{}, false, nil
	case nil:
		return rec, true, nil
	default:
		return ets.Record{}, false, err
	}
}
