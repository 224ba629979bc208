// Package sqlite implements store.Store on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/belief/pkg/belief/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite catalog with WAL mode enabled and initializes the
// schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS networks (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS network_nodes (
	network TEXT NOT NULL,
	node TEXT NOT NULL,
	PRIMARY KEY(network, node),
	FOREIGN KEY(network) REFERENCES networks(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS node_parents (
	network TEXT NOT NULL,
	node TEXT NOT NULL,
	position INTEGER NOT NULL,
	parent TEXT NOT NULL,
	PRIMARY KEY(network, node, position),
	FOREIGN KEY(network) REFERENCES networks(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS node_cpt (
	network TEXT NOT NULL,
	node TEXT NOT NULL,
	row_idx INTEGER NOT NULL,
	p_true REAL NOT NULL,
	PRIMARY KEY(network, node, row_idx),
	FOREIGN KEY(network) REFERENCES networks(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS query_records (
	id TEXT PRIMARY KEY,
	network TEXT NOT NULL,
	variable TEXT NOT NULL,
	evidence TEXT,
	p_true REAL NOT NULL,
	p_false REAL NOT NULL,
	asked_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_records_network
	ON query_records(network, asked_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertNetwork inserts or replaces a network and all of its node rows.
func (s *sqliteStore) UpsertNetwork(ctx context.Context, n store.Network) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO networks (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, n.Name); err != nil {
		return err
	}

	// Replace node rows wholesale; partial updates are never needed.
	for _, table := range []string{"network_nodes", "node_parents", "node_cpt"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE network=?`, table), n.Name); err != nil {
			return err
		}
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO network_nodes (network, node) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()

	parentStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO node_parents (network, node, position, parent) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer parentStmt.Close()

	cptStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO node_cpt (network, node, row_idx, p_true) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cptStmt.Close()

	for _, spec := range n.Nodes {
		if _, err := nodeStmt.ExecContext(ctx, n.Name, spec.Name); err != nil {
			return err
		}
		for pos, parent := range spec.Parents {
			if _, err := parentStmt.ExecContext(ctx, n.Name, spec.Name, pos, parent); err != nil {
				return err
			}
		}
		for idx, p := range spec.Table {
			if _, err := cptStmt.ExecContext(ctx, n.Name, spec.Name, idx, p); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetNetwork returns a network by name.
func (s *sqliteStore) GetNetwork(ctx context.Context, name string) (store.Network, bool, error) {
	var exists string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM networks WHERE name=?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return store.Network{}, false, nil
	}
	if err != nil {
		return store.Network{}, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT node FROM network_nodes WHERE network=? ORDER BY node`, name)
	if err != nil {
		return store.Network{}, false, err
	}
	defer rows.Close()

	var nodes []store.NodeSpec
	for rows.Next() {
		var node string
		if err := rows.Scan(&node); err != nil {
			return store.Network{}, false, err
		}
		nodes = append(nodes, store.NodeSpec{Name: node})
	}
	if err := rows.Err(); err != nil {
		return store.Network{}, false, err
	}

	for i := range nodes {
		parents, err := s.nodeParents(ctx, name, nodes[i].Name)
		if err != nil {
			return store.Network{}, false, err
		}
		nodes[i].Parents = parents

		table, err := s.nodeTable(ctx, name, nodes[i].Name)
		if err != nil {
			return store.Network{}, false, err
		}
		nodes[i].Table = table
	}

	return store.Network{Name: name, Nodes: nodes}, true, nil
}

func (s *sqliteStore) nodeParents(ctx context.Context, network, node string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT parent FROM node_parents WHERE network=? AND node=? ORDER BY position`, network, node)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parents []string
	for rows.Next() {
		var parent string
		if err := rows.Scan(&parent); err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}
	return parents, rows.Err()
}

func (s *sqliteStore) nodeTable(ctx context.Context, network, node string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p_true FROM node_cpt WHERE network=? AND node=? ORDER BY row_idx`, network, node)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		table = append(table, p)
	}
	return table, rows.Err()
}

// ListNetworks returns all network names, sorted.
func (s *sqliteStore) ListNetworks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM networks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteNetwork removes a network, its node rows, and its query records.
func (s *sqliteStore) DeleteNetwork(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM networks WHERE name=?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM query_records WHERE network=?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendQueryRecord stores one answered query.
func (s *sqliteStore) AppendQueryRecord(ctx context.Context, r store.QueryRecord) error {
	evidence, err := json.Marshal(r.Evidence)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO query_records (id, network, variable, evidence, p_true, p_false, asked_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Network, r.Variable, string(evidence),
		r.PTrue, r.PFalse, r.AskedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetQueryRecords returns a network's records, most recent first.
func (s *sqliteStore) GetQueryRecords(ctx context.Context, network string, limit int) ([]store.QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, network, variable, evidence, p_true, p_false, asked_at
FROM query_records
WHERE network=?
ORDER BY asked_at DESC, id DESC
LIMIT ?`, network, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []store.QueryRecord
	for rows.Next() {
		var r store.QueryRecord
		var evidence, askedAt string
		if err := rows.Scan(&r.ID, &r.Network, &r.Variable, &evidence, &r.PTrue, &r.PFalse, &askedAt); err != nil {
			return nil, err
		}
		if evidence != "" {
			if err := json.Unmarshal([]byte(evidence), &r.Evidence); err != nil {
				return nil, fmt.Errorf("record %s: decode evidence: %w", r.ID, err)
			}
		}
		ts, err := time.Parse(time.RFC3339Nano, askedAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: decode timestamp: %w", r.ID, err)
		}
		r.AskedAt = ts
		records = append(records, r)
	}
	return records, rows.Err()
}
