// Package sqlite provides a SQLite-backed merkle.Storer for durable
// conversation recording across server restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/floatworksco/chatdock/pkg/merkle"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	hash        TEXT PRIMARY KEY,
	parent_hash TEXT,
	content     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_hash);
`

// Driver is a SQLite node store. Node content round-trips through JSON,
// so retrieved content is the generic unmarshaled form, not the original
// Go type.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (and if needed initializes) the database at path.
// Use ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, path string) (*Driver, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Driver{db: db}, nil
}

func (d *Driver) Put(ctx context.Context, node *merkle.Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	content, err := json.Marshal(node.Content)
	if err != nil {
		return false, fmt.Errorf("marshal content: %w", err)
	}

	var parent sql.NullString
	if node.ParentHash != nil {
		parent = sql.NullString{String: *node.ParentHash, Valid: true}
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (hash, parent_hash, content) VALUES (?, ?, ?)`,
		node.Hash, parent, string(content),
	)
	if err != nil {
		return false, fmt.Errorf("insert node: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (d *Driver) Get(ctx context.Context, hash string) (*merkle.Node, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT hash, parent_hash, content FROM nodes WHERE hash = ?`, hash)

	node, err := scanNode(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, merkle.ErrNotFound{Hash: hash}
	}
	return node, err
}

func (d *Driver) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM nodes WHERE hash = ?`, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Driver) GetByParent(ctx context.Context, parentHash *string) ([]*merkle.Node, error) {
	if parentHash == nil {
		return d.queryNodes(ctx, `SELECT hash, parent_hash, content FROM nodes WHERE parent_hash IS NULL`)
	}
	return d.queryNodes(ctx, `SELECT hash, parent_hash, content FROM nodes WHERE parent_hash = ?`, *parentHash)
}

func (d *Driver) List(ctx context.Context) ([]*merkle.Node, error) {
	return d.queryNodes(ctx, `SELECT hash, parent_hash, content FROM nodes`)
}

func (d *Driver) Roots(ctx context.Context) ([]*merkle.Node, error) {
	return d.GetByParent(ctx, nil)
}

func (d *Driver) Leaves(ctx context.Context) ([]*merkle.Node, error) {
	return d.queryNodes(ctx, `
		SELECT hash, parent_hash, content FROM nodes
		WHERE hash NOT IN (SELECT parent_hash FROM nodes WHERE parent_hash IS NOT NULL)`)
}

func (d *Driver) Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error) {
	var path []*merkle.Node
	current := hash
	for {
		node, err := d.Get(ctx, current)
		if err != nil {
			return nil, err
		}
		path = append(path, node)
		if node.ParentHash == nil {
			return path, nil
		}
		current = *node.ParentHash
	}
}

func (d *Driver) Descendants(ctx context.Context, hash string) ([]*merkle.Node, error) {
	ancestry, err := d.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(ancestry)-1; i < j; i, j = i+1, j-1 {
		ancestry[i], ancestry[j] = ancestry[j], ancestry[i]
	}
	return ancestry, nil
}

func (d *Driver) Depth(ctx context.Context, hash string) (int, error) {
	ancestry, err := d.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}
	return len(ancestry) - 1, nil
}

func (d *Driver) Close() error {
	return d.db.Close()
}

func (d *Driver) queryNodes(ctx context.Context, query string, args ...any) ([]*merkle.Node, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []*merkle.Node{}
	for rows.Next() {
		node, err := scanNode(rows.Scan)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func scanNode(scan func(...any) error) (*merkle.Node, error) {
	var (
		node    merkle.Node
		parent  sql.NullString
		content string
	)
	if err := scan(&node.Hash, &parent, &content); err != nil {
		return nil, err
	}
	if parent.Valid {
		node.ParentHash = &parent.String
	}
	if err := json.Unmarshal([]byte(content), &node.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}
	return &node, nil
}
