// Package inmemory provides a map-backed merkle.Storer, used by tests
// and by servers run without a database path.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/floatworksco/chatdock/pkg/merkle"
)

// Driver is an in-memory node store. Safe for concurrent use.
type Driver struct {
	mu    sync.RWMutex
	nodes map[string]*merkle.Node
}

// NewDriver creates an empty in-memory store.
func NewDriver() *Driver {
	return &Driver{nodes: make(map[string]*merkle.Node)}
}

func (d *Driver) Put(_ context.Context, node *merkle.Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.nodes[node.Hash]; ok {
		return false, nil
	}
	d.nodes[node.Hash] = node
	return true, nil
}

func (d *Driver) Get(_ context.Context, hash string) (*merkle.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	node, ok := d.nodes[hash]
	if !ok {
		return nil, merkle.ErrNotFound{Hash: hash}
	}
	return node, nil
}

func (d *Driver) Has(_ context.Context, hash string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.nodes[hash]
	return ok, nil
}

func (d *Driver) GetByParent(_ context.Context, parentHash *string) ([]*merkle.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matches := []*merkle.Node{}
	for _, node := range d.nodes {
		switch {
		case parentHash == nil && node.ParentHash == nil:
			matches = append(matches, node)
		case parentHash != nil && node.ParentHash != nil && *node.ParentHash == *parentHash:
			matches = append(matches, node)
		}
	}
	return matches, nil
}

func (d *Driver) List(_ context.Context) ([]*merkle.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	nodes := make([]*merkle.Node, 0, len(d.nodes))
	for _, node := range d.nodes {
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (d *Driver) Roots(ctx context.Context) ([]*merkle.Node, error) {
	return d.GetByParent(ctx, nil)
}

func (d *Driver) Leaves(_ context.Context) ([]*merkle.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	hasChild := make(map[string]bool, len(d.nodes))
	for _, node := range d.nodes {
		if node.ParentHash != nil {
			hasChild[*node.ParentHash] = true
		}
	}

	leaves := []*merkle.Node{}
	for _, node := range d.nodes {
		if !hasChild[node.Hash] {
			leaves = append(leaves, node)
		}
	}
	return leaves, nil
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
	return nil
}
