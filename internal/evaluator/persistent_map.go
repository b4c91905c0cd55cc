package evaluator

import (
	"hash/maphash"

	"github.com/funvibe/nickel/internal/term"
)

// Persistent Hash Array Mapped Trie (HAMT) implementation
// Provides efficient immutable map operations

const (
	hamtBits = 5
	hamtSize = 1 << hamtBits // 32
	hamtMask = hamtSize - 1
)

var hashSeed = maphash.MakeSeed()

// PersistentMap is an immutable map from identifiers to thunks
type PersistentMap struct {
	root  *hamtNode
	count int
}

// hamtNode is a node in the HAMT
type hamtNode struct {
	bitmap uint32        // which indices are populated
	nodes  []interface{} // hamtEntry or *hamtNode
}

// hamtEntry holds a key-value pair
type hamtEntry struct {
	hash  uint32
	key   term.Ident
	value *Thunk
}

// EmptyMap returns an empty persistent map
func EmptyMap() *PersistentMap {
	return &PersistentMap{}
}

// Len returns the number of entries
func (m *PersistentMap) Len() int {
	return m.count
}

// Get returns the value for a key, or nil if not found
func (m *PersistentMap) Get(key term.Ident) *Thunk {
	if m.root == nil {
		return nil
	}
	return m.root.get(hashIdent(key), key, 0)
}

// Put returns a new map with the key-value pair added/updated
func (m *PersistentMap) Put(key term.Ident, value *Thunk) *PersistentMap {
	hash := hashIdent(key)

	root := m.root
	if root == nil {
		root = &hamtNode{}
	}
	newRoot, added := root.put(hash, key, value, 0)

	newCount := m.count
	if added {
		newCount++
	}
	return &PersistentMap{root: newRoot, count: newCount}
}

// Items returns all key-value pairs
func (m *PersistentMap) Items() []struct {
	Key   term.Ident
	Value *Thunk
} {
	items := make([]struct {
		Key   term.Ident
		Value *Thunk
	}, 0, m.count)
	if m.root != nil {
		m.root.collectItems(&items)
	}
	return items
}

// Merge returns a new map with entries from other (other wins on conflict)
func (m *PersistentMap) Merge(other *PersistentMap) *PersistentMap {
	if m.count == 0 {
		return other
	}
	result := m
	for _, item := range other.Items() {
		result = result.Put(item.Key, item.Value)
	}
	return result
}

// --- hamtNode methods ---

func (n *hamtNode) get(hash uint32, key term.Ident, shift uint) *Thunk {
	if shift >= 32 {
		// Collision bucket search
		for _, node := range n.nodes {
			if entry, ok := node.(hamtEntry); ok && entry.key == key {
				return entry.value
			}
		}
		return nil
	}

	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx

	if n.bitmap&bit == 0 {
		return nil // not present
	}

	pos := popcount(n.bitmap & (bit - 1))
	switch v := n.nodes[pos].(type) {
	case hamtEntry:
		if v.hash == hash && v.key == key {
			return v.value
		}
		return nil
	case *hamtNode:
		return v.get(hash, key, shift+hamtBits)
	}
	return nil
}

func (n *hamtNode) put(hash uint32, key term.Ident, value *Thunk, shift uint) (*hamtNode, bool) {
	// Clone node
	newNode := &hamtNode{
		bitmap: n.bitmap,
		nodes:  make([]interface{}, len(n.nodes)),
	}
	copy(newNode.nodes, n.nodes)

	// Hash bits exhausted: this node is a collision bucket.
	if shift >= 32 {
		for i, node := range newNode.nodes {
			if entry, ok := node.(hamtEntry); ok && entry.key == key {
				newNode.nodes[i] = hamtEntry{hash: hash, key: key, value: value}
				return newNode, false
			}
		}
		newNode.nodes = append(newNode.nodes, hamtEntry{hash: hash, key: key, value: value})
		return newNode, true
	}

	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx

	if n.bitmap&bit == 0 {
		// New entry
		newNode.bitmap |= bit
		pos := popcount(newNode.bitmap & (bit - 1))

		// Insert at position
		newNode.nodes = append(newNode.nodes, nil)
		copy(newNode.nodes[pos+1:], newNode.nodes[pos:])
		newNode.nodes[pos] = hamtEntry{hash: hash, key: key, value: value}
		return newNode, true
	}

	pos := popcount(n.bitmap & (bit - 1))
	switch v := newNode.nodes[pos].(type) {
	case hamtEntry:
		if v.hash == hash && v.key == key {
			// Update existing value
			newNode.nodes[pos] = hamtEntry{hash: hash, key: key, value: value}
			return newNode, false
		}

		// Collision - create child node and push both entries down
		child := &hamtNode{}
		child, _ = child.put(v.hash, v.key, v.value, shift+hamtBits)
		child, _ = child.put(hash, key, value, shift+hamtBits)
		newNode.nodes[pos] = child
		return newNode, true

	case *hamtNode:
		newChild, added := v.put(hash, key, value, shift+hamtBits)
		newNode.nodes[pos] = newChild
		return newNode, added
	}

	return newNode, false
}

func (n *hamtNode) collectItems(items *[]struct {
	Key   term.Ident
	Value *Thunk
}) {
	for _, node := range n.nodes {
		switch v := node.(type) {
		case hamtEntry:
			*items = append(*items, struct {
				Key   term.Ident
				Value *Thunk
			}{v.key, v.value})
		case *hamtNode:
			v.collectItems(items)
		}
	}
}

// --- Helper functions ---

func hashIdent(id term.Ident) uint32 {
	h := maphash.String(hashSeed, string(id))
	return uint32(h ^ (h >> 32))
}

// popcount counts set bits
func popcount(x uint32) int {
	x = x - ((x >> 1) & 0x55555555)
	x = (x & 0x33333333) + ((x >> 2) & 0x33333333)
	x = (x + (x >> 4)) & 0x0f0f0f0f
	x = x + (x >> 8)
	x = x + (x >> 16)
	return int(x & 0x3f)
}
