package resp

import "github.com/google/btree"

const mapTreeDegree = 8

// MapEntry is a single key/value pair of a Map.
type MapEntry struct {
	Key   string
	Value Frame
}

// Map is a RESP map with unique string keys. Iteration and encoding always follow
// ascending key order regardless of insertion order. The zero value is an empty map.
type Map struct {
	tree *btree.BTreeG[MapEntry]
}

func lessMapEntry(a, b MapEntry) bool {
	return a.Key < b.Key
}

func NewMap() *Map {
	return &Map{tree: btree.NewG(mapTreeDegree, lessMapEntry)}
}

func (*Map) Type() Type { return TypeMap }
func (*Map) frame()     {}

// Set stores value under key, replacing any previous value. It returns the map so that
// literals can be built by chaining.
func (m *Map) Set(key string, value Frame) *Map {
	if m.tree == nil {
		m.tree = btree.NewG(mapTreeDegree, lessMapEntry)
	}
	m.tree.ReplaceOrInsert(MapEntry{Key: key, Value: value})
	return m
}

func (m *Map) Get(key string) (Frame, bool) {
	if m == nil || m.tree == nil {
		return nil, false
	}
	entry, ok := m.tree.Get(MapEntry{Key: key})
	return entry.Value, ok
}

func (m *Map) Delete(key string) bool {
	if m == nil || m.tree == nil {
		return false
	}
	_, ok := m.tree.Delete(MapEntry{Key: key})
	return ok
}

func (m *Map) Len() int {
	if m == nil || m.tree == nil {
		return 0
	}
	return m.tree.Len()
}

// Range calls fn for each entry in ascending key order until fn returns false.
func (m *Map) Range(fn func(key string, value Frame) bool) {
	if m == nil || m.tree == nil {
		return
	}
	m.tree.Ascend(func(entry MapEntry) bool {
		return fn(entry.Key, entry.Value)
	})
}

// Keys returns the keys in ascending order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(key string, _ Frame) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
