package graph

import "sync"

// Project computes an index key for id. If it reads a Signal (via
// store field accessors), the index re-buckets the item automatically
// whenever that signal changes (spec.md §4.2: "if the projection reads
// a signal, the index is reactive").
type Project func(store *Store, id ID) any

// Index is one named, possibly-reactive bucketing of a Collection's
// members. Re-bucketing a member removes it from its old bucket before
// adding it to the new one, so a concurrent Bucket call never observes
// an item in both or neither (spec.md §4.2).
type Index struct {
	mu      sync.Mutex
	name    string
	project Project
	buckets map[any][]ID
	keyOf   map[ID]any
}

func newIndex(name string, project Project) *Index {
	return &Index{
		name:    name,
		project: project,
		buckets: make(map[any][]ID),
		keyOf:   make(map[ID]any),
	}
}

// place buckets id for the first time.
func (idx *Index) place(store *Store, id ID) {
	key := idx.project(store, id)
	idx.mu.Lock()
	idx.buckets[key] = appendUniqueID(idx.buckets[key], id)
	idx.keyOf[id] = key
	idx.mu.Unlock()
}

// rebucket moves id to the key it currently projects to, atomically
// with respect to Bucket readers (old bucket mutation happens before
// new bucket mutation, both under the same lock acquisition).
func (idx *Index) rebucket(store *Store, id ID) {
	newKey := idx.project(store, id)
	idx.mu.Lock()
	oldKey, had := idx.keyOf[id]
	if had && oldKey == newKey {
		idx.mu.Unlock()
		return
	}
	if had {
		idx.buckets[oldKey] = removeElementID(idx.buckets[oldKey], id)
		if len(idx.buckets[oldKey]) == 0 {
			delete(idx.buckets, oldKey)
		}
	}
	idx.buckets[newKey] = appendUniqueID(idx.buckets[newKey], id)
	idx.keyOf[id] = newKey
	idx.mu.Unlock()
}

func (idx *Index) drop(id ID) {
	idx.mu.Lock()
	if key, ok := idx.keyOf[id]; ok {
		idx.buckets[key] = removeElementID(idx.buckets[key], id)
		if len(idx.buckets[key]) == 0 {
			delete(idx.buckets, key)
		}
		delete(idx.keyOf, id)
	}
	idx.mu.Unlock()
}

// Bucket returns the ids currently keyed under key, a copy safe to
// range over while the index keeps changing.
func (idx *Index) Bucket(key any) []ID {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	src := idx.buckets[key]
	out := make([]ID, len(src))
	copy(out, src)
	return out
}

// KeyOf returns the key id is currently bucketed under.
func (idx *Index) KeyOf(id ID) (any, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	key, ok := idx.keyOf[id]
	return key, ok
}

func appendUniqueID(slice []ID, item ID) []ID {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElementID(slice []ID, item ID) []ID {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
