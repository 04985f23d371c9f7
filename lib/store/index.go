package store

// Index maps index style access (exists, load, store, unset) onto an IStore,
// decoding loaded values into V.
//
// Usage:
//
//	sessions := store.NewIndex[Session](s)
//	_ = sessions.Store("session:123", Session{User: "alice"})
//	sess, ok, err := sessions.Load("session:123")
type Index[V any] struct {
	store IStore
	// TTL is passed to Set by Store (absolute unix seconds, 0 = never).
	TTL int64
}

// NewIndex creates a new Index on top of s.
func NewIndex[V any](s IStore) *Index[V] {
	return &Index[V]{store: s}
}

// Exists reports whether key is present (see IStore.Has).
func (i *Index[V]) Exists(key string) (bool, error) {
	return i.store.Has(key)
}

// Load returns the value of key decoded into V.
func (i *Index[V]) Load(key string) (V, bool, error) {
	var out V
	val, ok, err := i.store.Get(key)
	if err != nil || !ok {
		return out, false, err
	}
	if val.IsNull() {
		return out, true, nil
	}
	if err := val.Decode(&out); err != nil {
		return out, false, WrapError(RetCDecodeError, "cannot decode value of "+key, err)
	}
	return out, true, nil
}

// Store sets key to value with the TTL of the index.
func (i *Index[V]) Store(key string, value V) error {
	return i.store.Set(key, Structured(value), i.TTL)
}

// Unset deletes key.
func (i *Index[V]) Unset(key string) error {
	return i.store.Delete(key)
}
