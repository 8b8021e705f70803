// Package store provides the keyed accumulator used to fold pipeline results.
package store

// Ordered is a key-value store that remembers first-insertion order.
// Put replaces the value of an existing key in place: the key keeps its
// original position and the previous value is discarded whole.
type Ordered[K comparable, V any] struct {
	index  map[K]int
	keys   []K
	values []V
}

// NewOrdered creates an empty store.
func NewOrdered[K comparable, V any]() *Ordered[K, V] {
	return &Ordered[K, V]{
		index: make(map[K]int),
	}
}

// Put stores v under k. It returns true when an earlier value was replaced.
func (o *Ordered[K, V]) Put(k K, v V) bool {
	if i, ok := o.index[k]; ok {
		o.values[i] = v

		return true
	}

	o.index[k] = len(o.keys)
	o.keys = append(o.keys, k)
	o.values = append(o.values, v)

	return false
}

// Get returns the value stored under k.
func (o *Ordered[K, V]) Get(k K) (V, bool) {
	i, ok := o.index[k]
	if !ok {
		var zero V

		return zero, false
	}

	return o.values[i], true
}

// Len returns the number of distinct keys.
func (o *Ordered[K, V]) Len() int {
	return len(o.keys)
}

// Keys returns the keys in first-insertion order.
func (o *Ordered[K, V]) Keys() []K {
	out := make([]K, len(o.keys))
	copy(out, o.keys)

	return out
}

// Values returns the values in first-insertion order of their keys.
func (o *Ordered[K, V]) Values() []V {
	out := make([]V, len(o.values))
	copy(out, o.values)

	return out
}
