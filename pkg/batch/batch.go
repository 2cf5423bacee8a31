// Package batch partitions identifiers into fixed-size groups for bulk
// lookups.
package batch

// Slot is one position of a batch. Padding slots at the end of the final
// batch are empty.
type Slot[T any] struct {
	value T
	ok    bool
}

// Filled returns a slot holding v
func Filled[T any](v T) Slot[T] {
	return Slot[T]{value: v, ok: true}
}

// Get returns the slot's value and whether the slot holds one
func (s Slot[T]) Get() (T, bool) {
	return s.value, s.ok
}

// Empty reports whether s is padding
func (s Slot[T]) Empty() bool {
	return !s.ok
}

// Batch is an ordered group of exactly Size slots
type Batch[T any] struct {
	Index int
	Slots []Slot[T]
}

// Items returns the batch's values with padding removed, in order
func (b Batch[T]) Items() []T {
	items := make([]T, 0, len(b.Slots))
	for _, s := range b.Slots {
		if v, ok := s.Get(); ok {
			items = append(items, v)
		}
	}
	return items
}

// Len is the number of non-padding slots
func (b Batch[T]) Len() int {
	n := 0
	for _, s := range b.Slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

// Partition splits items into ceil(len(items)/size) batches of exactly size
// slots each. The last batch is padded with empty slots. Items are neither
// dropped, reordered nor duplicated. Partition panics if size < 1.
func Partition[T any](items []T, size int) []Batch[T] {
	if size < 1 {
		panic("batch: size must be positive")
	}

	count := (len(items) + size - 1) / size
	batches := make([]Batch[T], 0, count)
	for i := 0; i < count; i++ {
		slots := make([]Slot[T], size)
		for j := 0; j < size; j++ {
			if k := i*size + j; k < len(items) {
				slots[j] = Filled(items[k])
			}
		}
		batches = append(batches, Batch[T]{Index: i, Slots: slots})
	}
	return batches
}
