package pose

// Tracker remembers the last value it was given and whether that value
// changed since it was last taken.
type Tracker[T comparable] struct {
	value T
	set   bool
	dirty bool
}

// Set stores v, marking the tracker dirty only when v differs from the
// stored value. The first Set always marks dirty.
func (t *Tracker[T]) Set(v T) {
	if !t.set || t.value != v {
		t.value = v
		t.set = true
		t.dirty = true
	}
}

// Take returns the stored value and whether it was dirty, then clears the
// dirty flag.
func (t *Tracker[T]) Take() (T, bool) {
	dirty := t.dirty
	t.dirty = false
	return t.value, dirty
}

// Touch marks a previously set value dirty again.
func (t *Tracker[T]) Touch() {
	if t.set {
		t.dirty = true
	}
}
