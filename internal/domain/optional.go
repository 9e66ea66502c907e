package domain

// Optional is a patch value that is either explicitly set or absent.
// A set Optional may hold the zero value (e.g. a JSON null clears a string).
//
// Resolution order for a patched field is: explicit value, then the prior
// stored value, then the type default (which is what the prior value is when
// the field was never stored).
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// IsSet reports whether the Optional carries an explicit value.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the explicit value when set, otherwise prior.
func (o Optional[T]) Or(prior T) T {
	if o.set {
		return o.value
	}
	return prior
}
