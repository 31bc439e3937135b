// Package utils holds small generic helpers for optional wire fields.
package utils

// Value dereferences an optional field, yielding the zero value when it is absent.
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Ptr returns a pointer to a copy of v, for populating optional fields.
func Ptr[T any](v T) *T {
	return &v
}
