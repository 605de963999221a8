// Package ptrx builds and reads pointers for optional JSON and database fields.
package ptrx

import "time"

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Bool returns a pointer to the bool value passed in.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer to the string value passed in.
func String(v string) *string {
	return &v
}

// Time returns a pointer to the time value passed in.
func Time(v time.Time) *time.Time {
	return &v
}

// Clone copies the pointee so the result shares no memory with v. nil stays nil.
func Clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Value returns the value of the pointer passed in or the zero value if the pointer is nil.
func Value[T any](v *T) T {
	if v != nil {
		return *v
	}
	var zero T
	return zero
}

// ValueOr returns the value of the pointer passed in or the default value if the pointer is nil.
func ValueOr[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}
