package utils

import "strconv"

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
