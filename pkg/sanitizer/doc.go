// Package sanitizer normalizes free-text and identifier input before it is
// validated and stored.
//
// All functions are idempotent and never fail; invalid input degrades to an
// empty string rather than an error.
package sanitizer
