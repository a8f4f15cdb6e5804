// Package utils holds input validation for values the user types in.
//
// Failures are apierr validation errors, so callers can treat them like
// any other client-side rejection.
package utils
