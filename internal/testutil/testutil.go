// Package testutil provides test utilities, currently miniredis helpers for
// exercising the result cache in unit tests without Docker (miniredis.go).
package testutil
