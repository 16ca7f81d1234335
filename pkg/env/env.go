// Package env reads raw process environment values needed before full
// configuration loads, such as the log format.
package env

import "os"

// Get returns the named environment value, or fallback when unset or empty.
func Get(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
