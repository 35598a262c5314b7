package utils

import "os"

// Getenv reads an environment variable, falling back to the given default
// when it is unset or empty. Config here is env-only, so every knob from the
// database DSN to the Kafka broker list goes through this helper.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}
