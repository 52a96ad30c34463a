// Package normalization maps loosely formatted configuration strings onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization with error handling.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
	validKeys    []string // Cached for error messages
	clean        Func
}

// Func allows custom normalization behavior.
type Func func(string) string

// NewNormalizer creates a normalizer with a map of valid string->value pairs.
// Keys and inputs are compared case-insensitively with surrounding whitespace removed.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	return WithCustomNormalizer(values, defaultValue, defaultNormalization)
}

// WithCustomNormalizer creates a normalizer with custom string normalization.
func WithCustomNormalizer[T comparable](values map[string]T, defaultValue T, clean Func) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))

	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}

	// Sort keys for consistent error messages
	sort.Strings(validKeys)

	return &Normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
		clean:        clean,
	}
}

// Normalize attempts to convert a string to the enum type.
// Returns the default value if the string is not recognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, exists := n.validValues[n.clean(raw)]; exists {
		return value
	}
	return n.defaultValue
}

// Lookup is Normalize without the fallback: ok is false for unknown input.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	value, exists := n.validValues[n.clean(raw)]
	return value, exists
}

// NormalizeWithError attempts to convert a string to the enum type.
// Returns an error if the string is not recognized.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if value, exists := n.validValues[n.clean(raw)]; exists {
		return value, nil
	}

	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// ValidKeys returns all valid normalized keys.
func (n *Normalizer[T]) ValidKeys() []string {
	result := make([]string, len(n.validKeys))
	copy(result, n.validKeys)
	return result
}

func defaultNormalization(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
