package testhelpers

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// ========================================
// JSON Assertion Helpers
// ========================================

// AssertJSONContainsKey checks if a JSON object contains a specific key
func AssertJSONContainsKey(t *testing.T, jsonStr string, key string, msg string) {
	t.Helper()

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		t.Fatalf("%s: failed to parse JSON: %v", msg, err)
	}

	if _, exists := obj[key]; !exists {
		t.Errorf("%s: JSON does not contain key %q", msg, key)
	}
}

// AssertJSONKeyValue checks if a JSON object has a specific key-value pair
func AssertJSONKeyValue(t *testing.T, jsonStr string, key string, expectedValue interface{}, msg string) {
	t.Helper()

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		t.Fatalf("%s: failed to parse JSON: %v", msg, err)
	}

	actualValue, exists := obj[key]
	if !exists {
		t.Errorf("%s: JSON does not contain key %q", msg, key)
		return
	}

	// Convert both to JSON for comparison to handle type differences
	expectedJSON, _ := json.Marshal(expectedValue)
	actualJSON, _ := json.Marshal(actualValue)

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("%s: JSON key %q mismatch\nexpected: %v\nactual: %v", msg, key, expectedValue, actualValue)
	}
}

// ========================================
// Concurrent Testing Helpers
// ========================================

// ConcurrentTest runs a function concurrently multiple times and waits for completion
func ConcurrentTest(t *testing.T, goroutines int, fn func(workerID int)) {
	t.Helper()

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			fn(id)
		}(i)
	}

	wg.Wait()
}

// ========================================
// Time Helpers
// ========================================

// AssertTimeWithin checks if a time is within a duration of another time
func AssertTimeWithin(t *testing.T, actual, reference time.Time, tolerance time.Duration, msg string) {
	t.Helper()

	diff := actual.Sub(reference)
	if diff < 0 {
		diff = -diff
	}

	if diff > tolerance {
		t.Errorf("%s: time difference %v exceeds tolerance %v (actual: %v, reference: %v)",
			msg, diff, tolerance, actual, reference)
	}
}

// ========================================
// Slice Helpers
// ========================================

// AssertSliceContains checks if a slice contains a specific element
func AssertSliceContains[T comparable](t *testing.T, slice []T, elem T, msg string) {
	t.Helper()

	for _, e := range slice {
		if e == elem {
			return
		}
	}
	t.Errorf("%s: slice does not contain %v", msg, elem)
}
