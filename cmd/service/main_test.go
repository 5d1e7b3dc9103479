package main

import "testing"

// TestCoverageGaps_IntentionallyUntested: main only wires packages; the router, handlers
// and shutdown helpers it calls are tested in internal/http.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Skip("entrypoint wiring; exercising it needs a real API key and signal delivery")
}
