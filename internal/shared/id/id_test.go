package id

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{SessionPrefix, RequestPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Fatalf("ID should have format 'prefix_ulid', got: %s", id)
		}
		if parts[0] != prefix {
			t.Errorf("Expected prefix '%s', got '%s'", prefix, parts[0])
		}
		if len(parts[1]) != 26 {
			t.Errorf("ULID should be 26 characters, got %d", len(parts[1]))
		}
	}
}

func TestValidSessionID(t *testing.T) {
	if !ValidSessionID(NewSessionID().String()) {
		t.Error("Generated session ID should be valid")
	}

	invalid := []string{
		"",
		"sess_",
		"sess_invalid",
		NewRequestID().String(),
		"zzzzzzzzzzzzzzzzzzzzzzzzzz",
	}
	for _, s := range invalid {
		if ValidSessionID(s) {
			t.Errorf("Session ID should be invalid: %q", s)
		}
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines = 50
	const idsPerGoroutine = 50

	var wg sync.WaitGroup
	idChan := make(chan string, goroutines*idsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- NewSessionID().String()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	seen := make(map[string]bool)
	for id := range idChan {
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
