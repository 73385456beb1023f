package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	if len(id) != 36 {
		t.Fatalf("UUIDv7: got length %d, want 36 (%q)", len(id), id)
	}
	if id[14] != '7' {
		t.Fatalf("UUIDv7: version nibble = %c, want 7 (%q)", id[14], id)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("uuid.Parse(%q): %v", id, err)
	}
}

func TestUUIDv7_Sortable(t *testing.T) {
	gen := UUIDv7()
	prev := gen()
	for i := 0; i < 100; i++ {
		id := gen()
		if id <= prev {
			t.Fatalf("UUIDv7 not increasing: %q after %q", id, prev)
		}
		prev = id
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("req_", UUIDv7())()
	if !strings.HasPrefix(id, "req_") {
		t.Fatalf("got %q, want req_ prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "req_")); err != nil {
		t.Fatalf("suffix not a UUID: %v", err)
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence("evt")
	for _, want := range []string{"evt1", "evt2", "evt3"} {
		if got := gen(); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}
