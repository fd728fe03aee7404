package handler

import (
	"testing"
	"time"
)

func TestEncodeDecodeCursor_RoundTrips(t *testing.T) {
	want := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	encoded := encodeCursor(want, "chore-123")

	got, id, err := decodeCursor(encoded)
	if err != nil {
		t.Fatalf("decodeCursor: %v", err)
	}
	if !got.Equal(want) || id != "chore-123" {
		t.Fatalf("got (%v, %q), want (%v, %q)", got, id, want, "chore-123")
	}
}

func TestDecodeCursor_RejectsGarbage(t *testing.T) {
	if _, _, err := decodeCursor("not-valid-base64!!!"); err == nil {
		t.Fatal("expected error for malformed cursor")
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{
		0:    defaultLimit,
		-5:   defaultLimit,
		10:   10,
		1000: maxLimit,
	}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
