package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore()
	s.AddItem(shirt, 2, "M")
	s.AddItem(Product{ID: "p-hat", Name: "Hat", Price: 700, Stock: 3}, 1, "")

	b, err := EncodeSnapshot(s.Snapshot())
	if err != nil {
		t.Fatalf("encoding: %s", err)
	}

	snap, err := DecodeSnapshot(b)
	if err != nil {
		t.Fatalf("decoding: %s", err)
	}

	got, dropped := Restore(snap)
	if dropped != 0 {
		t.Fatalf("expected no dropped lines, got %d", dropped)
	}

	if diff := cmp.Diff(s.View(), got.View()); diff != "" {
		t.Fatalf("restored cart differs (-want +got):\n%s", diff)
	}
}

func TestEncodeEmptySnapshot(t *testing.T) {
	b, err := EncodeSnapshot(Snapshot{})
	if err != nil {
		t.Fatalf("encoding: %s", err)
	}

	if exp := `{"version":1,"lines":[]}`; string(b) != exp {
		t.Fatalf("expected %s, got %s", exp, b)
	}
}

func TestDecodeSnapshotErrors(t *testing.T) {
	tests := map[string]struct {
		data    string
		version bool
		corrupt bool
	}{
		"future version":  {data: `{"version":2,"lines":[]}`, version: true},
		"missing version": {data: `{"lines":[]}`, version: true},
		"garbage":         {data: `not json`, corrupt: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tc.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrSnapshotVersion); got != tc.version {
				t.Fatalf("expected version error %t, got %t: %s", tc.version, got, err)
			}
			if got := errors.Is(err, ErrSnapshotCorrupt); got != tc.corrupt {
				t.Fatalf("expected corrupt error %t, got %t: %s", tc.corrupt, got, err)
			}
		})
	}
}

func TestRestoreDropsInvalidLines(t *testing.T) {
	good := Line{ProductID: "a", Name: "A", Quantity: 2, UnitPrice: 100, AvailableStock: 4}

	snap := Snapshot{
		Version: SnapshotVersion,
		Lines: []Line{
			good,
			{ProductID: "b", Name: "B", Quantity: 0, UnitPrice: 100, AvailableStock: 4},
			{ProductID: "c", Name: "C", Quantity: 5, UnitPrice: 100, AvailableStock: 4},
			{ProductID: "", Name: "D", Quantity: 1, UnitPrice: 100, AvailableStock: 4},
			{ProductID: "a", Name: "A again", Quantity: 1, UnitPrice: 100, AvailableStock: 4},
		},
	}

	s, dropped := Restore(snap)
	if dropped != 4 {
		t.Fatalf("expected 4 dropped lines, got %d", dropped)
	}

	if diff := cmp.Diff([]Line{good}, s.Lines()); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
}

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySnapshots()

	if _, err := m.Load(ctx, "missing"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	s := NewStore()
	s.AddItem(shirt, 3, "")
	if err := m.Save(ctx, "c1", s.Snapshot()); err != nil {
		t.Fatalf("saving: %s", err)
	}

	snap, err := m.Load(ctx, "c1")
	if err != nil {
		t.Fatalf("loading: %s", err)
	}

	if diff := cmp.Diff(s.Snapshot(), snap); diff != "" {
		t.Fatalf("unexpected snapshot (-want +got):\n%s", diff)
	}
}
