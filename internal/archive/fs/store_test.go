package fs

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/talgya/worldforge/internal/archive"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.Put(ctx, "worlds/1/0.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "worlds/1/0.json", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "worlds/1/0.json")
	if err != nil || string(got) != `{"a":2}` {
		t.Fatalf("get = %q, %v", got, err)
	}

	if _, err := s.Get(ctx, "worlds/1/9.json"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("missing key err = %v", err)
	}
}

func TestRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "worlds/../../x"} {
		if err := s.Put(ctx, key, nil); err == nil {
			t.Errorf("Put(%q) succeeded", key)
		}
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())
	for _, key := range []string{"worlds/2/10.json", "worlds/2/3.json", "worlds/7/1.json"} {
		if err := s.Put(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	keys, err := s.List(ctx, "worlds/2/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"worlds/2/10.json", "worlds/2/3.json"}; !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}
