package persistence

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/resources"
)

func testWorld(t *testing.T) *engine.World {
	t.Helper()
	w, err := engine.Generate(engine.Params{
		Seed:                 99,
		Width:                48,
		Height:               48,
		Plates:               4,
		SeedSettlements:      2,
		SettlementPopulation: 16,
		Cultures:             []string{"northmen"},
	}, resources.Default())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return w
}

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadEmpty(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	ok, err := db.HasWorld(ctx)
	if err != nil || ok {
		t.Fatalf("HasWorld = %v, %v", ok, err)
	}
	if _, err := db.LoadWorld(ctx, resources.Default()); !errors.Is(err, ErrNoWorld) {
		t.Fatalf("err = %v, want ErrNoWorld", err)
	}
	id, err := db.RunID(ctx)
	if err != nil || id != uuid.Nil {
		t.Fatalf("RunID = %v, %v", id, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	w := testWorld(t)
	for range 3 {
		w.SimulateYear()
	}
	run := uuid.New()

	if err := db.SaveWorld(ctx, w, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := db.LoadWorld(ctx, resources.Default())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want, _ := w.Snapshot()
	got, _ := loaded.Snapshot()
	if !bytes.Equal(want, got) {
		t.Fatal("loaded world differs from saved world")
	}

	if id, _ := db.RunID(ctx); id != run {
		t.Fatalf("run id = %v, want %v", id, run)
	}
	if year, _ := db.Meta(ctx, MetaYear); year != "3" {
		t.Fatalf("year meta = %q", year)
	}
	if seed, _ := db.Meta(ctx, MetaSeed); seed != "99" {
		t.Fatalf("seed meta = %q", seed)
	}
}

func TestEventsMirroredIncrementally(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	w := testWorld(t)
	run := uuid.New()

	if err := db.SaveWorld(ctx, w, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	w.SimulateYear()
	w.SimulateYear()
	if err := db.SaveWorld(ctx, w, run); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := db.RecentEvents(ctx, w.Events.Len()+10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != w.Events.Len() {
		t.Fatalf("rows = %d, events = %d", len(rows), w.Events.Len())
	}
	for i, row := range rows {
		if want := w.Events.Len() - 1 - i; row.ID != want {
			t.Fatalf("row %d id = %d, want %d", i, row.ID, want)
		}
		if row.Summary == "" {
			t.Fatalf("event %d has no summary", row.ID)
		}
	}

	births, err := db.EventsOfKind(ctx, "birth")
	if err != nil || len(births) == 0 {
		t.Fatalf("births = %d, %v", len(births), err)
	}
}

func TestNewRunReplacesEvents(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	w := testWorld(t)
	w.SimulateYear()
	if err := db.SaveWorld(ctx, w, uuid.New()); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := testWorld(t)
	if err := db.SaveWorld(ctx, fresh, uuid.New()); err != nil {
		t.Fatalf("save: %v", err)
	}
	rows, err := db.RecentEvents(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != fresh.Events.Len()-1 {
		t.Fatalf("rows = %+v, want newest id %d", rows, fresh.Events.Len()-1)
	}
}
