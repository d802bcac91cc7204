package forage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_AddAndObserve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Open(ctx, filepath.Join(t.TempDir(), "forage.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer app.Close()

	items := app.Model.Forageables().Subscribe(ctx)
	app.Model.AddForageable("Elderflower", "Canal path", true, "")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-items:
			if len(got) == 1 && got[0].Name == "Elderflower" {
				return
			}
		case <-deadline:
			t.Fatal("inserted record never observed")
		}
	}
}

func TestOpen_CloseFlushesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forage.db")

	app, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	app.Model.AddForageable("Sloe", "Hedge by the gate", false, "after first frost")
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case got := <-again.Model.Forageable(1).Subscribe(ctx):
		want := Forageable{ID: 1, Name: "Sloe", Address: "Hedge by the gate", Notes: "after first frost"}
		if got != want {
			t.Errorf("record = %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("record not persisted across Close")
	}
}
