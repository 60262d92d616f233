package main

import (
	"database/sql"
	"encoding/base64"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/legacyclonk/openworld-core/internal/config"
	"github.com/legacyclonk/openworld-core/internal/message"
	"github.com/legacyclonk/openworld-core/internal/section"
	"github.com/legacyclonk/openworld-core/internal/serialize"
	"github.com/legacyclonk/openworld-core/internal/value"
)

// TestSectionSnapshotRoundTripsThroughSQLite compiles a section's
// permanent overlay messages the same way SaveSectionSnapshot does, then
// round-trips the resulting blob through a real SQLite table instead of
// a Nakama storage fake, standing in for the production Storage*
// backend while still exercising the actual compiled bytes on disk.
func TestSectionSnapshotRoundTripsThroughSQLite(t *testing.T) {
	sec := section.New(config.Default(), []section.Material{{Name: "Sky"}})
	sec.Messages.Add(message.NewMessage(message.ScopeGlobal, nil, 0, "@Welcome to the world", sec.Frame(), 0))
	sec.Messages.Add(message.NewMessage(message.ScopeGlobalPlayer, nil, 7, "@You found the key", sec.Frame(), 0))

	gs := &GameMatchState{sec: sec}
	blob, err := compileSectionMessages(gs)
	if err != nil {
		t.Fatalf("compileSectionMessages: %v", err)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE section_snapshots (key TEXT PRIMARY KEY, blob_b64 TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(blob)
	if _, err := db.Exec(`INSERT INTO section_snapshots (key, blob_b64) VALUES (?, ?)`, "global", encoded); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}

	var readBack string
	row := db.QueryRow(`SELECT blob_b64 FROM section_snapshots WHERE key = ?`, "global")
	if err := row.Scan(&readBack); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	decodedBlob, err := base64.StdEncoding.DecodeString(readBack)
	if err != nil {
		t.Fatalf("decode blob: %v", err)
	}

	restoredSec := section.New(config.Default(), []section.Material{{Name: "Sky"}})
	restoredGS := &GameMatchState{sec: restoredSec}
	dec, err := serialize.NewDecompiler(decodedBlob, arenaEnumerator{arena: restoredGS.sec.Arena})
	if err != nil {
		t.Fatalf("NewDecompiler: %v", err)
	}
	v, err := dec.Value()
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}

	records := value.ArrayElements(v)
	if len(records) != 2 {
		t.Fatalf("got %d restored records, want 2", len(records))
	}

	wantTexts := map[int]string{0: "Welcome to the world", 7: "You found the key"}
	for _, rec := range records {
		player := int(value.Deref(value.Index(rec, "player")).I)
		text := value.Deref(value.Index(rec, "text"))
		var txt string
		if text.Str != nil {
			txt = *text.Str
		}
		want, ok := wantTexts[player]
		if !ok {
			t.Fatalf("unexpected player %d in restored record", player)
		}
		if txt != want {
			t.Fatalf("player %d: got text %q, want %q", player, txt, want)
		}
	}
}

// TestCompileSectionMessagesSkipsNonPermanent confirms only `@`-prefixed
// (permanent) overlay messages are included in a save snapshot.
func TestCompileSectionMessagesSkipsNonPermanent(t *testing.T) {
	sec := section.New(config.Default(), []section.Material{{Name: "Sky"}})
	sec.Messages.Add(message.NewMessage(message.ScopeGlobal, nil, 0, "@Permanent banner", sec.Frame(), 0))
	sec.Messages.Add(message.NewMessage(message.ScopeGlobal, nil, 0, "Transient toast", sec.Frame(), 300))

	gs := &GameMatchState{sec: sec}
	blob, err := compileSectionMessages(gs)
	if err != nil {
		t.Fatalf("compileSectionMessages: %v", err)
	}

	dec, err := serialize.NewDecompiler(blob, arenaEnumerator{arena: gs.sec.Arena})
	if err != nil {
		t.Fatalf("NewDecompiler: %v", err)
	}
	v, err := dec.Value()
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	if n := value.ArrayLen(v); n != 1 {
		t.Fatalf("got %d compiled records, want 1 (only the permanent message)", n)
	}
}
