package log

import (
	"path/filepath"
	"testing"
	"time"

	"foundry.ai/internal/foundry/engine"
)

func TestAuditLogger_WritesReadableHourlyFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	clock := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	if err := l.WriteAudit(engine.AuditEntry{At: 1, Actor: "alice", Action: "CRAFT", StationID: "S1", ItemID: "ITM000000001"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	clock = clock.Add(2 * time.Minute)
	if err := l.WriteAudit(engine.AuditEntry{At: 2, Actor: "alice", Action: "INSTALL", CarrierID: "ITM000000001", ItemID: "ITM000000002"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "audit", "audit-*.jsonl.zst"))
	if err != nil || len(files) != 2 {
		t.Fatalf("files = %v err=%v", files, err)
	}

	var actions []string
	for _, f := range files {
		if err := ReadAuditFile(f, func(e engine.AuditEntry) error {
			actions = append(actions, e.Action)
			return nil
		}); err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	if len(actions) != 2 || actions[0] != "CRAFT" || actions[1] != "INSTALL" {
		t.Fatalf("actions = %v", actions)
	}
}
