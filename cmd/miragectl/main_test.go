package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func runCtl(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := newApp(&out).RunContext(context.Background(), append([]string{"miragectl"}, args...)); err != nil {
		t.Fatalf("miragectl %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestNextNumberOnFreshDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")

	got := strings.TrimSpace(runCtl(t, "--db", dbPath, "next-number", "quotation"))
	want := "QTN-" + time.Now().Format("2006") + "-0001"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestExportThenImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ctl.db")
	backupPath := filepath.Join(dir, "backup.json")

	out := runCtl(t, "--db", dbPath, "export", "--out", backupPath)
	if !strings.Contains(out, "wrote "+backupPath) {
		t.Fatalf("unexpected export output %q", out)
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("backup not written: %v", err)
	}

	out = runCtl(t, "--db", filepath.Join(dir, "restored.db"), "import", "--admin-password", "Restore#123", backupPath)
	if !strings.Contains(out, "restored 0 products") {
		t.Fatalf("unexpected import output %q", out)
	}
}

func TestRecoverEditsWithNothingPending(t *testing.T) {
	out := runCtl(t, "--db", filepath.Join(t.TempDir(), "ctl.db"), "recover-edits")
	if strings.TrimSpace(out) != "recovered 0 pending edits" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCountersStartAtZero(t *testing.T) {
	out := runCtl(t, "--db", filepath.Join(t.TempDir(), "ctl.db"), "counters")
	if strings.TrimSpace(out) != "invoice=0 quotation=0 shipment=0" {
		t.Fatalf("unexpected output %q", out)
	}
}
