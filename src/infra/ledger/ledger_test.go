package ledger

import (
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestMarkProcessed_SuccessOverwritesPriorFailed(t *testing.T) {
	l := openTestLedger(t)

	if err := l.MarkProcessed("curated", 1, StatusFailed, "download_failed"); err != nil {
		t.Fatalf("marking failed: %v", err)
	}
	if err := l.MarkProcessed("curated", 1, StatusSuccess, ""); err != nil {
		t.Fatalf("marking success: %v", err)
	}

	entry, found, err := l.GetEntry("curated", 1)
	if err != nil {
		t.Fatalf("getting entry: %v", err)
	}
	if !found {
		t.Fatal("expected an entry to exist")
	}
	if entry.Status != StatusSuccess {
		t.Errorf("expected status %q, got %q", StatusSuccess, entry.Status)
	}
	if entry.ErrorMessage != "" {
		t.Errorf("expected cleared error message, got %q", entry.ErrorMessage)
	}
}

func TestGetSettledIDs_DefaultsToSuccessAndFailed(t *testing.T) {
	l := openTestLedger(t)

	l.MarkProcessed("curated", 1, StatusSuccess, "")
	l.MarkProcessed("curated", 2, StatusFailed, "segmentation_failed")
	l.MarkProcessed("curated", 3, StatusSkipped, "")

	ids, err := l.GetSettledIDs("curated")
	if err != nil {
		t.Fatalf("getting settled ids: %v", err)
	}
	if !ids[1] || !ids[2] {
		t.Errorf("expected tracks 1 and 2 settled, got %v", ids)
	}
	if ids[3] {
		t.Error("expected skipped status to be excluded from default settled set")
	}
}

func TestGetSettledIDs_ScopedBySource(t *testing.T) {
	l := openTestLedger(t)

	l.MarkProcessed("curated", 1, StatusSuccess, "")
	l.MarkProcessed("lrclib", 2, StatusSuccess, "")

	ids, err := l.GetSettledIDs("curated")
	if err != nil {
		t.Fatalf("getting settled ids: %v", err)
	}
	if !ids[1] {
		t.Error("expected track 1 (curated) to be settled")
	}
	if ids[2] {
		t.Error("did not expect track 2 (lrclib) to be settled under source curated")
	}
}

func TestGetProcessedCount_FiltersBySourceAndStatus(t *testing.T) {
	l := openTestLedger(t)

	l.MarkProcessed("curated", 1, StatusSuccess, "")
	l.MarkProcessed("curated", 2, StatusFailed, "err")
	l.MarkProcessed("lrclib", 3, StatusSuccess, "")

	total, _ := l.GetProcessedCount("", "")
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}

	curatedOnly, _ := l.GetProcessedCount("curated", "")
	if curatedOnly != 2 {
		t.Errorf("expected 2 curated rows, got %d", curatedOnly)
	}

	succeeded, _ := l.GetProcessedCount("", StatusSuccess)
	if succeeded != 2 {
		t.Errorf("expected 2 succeeded rows, got %d", succeeded)
	}
}

func TestClearProcessed_RemovesScopedRows(t *testing.T) {
	l := openTestLedger(t)

	l.MarkProcessed("curated", 1, StatusSuccess, "")
	l.MarkProcessed("lrclib", 2, StatusSuccess, "")

	removed, err := l.ClearProcessed("curated")
	if err != nil {
		t.Fatalf("clearing: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 row removed, got %d", removed)
	}

	total, _ := l.GetProcessedCount("", "")
	if total != 1 {
		t.Errorf("expected 1 row remaining, got %d", total)
	}
}

func TestGetEntry_MissingReturnsNotFound(t *testing.T) {
	l := openTestLedger(t)

	_, found, err := l.GetEntry("curated", 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no entry for an unrecorded track")
	}
}
