package terminal

import (
	"strings"
	"testing"
)

func TestBufferTailRetention(t *testing.T) {
	store := NewStore()
	store.Init("t1", 10)

	store.Append("t1", "0123456789")
	store.Append("t1", "ABCDE")

	snap := store.Read("t1")
	if !strings.HasSuffix(snap.Output, "ABCDE") {
		t.Fatalf("expected output to end in ABCDE, got %q", snap.Output)
	}
	if !snap.Truncated {
		t.Error("expected truncated flag after eviction")
	}
	if snap.TotalBytes > 10 {
		t.Errorf("expected at most 10 retained bytes, got %d", snap.TotalBytes)
	}
}

func TestBufferSuffixInvariant(t *testing.T) {
	store := NewStore()
	store.Init("t1", 32)

	chunks := []string{"alpha ", "beta ", "gamma ", "delta ", "epsilon ", "zeta "}
	var full strings.Builder
	for _, c := range chunks {
		store.Append("t1", c)
		full.WriteString(c)
	}

	snap := store.Read("t1")
	if !strings.HasSuffix(full.String(), snap.Output) {
		t.Fatalf("retained output %q is not a suffix of the full input", snap.Output)
	}
	if !snap.Truncated {
		t.Error("expected truncated flag")
	}
	if snap.TotalBytes > 32 {
		t.Errorf("expected at most 32 bytes, got %d", snap.TotalBytes)
	}
}

func TestBufferOversizeChunkRetainedWhole(t *testing.T) {
	store := NewStore()
	store.Init("t1", 8)

	store.Append("t1", "tiny")
	big := strings.Repeat("x", 100)
	store.Append("t1", big)

	snap := store.Read("t1")
	if snap.Output != big {
		t.Fatalf("expected the oversize chunk retained whole, got %d bytes", len(snap.Output))
	}
	if !snap.Truncated {
		t.Error("expected truncated flag")
	}
}

func TestBufferNoTruncationUnderLimit(t *testing.T) {
	store := NewStore()
	store.Init("t1", 100)

	store.Append("t1", "hello ")
	store.Append("t1", "world")

	snap := store.Read("t1")
	if snap.Output != "hello world" {
		t.Fatalf("got %q", snap.Output)
	}
	if snap.Truncated {
		t.Error("did not expect truncation")
	}
	if snap.TotalBytes != 11 {
		t.Errorf("expected 11 bytes, got %d", snap.TotalBytes)
	}
}

func TestBufferTruncatedFlagIsSticky(t *testing.T) {
	store := NewStore()
	store.Init("t1", 4)

	store.Append("t1", "abcd")
	store.Append("t1", "ef")
	if !store.Read("t1").Truncated {
		t.Fatal("expected truncation")
	}

	// Later small appends keep the flag set.
	store.Append("t1", "g")
	if !store.Read("t1").Truncated {
		t.Error("truncated flag must never revert")
	}
}

func TestBufferAppendReportsFirstTruncationOnly(t *testing.T) {
	store := NewStore()
	store.Init("t1", 4)

	if store.Append("t1", "ab") {
		t.Error("append under the limit must not report truncation")
	}
	if !store.Append("t1", "cde") {
		t.Error("the append that first exceeds the limit must report it")
	}
	if store.Append("t1", "f") {
		t.Error("later truncating appends must not re-report")
	}
	if store.Append("ghost", strings.Repeat("x", 100)) {
		t.Error("appends to unknown terminals must not report truncation")
	}
}

func TestBufferReadsAreRepeatable(t *testing.T) {
	store := NewStore()
	store.Init("t1", 64)
	store.Append("t1", "stable")

	first := store.Read("t1")
	second := store.Read("t1")
	if first != second {
		t.Errorf("reads differ: %+v vs %+v", first, second)
	}
}

func TestBufferByteAccurateSizing(t *testing.T) {
	store := NewStore()
	// "héllo" is 6 bytes but 5 runes; the budget is bytes.
	store.Init("t1", 6)

	store.Append("t1", "héllo")
	snap := store.Read("t1")
	if snap.Truncated {
		t.Error("6-byte chunk fits a 6-byte budget")
	}

	store.Append("t1", "!")
	snap = store.Read("t1")
	if !snap.Truncated {
		t.Error("7 bytes must exceed a 6-byte budget")
	}
}

func TestBufferUnknownTerminal(t *testing.T) {
	store := NewStore()

	store.Append("ghost", "dropped")
	if snap := store.Read("ghost"); snap != (Snapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
	if _, ok := store.LastWrite("ghost"); ok {
		t.Error("expected no last-write for unknown terminal")
	}
	store.Dispose("ghost") // must not panic
}

func TestBufferDispose(t *testing.T) {
	store := NewStore()
	store.Init("t1", 64)
	store.Append("t1", "data")
	store.Dispose("t1")

	if snap := store.Read("t1"); snap.Output != "" {
		t.Errorf("expected empty read after dispose, got %q", snap.Output)
	}
}

func TestBufferLastWrite(t *testing.T) {
	store := NewStore()
	store.Init("t1", 64)

	last, ok := store.LastWrite("t1")
	if !ok || !last.IsZero() {
		t.Fatalf("expected zero last-write before output, got %v ok=%v", last, ok)
	}

	store.Append("t1", "x")
	last, ok = store.LastWrite("t1")
	if !ok || last.IsZero() {
		t.Error("expected last-write set after append")
	}
}
