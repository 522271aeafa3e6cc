package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	if got := NewSplitter(100, 10).Split(""); got != nil {
		t.Fatalf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	got := NewSplitter(100, 10).Split("  charge more for your work  ")
	if len(got) != 1 || got[0] != "charge more for your work" {
		t.Fatalf("Split() = %v", got)
	}
}

func TestSplitSnapsCutToWhitespace(t *testing.T) {
	got := NewSplitter(16, 0).Split("alphabet soup kitchen")
	if len(got) != 2 {
		t.Fatalf("Split() = %v, want 2 chunks", got)
	}
	if got[0] != "alphabet soup" {
		t.Fatalf("first chunk = %q, want cut at the word boundary", got[0])
	}
	if got[1] != "kitchen" {
		t.Fatalf("second chunk = %q", got[1])
	}
}

func TestSplitOverlapRepeatsWindowTail(t *testing.T) {
	splitter := NewSplitter(16, 4)
	got := splitter.Split("alphabet soup kitchen")
	if len(got) != 2 {
		t.Fatalf("Split() = %v, want 2 chunks", got)
	}
	if !strings.HasSuffix(got[1], "kitchen") {
		t.Fatalf("second chunk = %q, want it to end with the remaining word", got[1])
	}
	if len(got[1]) <= len("kitchen") {
		t.Fatalf("second chunk = %q, want overlap prefix from the first window", got[1])
	}
}

func TestSplitEveryChunkWithinWindow(t *testing.T) {
	text := strings.Repeat("the exact script for your first sales call ", 40)
	splitter := NewSplitter(120, 30)
	for i, chunk := range splitter.Split(text) {
		if chunk == "" {
			t.Fatalf("chunk %d is empty", i)
		}
		if n := len([]rune(chunk)); n > 120 {
			t.Fatalf("chunk %d has %d runes, want <= 120", i, n)
		}
	}
}
