package run

import (
	"strings"
	"testing"
)

func TestMaybeTruncateUnderLimit(t *testing.T) {
	in := "short output"
	if got := MaybeTruncate(in, 16000); got != in {
		t.Errorf("under-limit input changed: %q", got)
	}
}

func TestMaybeTruncateAtLimit(t *testing.T) {
	in := strings.Repeat("a", 100)
	if got := MaybeTruncate(in, 100); got != in {
		t.Errorf("at-limit input changed: len=%d", len(got))
	}
}

func TestMaybeTruncateOverLimit(t *testing.T) {
	in := strings.Repeat("x", 20000)
	got := MaybeTruncate(in, 16000)

	if want := 16000 + len(TruncatedNotice); len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}
	if got[:16000] != in[:16000] {
		t.Error("prefix does not match first 16000 bytes of input")
	}
	if !strings.HasSuffix(got, TruncatedNotice) {
		t.Error("missing truncation notice suffix")
	}
}

func TestMaybeTruncateIdempotent(t *testing.T) {
	in := strings.Repeat("b", 500)
	once := MaybeTruncate(in, 100)
	twice := MaybeTruncate(once, 100+len(TruncatedNotice))
	if twice != once {
		t.Error("truncating an already-clipped string at its own length changed it")
	}
}

func TestMaybeTruncateDisabled(t *testing.T) {
	in := strings.Repeat("c", 5000)
	if got := MaybeTruncate(in, 0); got != in {
		t.Error("zero limit should disable truncation")
	}
	if got := MaybeTruncate(in, -1); got != in {
		t.Error("negative limit should disable truncation")
	}
}
