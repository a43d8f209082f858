package core

import "testing"

func TestParseTarget(t *testing.T) {
	if got := ParseTarget("viewer"); got.Kind != TargetViewer {
		t.Fatalf("ParseTarget(viewer)=%+v, want viewer kind", got)
	}
	if got := ParseTarget(""); got.Kind != TargetViewer {
		t.Fatalf("ParseTarget(empty)=%+v, want viewer kind", got)
	}
	got := ParseTarget("abc-123")
	if got.Kind != TargetConnection || got.ID != "abc-123" {
		t.Fatalf("ParseTarget(abc-123)=%+v, want connection target", got)
	}
}
