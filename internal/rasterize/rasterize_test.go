package rasterize

import (
	"strings"
	"testing"
)

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.7\n...")) {
		t.Error("expected PDF header to be detected")
	}
	if IsPDF([]byte{0x89, 'P', 'N', 'G'}) {
		t.Error("PNG misdetected as PDF")
	}
	if IsPDF(nil) {
		t.Error("empty input misdetected as PDF")
	}
}

func TestPageCountRejectsGarbage(t *testing.T) {
	if _, err := PageCount([]byte("not a pdf at all")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestRenderPageRejectsGarbage(t *testing.T) {
	_, err := RenderPage([]byte("%PDF-truncated"), 1, 0)
	if err == nil {
		t.Fatal("expected error for truncated PDF")
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Errorf("unexpected error: %v", err)
	}
}
