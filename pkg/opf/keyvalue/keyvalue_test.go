package keyvalue

import (
	"testing"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in         string
		key, value string
		ok         bool
	}{
		{"Piece Name: Front", "piece name", "Front", true},
		{"CREATION TIME: 10:31", "creation time", "10:31", true},
		{"  SIZE :  36  ", "size", "36", true},
		{"key:", "key", "", true},
		{"no colon here", "", "", false},
	}

	for _, tc := range cases {
		key, value, ok := Split(tc.in)
		if key != tc.key || value != tc.value || ok != tc.ok {
			t.Errorf("Split(%q) = (%q, %q, %v), want (%q, %q, %v)", tc.in, key, value, ok, tc.key, tc.value, tc.ok)
		}
	}
}

func TestFindCaseInsensitive(t *testing.T) {
	entities := []dxf.Entity{
		dxf.NewPolyline(1, dxf.V(0, 0), dxf.V(1, 1)),
		dxf.NewText(1, "PIECE NAME: Collar"),
		dxf.NewText(1, "Size: 40"),
	}
	col := diag.NewCollector()

	got, ok := Find(entities, KeyPieceName, col)
	if !ok || got != "Collar" {
		t.Errorf("Find(piece name) = (%q, %v), want (Collar, true)", got, ok)
	}
	if got := Get(entities, KeySize, col); got != "40" {
		t.Errorf("Get(size) = %q, want 40", got)
	}
	if col.Len() != 0 {
		t.Errorf("expected no diagnostics, got %v", col.Messages())
	}
}

func TestFindReturnsFirstMatch(t *testing.T) {
	entities := []dxf.Entity{
		dxf.NewText(1, "size: 36"),
		dxf.NewText(1, "size: 38"),
	}
	if got := Get(entities, KeySize, nil); got != "36" {
		t.Errorf("Get(size) = %q, want first match 36", got)
	}
}

func TestFindWarnsAndContinues(t *testing.T) {
	entities := []dxf.Entity{
		dxf.NewText(15, "Neckline Full Collar"),
		dxf.NewText(1, "Grain"),
		dxf.NewText(1, "style name: GMG1016S19"),
		dxf.NewText(1, "after the match"),
	}
	col := diag.NewCollector()

	got, ok := Find(entities, KeyStyleName, col)
	if !ok || got != "GMG1016S19" {
		t.Errorf("Find(style name) = (%q, %v), want (GMG1016S19, true)", got, ok)
	}
	// One warning per colon-less text scanned before the match
	if col.Count(diag.Warning) != 2 {
		t.Fatalf("expected 2 warnings, got %v", col.Messages())
	}
	want := "Unexpected syntax in key-value text string: 'Neckline Full Collar'"
	if col.Messages()[0] != want {
		t.Errorf("message = %q, want %q", col.Messages()[0], want)
	}
}

func TestFindMissingKey(t *testing.T) {
	col := diag.NewCollector()
	got, ok := Find([]dxf.Entity{dxf.NewText(1, "size: 36")}, KeyPieceName, col)
	if ok || got != "" {
		t.Errorf("Find(missing) = (%q, %v), want (\"\", false)", got, ok)
	}
	if got := Get(nil, KeyPieceName, col); got != "" {
		t.Errorf("Get on empty list = %q, want empty", got)
	}
}
