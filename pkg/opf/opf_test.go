package opf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openpatterns/opf/pkg/opf/dxf"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
	"github.com/openpatterns/opf/pkg/opf/metrics"
	"github.com/openpatterns/opf/pkg/opf/store"
	"github.com/openpatterns/opf/pkg/opf/store/memstore"
)

const drawing = `{
  "blocks": {
    "FRONT-M": {"entities": [
      {"type": "TEXT", "layer": "1", "text": "Piece Name: Front"},
      {"type": "TEXT", "layer": "1", "text": "Size: M"},
      {"type": "POLYLINE", "layer": "1", "vertices": [{"x": 0, "y": 0}, {"x": 4, "y": 0}, {"x": 4, "y": 4}]}
    ]},
    "FRONT-S": {"entities": [
      {"type": "TEXT", "layer": 1, "text": "Piece Name: Front"},
      {"type": "TEXT", "layer": 1, "text": "Size: S"},
      {"type": "POLYLINE", "layer": 1, "vertices": [{"x": 0, "y": 0}, {"x": 3, "y": 0}, {"x": 3, "y": 3}]}
    ]}
  },
  "entities": [
    {"type": "TEXT", "layer": "1", "text": "UNITS: METRIC"},
    {"type": "TEXT", "layer": "1", "text": "STYLE NAME: Tee"}
  ]
}`

const brokenDrawing = `{
  "blocks": {"A": {"entities": [{"type": "TEXT", "layer": "1", "text": "Size: M"}]}},
  "entities": []
}`

func writeDrawing(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drawing.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	m := metrics.New()
	p := New(Options{Metrics: m})

	out, err := p.ParseFile(context.Background(), writeDrawing(t, drawing))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	f := out.Result.Data
	if f.Style.Name != "Tee" {
		t.Errorf("style = %q, want Tee", f.Style.Name)
	}
	if len(f.Pieces) != 1 || f.Pieces[0].Name != "Front" {
		t.Fatalf("unexpected pieces: %+v", f.Pieces)
	}
	if want := []string{"M", "S"}; len(f.Sizes) != 2 || f.Sizes[0] != want[0] || f.Sizes[1] != want[1] {
		t.Errorf("sizes = %v, want %v", f.Sizes, want)
	}
	if out.ArchiveID != "" {
		t.Errorf("expected no archive id without a store, got %q", out.ArchiveID)
	}
	if got := testutil.ToFloat64(m.ParsesTotal.WithLabelValues(metrics.StatusOK)); got != 1 {
		t.Errorf("ok parses = %v, want 1", got)
	}
}

func TestParseFileArchives(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	p := New(Options{Store: st, Archive: true})

	out, err := p.ParseFile(ctx, writeDrawing(t, drawing))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if !store.ValidID(out.ArchiveID) {
		t.Fatalf("expected archive id, got %q", out.ArchiveID)
	}

	rec, err := st.GetPattern(ctx, out.ArchiveID)
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if rec.Source != out.Source || rec.Format.Style.Name != "Tee" {
		t.Errorf("unexpected archived record: %+v", rec)
	}
}

func TestParseFileFatal(t *testing.T) {
	m := metrics.New()
	st := memstore.New()
	p := New(Options{Store: st, Archive: true, Metrics: m})

	out, err := p.ParseFile(context.Background(), writeDrawing(t, brokenDrawing))
	if !errors.Is(err, internalerr.ErrMissingPieceName) {
		t.Fatalf("expected ErrMissingPieceName, got %v", err)
	}
	if !Fatal(err) {
		t.Error("Fatal should recognize the parse error")
	}
	// The missing piece name plus the missing units
	if out == nil || len(out.Result.Diagnostics) != 2 {
		t.Fatalf("expected outcome with 2 diagnostics, got %+v", out)
	}
	if out.Result.Data != nil {
		t.Error("failed parse should carry no pattern")
	}
	if list, _ := st.ListPatterns(context.Background(), store.ListOptions{}); len(list) != 0 {
		t.Errorf("failed parse must not be archived, got %d", len(list))
	}
	if got := testutil.ToFloat64(m.ParsesTotal.WithLabelValues(metrics.StatusFailed)); got != 1 {
		t.Errorf("failed parses = %v, want 1", got)
	}
}

func TestParseFileInvalidJSON(t *testing.T) {
	m := metrics.New()
	p := New(Options{Metrics: m})

	_, err := p.ParseFile(context.Background(), writeDrawing(t, "{not json"))
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if Fatal(err) {
		t.Error("decode errors are not parse failures")
	}
	if got := testutil.ToFloat64(m.ParsesTotal.WithLabelValues(metrics.StatusInvalid)); got != 1 {
		t.Errorf("invalid parses = %v, want 1", got)
	}
}

func TestParseDocumentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).ParseDocument(ctx, "x", &dxf.Document{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseDocumentNil(t *testing.T) {
	_, err := New(Options{}).ParseDocument(context.Background(), "x", nil)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	p := New(Options{})
	out, err := p.ParseDocument(context.Background(), "empty", &dxf.Document{})
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if _, err := p.Save(context.Background(), "empty", out.Result); !errors.Is(err, internalerr.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
