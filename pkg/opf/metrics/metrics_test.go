package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
	"github.com/openpatterns/opf/pkg/opf/pattern"
)

func TestObserveParseSuccess(t *testing.T) {
	m := New()
	p := pattern.NewPiece("Front")
	p.CreateSize("36", []dxf.Entity{dxf.NewPolyline(1, dxf.V(0, 0), dxf.V(1, 0), dxf.V(1, 1))})
	f := &pattern.Format{Pieces: []*pattern.Piece{p}}
	diags := []diag.Diagnostic{diag.New(diag.Info, "a", nil), diag.New(diag.Warning, "b", nil), diag.New(diag.Info, "c", nil)}

	m.ObserveParse(StatusOK, f, diags, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.ParsesTotal.WithLabelValues(StatusOK)); got != 1 {
		t.Errorf("ok parses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("info")); got != 2 {
		t.Errorf("info diagnostics = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("warning")); got != 1 {
		t.Errorf("warning diagnostics = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VerticesTotal); got != 3 {
		t.Errorf("vertices = %v, want 3", got)
	}
}

func TestObserveParseFailure(t *testing.T) {
	m := New()
	m.ObserveParse(StatusFailed, nil, []diag.Diagnostic{diag.New(diag.Error, "x", nil)}, time.Millisecond)

	if got := testutil.ToFloat64(m.ParsesTotal.WithLabelValues(StatusFailed)); got != 1 {
		t.Errorf("failed parses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VerticesTotal); got != 0 {
		t.Errorf("vertices = %v, want 0", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveParse(StatusOK, nil, nil, 0)
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("nil WriteTextfile: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveParse(StatusOK, &pattern.Format{}, nil, time.Millisecond)

	path := filepath.Join(t.TempDir(), "opf.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `opf_parses_total{status="ok"} 1`) {
		t.Errorf("textfile missing parse counter:\n%s", data)
	}
}
