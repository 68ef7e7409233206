package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const goodDrawing = `{
  "blocks": {
    "BACK-40": {"entities": [
      {"type": "TEXT", "layer": "1", "text": "Piece Name: Back"},
      {"type": "TEXT", "layer": "1", "text": "Size: 40"},
      {"type": "POLYLINE", "layer": "1", "vertices": [{"x": 0, "y": 0}, {"x": 5, "y": 0}, {"x": 5, "y": 5}]}
    ]}
  },
  "entities": [
    {"type": "TEXT", "layer": "1", "text": "UNITS: ENGLISH"},
    {"type": "TEXT", "layer": "1", "text": "STYLE NAME: Coat"}
  ]
}`

const brokenDrawing = `{
  "blocks": {"X": {"entities": [{"type": "TEXT", "layer": "1", "text": "Size: 40"}]}},
  "entities": [{"type": "TEXT", "layer": "1", "text": "UNITS: METRIC"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes one CLI invocation and returns stdout and stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	c := New("test")
	var stdout, stderr bytes.Buffer
	c.rootCmd.SetOut(&stdout)
	c.rootCmd.SetErr(&stderr)
	c.rootCmd.SetArgs(append([]string{"-s"}, args...))
	err := c.Run()
	return stdout.String(), stderr.String(), err
}

func TestParsePrintsPattern(t *testing.T) {
	path := writeFile(t, t.TempDir(), "coat.json", goodDrawing)

	stdout, stderr, err := run(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, stderr)
	}

	var out struct {
		Asset struct {
			Unit int `json:"unit"`
		} `json:"asset"`
		Style struct {
			Name string `json:"name"`
		} `json:"style"`
		Sizes  []string `json:"sizes"`
		Pieces []struct {
			Name string `json:"name"`
		} `json:"pieces"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if out.Style.Name != "Coat" || out.Asset.Unit != 2 {
		t.Errorf("unexpected header: %+v", out)
	}
	if len(out.Pieces) != 1 || out.Pieces[0].Name != "Back" {
		t.Errorf("unexpected pieces: %+v", out.Pieces)
	}
	if strings.Contains(stderr, "Diagnostics") {
		t.Errorf("clean parse should print no diagnostics:\n%s", stderr)
	}
}

func TestParseCompactToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "coat.json", goodDrawing)
	target := filepath.Join(dir, "coat.opf.json")

	stdout, stderr, err := run(t, "parse", path, "-o", target, "--pretty=false")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected empty stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "Written to "+target) {
		t.Errorf("missing confirmation:\n%s", stderr)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(strings.TrimSpace(string(data)), "\n") != 0 {
		t.Errorf("expected single-line JSON, got:\n%s", data)
	}
}

func TestParseFatalPrintsDiagnostics(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.json", brokenDrawing)

	stdout, stderr, err := run(t, "parse", path)
	if err == nil {
		t.Fatal("expected error")
	}
	if stdout != "" {
		t.Errorf("failed parse should print no pattern, got %q", stdout)
	}
	for _, want := range []string{
		"Diagnostics (1):",
		"  - Missing required field piece name",
		"Error: " + path + ": 1 block(s) rejected",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if n := strings.Count(stderr, "Missing required field piece name"); n != 1 {
		t.Errorf("message printed %d times, want once:\n%s", n, stderr)
	}
}

func TestParseOutputWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	path := writeFile(t, t.TempDir(), "coat.json", goodDrawing)

	_, stderr, err := run(t, "parse", path, "-o", "/dev/full")
	if err == nil {
		t.Fatal("expected error when the output cannot be written")
	}
	if strings.Contains(stderr, "Written to") {
		t.Errorf("failed write must not be confirmed:\n%s", stderr)
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")
	if err := writeOutput(target, map[string]int{"a": 1}, false); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\"a\":1}\n" {
		t.Errorf("unexpected content %q", data)
	}

	if err := writeOutput(filepath.Join(dir, "missing", "out.json"), 1, false); err == nil {
		t.Error("expected error for an uncreatable path")
	}
}

func TestParseArchiveRequiresDatabase(t *testing.T) {
	path := writeFile(t, t.TempDir(), "coat.json", goodDrawing)

	_, _, err := run(t, "parse", path, "--archive")
	if err == nil || !strings.Contains(err.Error(), "no archive configured") {
		t.Errorf("expected archive error, got %v", err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "coat.json", goodDrawing)
	db := filepath.Join(dir, "archive.db")

	_, stderr, err := run(t, "--db", db, "parse", path, "--archive")
	if err != nil {
		t.Fatalf("parse --archive: %v", err)
	}
	idx := strings.Index(stderr, "Archived as ")
	if idx < 0 {
		t.Fatalf("no archive id in stderr:\n%s", stderr)
	}
	id := strings.Fields(stderr[idx+len("Archived as "):])[0]

	stdout, _, err := run(t, "--db", db, "archive", "list")
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	if !strings.Contains(stdout, id) || !strings.Contains(stdout, "Coat") {
		t.Errorf("list missing pattern:\n%s", stdout)
	}

	stdout, _, err = run(t, "--db", db, "archive", "show", id)
	if err != nil {
		t.Fatalf("archive show: %v", err)
	}
	if !strings.Contains(stdout, `"Back"`) {
		t.Errorf("show missing piece:\n%s", stdout)
	}

	if _, _, err := run(t, "--db", db, "archive", "delete", id); err != nil {
		t.Fatalf("archive delete: %v", err)
	}
	stdout, _, err = run(t, "--db", db, "archive", "list")
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	if !strings.Contains(stdout, "Archive is empty.") {
		t.Errorf("expected empty archive:\n%s", stdout)
	}
}

func TestArchiveShowRejectsBadID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")
	if _, _, err := run(t, "--db", db, "archive", "show", "not-an-id"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestBatchReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", goodDrawing)
	writeFile(t, dir, "nested/b.json", goodDrawing)
	writeFile(t, dir, "c.json", brokenDrawing)
	writeFile(t, dir, "notes.txt", "ignored")
	metricsPath := filepath.Join(dir, "opf.prom")

	stdout, stderr, err := run(t, "batch", dir, "--workers", "2", "--metrics-textfile", metricsPath)
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, stderr)
	}
	for _, want := range []string{
		"Total files:    3",
		"Successful:     2",
		"Failed:         1",
		"a.json",
		"b.json",
		"FAILED FILES",
		"c.json",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q:\n%s", want, stdout)
		}
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(prom), `opf_parses_total{status="ok"} 2`) {
		t.Errorf("unexpected metrics:\n%s", prom)
	}
}

func TestBatchNoFiles(t *testing.T) {
	stdout, _, err := run(t, "batch", t.TempDir())
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(stdout, `No files matching "*.json" found.`) {
		t.Errorf("unexpected output: %q", stdout)
	}
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", "{}")
	writeFile(t, dir, "a.json", "{}")
	writeFile(t, dir, "sub/c.json", "{}")
	writeFile(t, dir, "d.dxf", "")

	files, err := findFiles(dir, "*.json")
	if err != nil {
		t.Fatalf("findFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "sub", "c.json"),
	}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}

	if _, err := findFiles(dir, "["); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
