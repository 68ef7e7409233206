package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/pattern"
)

// Store is the pattern archive
type Store interface {
	Close() error

	// SavePattern stores rec and returns its id. An empty rec.ID gets a
	// fresh ULID; an existing id is replaced.
	SavePattern(ctx context.Context, rec Record) (string, error)
	GetPattern(ctx context.Context, id string) (Record, error)
	ListPatterns(ctx context.Context, opts ListOptions) ([]Summary, error)
	DeletePattern(ctx context.Context, id string) error
}

// Record is one archived parse result
type Record struct {
	ID          string
	Source      string
	CreatedAt   time.Time
	Format      *pattern.Format
	Diagnostics []diag.Diagnostic
}

// Summary describes an archived pattern without its geometry
type Summary struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	StyleName   string    `json:"styleName"`
	BaseSize    string    `json:"baseSize"`
	Pieces      int       `json:"pieces"`
	Sizes       int       `json:"sizes"`
	Diagnostics int       `json:"diagnostics"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListOptions filters ListPatterns. Zero Limit means 50.
type ListOptions struct {
	Style string
	Limit int
}

// DefaultListLimit caps ListPatterns when no limit is given
const DefaultListLimit = 50

// Summarize derives the summary of rec
func Summarize(rec Record) Summary {
	s := Summary{
		ID:          rec.ID,
		Source:      rec.Source,
		Diagnostics: len(rec.Diagnostics),
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Format != nil {
		s.StyleName = rec.Format.Style.Name
		s.BaseSize = rec.Format.Style.BaseSize
		s.Pieces = len(rec.Format.Pieces)
		s.Sizes = len(rec.Format.Sizes)
	}
	return s
}

// IDs hands out monotonic ULIDs. It is safe for concurrent use.
type IDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDs creates an id generator
func NewIDs() *IDs {
	return &IDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns the next id
func (g *IDs) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Now(), g.entropy).String()
}

// ValidID reports whether id is a well-formed ULID
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
