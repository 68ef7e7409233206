// Package assemble turns a tokenized drawing into an Open Pattern Format
// record. Blocks are routed to pattern pieces by their "piece name" text,
// sizes are collected document-wide and asset/style metadata is read from
// the top-level entities.
package assemble

import (
	"sort"

	"go.uber.org/zap"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
	"github.com/openpatterns/opf/pkg/opf/keyvalue"
	"github.com/openpatterns/opf/pkg/opf/pattern"
)

// DefaultBaseSize is used when the drawing declares no sample size
const DefaultBaseSize = "M"

// Declared values of the "units" text
const (
	UnitsMetric  = "METRIC"
	UnitsEnglish = "ENGLISH"
)

// Result bundles a translated pattern with the diagnostics of its parse
type Result struct {
	Data        *pattern.Format   `json:"data"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// Error reports a parse that rejected at least one block. Its message is
// every collected diagnostic message, one per line.
type Error struct {
	Diagnostics []diag.Diagnostic
}

func (e *Error) Error() string {
	return diag.Join(e.Diagnostics)
}

func (e *Error) Unwrap() error {
	return internalerr.ErrMissingPieceName
}

// Assembler translates documents. The zero value is ready to use.
type Assembler struct {
	logger *zap.Logger
}

// New creates an assembler logging to logger; nil disables logging
func New(logger *zap.Logger) *Assembler {
	return &Assembler{logger: logger}
}

func (a *Assembler) log() *zap.Logger {
	if a == nil || a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// Parse translates doc with a fresh diagnostics list. The diagnostics are
// returned even when the parse fails.
func Parse(doc *dxf.Document) (Result, error) {
	return New(nil).Parse(doc)
}

// Parse translates doc with a fresh diagnostics list
func (a *Assembler) Parse(doc *dxf.Document) (Result, error) {
	col := diag.NewCollector()
	f, err := a.Assemble(doc, col)
	return Result{Data: f, Diagnostics: col.All()}, err
}

// Assemble translates doc in a single pass, appending every diagnostic to
// col. Blocks without a piece name are skipped and make the whole call fail
// with an *Error once all blocks have been visited.
func (a *Assembler) Assemble(doc *dxf.Document, col *diag.Collector) (*pattern.Format, error) {
	if col == nil {
		col = diag.NewCollector()
	}
	logger := a.log()
	// Errors already in col belong to the caller
	errorsBefore := col.Count(diag.Error)

	var (
		pieces  []*pattern.Piece
		byName  = make(map[string]*pattern.Piece)
		sizeSet = make(map[string]struct{})
	)

	for _, block := range doc.Blocks {
		size := keyvalue.Get(block.Entities, keyvalue.KeySize, col)
		name, ok := keyvalue.Find(block.Entities, keyvalue.KeyPieceName, col)
		if !ok || name == "" {
			col.Add(diag.Error, "Missing required field piece name", block)
			logger.Debug("block rejected", zap.String("block", block.Name))
			continue
		}

		piece, ok := byName[name]
		if !ok {
			piece = pattern.NewPiece(name)
			byName[name] = piece
			pieces = append(pieces, piece)
			logger.Debug("piece created", zap.String("piece", name))
		}

		diags := piece.CreateSize(size, block.Entities)
		col.Append(diags...)
		if size != "" {
			sizeSet[size] = struct{}{}
		}
		logger.Debug("block assembled",
			zap.String("block", block.Name),
			zap.String("piece", name),
			zap.String("size", size),
			zap.Int("diagnostics", len(diags)))
	}

	asset := readAsset(doc.Entities, col)
	style := readStyle(doc.Entities, col)

	if col.Count(diag.Error) > errorsBefore {
		logger.Debug("parse failed", zap.Int("diagnostics", col.Len()))
		return nil, &Error{Diagnostics: col.All()}
	}

	sizes := make([]string, 0, len(sizeSet))
	for s := range sizeSet {
		sizes = append(sizes, s)
	}
	// String order on purpose: sizes may be letters, so "10" sorts before "2".
	sort.Strings(sizes)

	logger.Debug("pattern assembled",
		zap.Int("pieces", len(pieces)),
		zap.Int("sizes", len(sizes)),
		zap.Int("diagnostics", col.Len()))

	return &pattern.Format{
		Asset:  asset,
		Style:  style,
		Sizes:  sizes,
		Pieces: pieces,
	}, nil
}

func readAsset(entities []dxf.Entity, col *diag.Collector) pattern.Asset {
	return pattern.Asset{
		AuthoringTool:        keyvalue.Get(entities, keyvalue.KeyProduct, col),
		AuthoringToolVersion: keyvalue.Get(entities, keyvalue.KeyVersion, col),
		AuthoringVendor:      keyvalue.Get(entities, keyvalue.KeyAuthor, col),
		CreationDate:         keyvalue.Get(entities, keyvalue.KeyCreationDate, col),
		CreationTime:         keyvalue.Get(entities, keyvalue.KeyCreationTime, col),
		Unit:                 readUnit(entities, col),
	}
}

func readUnit(entities []dxf.Entity, col *diag.Collector) pattern.Unit {
	units := keyvalue.Get(entities, keyvalue.KeyUnits, col)
	switch units {
	case UnitsMetric:
		return pattern.UnitMillimeter
	case UnitsEnglish:
		return pattern.UnitInch
	default:
		col.Addf(diag.Warning, units, "Unknown unit '%s', defaulting to inch", units)
		return pattern.UnitInch
	}
}

func readStyle(entities []dxf.Entity, col *diag.Collector) pattern.Style {
	base, ok := keyvalue.Find(entities, keyvalue.KeySampleSize, col)
	if !ok || base == "" {
		base = DefaultBaseSize
	}
	return pattern.Style{
		Name:     keyvalue.Get(entities, keyvalue.KeyStyleName, col),
		BaseSize: base,
	}
}
