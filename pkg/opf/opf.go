// Package opf translates tokenized DXF pattern drawings into Open Pattern
// Format records and optionally archives them.
package opf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openpatterns/opf/pkg/opf/assemble"
	"github.com/openpatterns/opf/pkg/opf/dxf"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
	"github.com/openpatterns/opf/pkg/opf/metrics"
	"github.com/openpatterns/opf/pkg/opf/store"
)

// Parser is the main translation facade
type Parser struct {
	asm     *assemble.Assembler
	logger  *zap.Logger
	store   store.Store
	metrics *metrics.Metrics
	archive bool
}

// Options configures a Parser. Every field is optional.
type Options struct {
	Logger  *zap.Logger
	Store   store.Store
	Metrics *metrics.Metrics

	// Archive saves every successful parse to Store
	Archive bool
}

// New creates a Parser with the given dependencies
func New(opts Options) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		asm:     assemble.New(logger),
		logger:  logger,
		store:   opts.Store,
		metrics: opts.Metrics,
		archive: opts.Archive && opts.Store != nil,
	}
}

// Outcome is the result of translating one drawing
type Outcome struct {
	Source    string
	Result    assemble.Result
	ArchiveID string
	Duration  time.Duration
}

// ParseFile reads the tokenizer output stored at path and translates it.
// A fatal parse still returns the outcome with its diagnostics.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := dxf.ReadFile(path)
	if err != nil {
		p.metrics.ObserveParse(metrics.StatusInvalid, nil, nil, time.Since(start))
		p.logger.Warn("unreadable drawing", zap.String("source", path), zap.Error(err))
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.parse(ctx, path, doc, start)
}

// ParseDocument translates an already decoded drawing. source names it in
// logs and in the archive.
func (p *Parser) ParseDocument(ctx context.Context, source string, doc *dxf.Document) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", internalerr.ErrInvalidInput)
	}
	return p.parse(ctx, source, doc, time.Now())
}

func (p *Parser) parse(ctx context.Context, source string, doc *dxf.Document, start time.Time) (*Outcome, error) {
	res, err := p.asm.Parse(doc)
	out := &Outcome{Source: source, Result: res, Duration: time.Since(start)}

	if err != nil {
		p.metrics.ObserveParse(metrics.StatusFailed, nil, res.Diagnostics, out.Duration)
		p.logger.Info("parse failed",
			zap.String("source", source),
			zap.Int("diagnostics", len(res.Diagnostics)),
		)
		return out, err
	}
	p.metrics.ObserveParse(metrics.StatusOK, res.Data, res.Diagnostics, out.Duration)
	p.logger.Debug("parsed",
		zap.String("source", source),
		zap.Int("pieces", len(res.Data.Pieces)),
		zap.Int("sizes", len(res.Data.Sizes)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Duration("duration", out.Duration),
	)

	if p.archive {
		id, err := p.Save(ctx, source, res)
		if err != nil {
			return out, err
		}
		out.ArchiveID = id
	}
	return out, nil
}

// Save archives a successful result and returns its id
func (p *Parser) Save(ctx context.Context, source string, res assemble.Result) (string, error) {
	if p.store == nil {
		return "", fmt.Errorf("%w: no archive configured", internalerr.ErrStoreUnavailable)
	}
	if res.Data == nil {
		return "", fmt.Errorf("%w: nothing to archive for %s", internalerr.ErrInvalidInput, source)
	}
	id, err := p.store.SavePattern(ctx, store.Record{
		Source:      source,
		Format:      res.Data,
		Diagnostics: res.Diagnostics,
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", source, err)
	}
	p.logger.Debug("archived", zap.String("source", source), zap.String("id", id))
	return id, nil
}

// Fatal reports whether err is a parse that rejected blocks, as opposed
// to an I/O or decoding failure.
func Fatal(err error) bool {
	var perr *assemble.Error
	return errors.As(err, &perr)
}
