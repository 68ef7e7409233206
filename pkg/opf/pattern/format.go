// Package pattern holds the Open Pattern Format model and the builders that
// turn the entities of one block into shapes of a pattern piece.
package pattern

import (
	"fmt"

	"github.com/openpatterns/opf/pkg/opf/dxf"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
	"github.com/openpatterns/opf/pkg/opf/layer"
)

// Unit is the declared drawing unit. The numeric values are part of the
// JSON output.
type Unit int

const (
	UnitMillimeter Unit = 1
	UnitInch       Unit = 2
)

func (u Unit) String() string {
	switch u {
	case UnitMillimeter:
		return "mm"
	case UnitInch:
		return "inch"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// Asset describes the authoring system of the drawing
type Asset struct {
	AuthoringTool        string `json:"authoringTool"`
	AuthoringToolVersion string `json:"authoringToolVersion"`
	AuthoringVendor      string `json:"authoringVendor"`
	CreationDate         string `json:"creationDate"`
	CreationTime         string `json:"creationTime"`
	Unit                 Unit   `json:"unit"`
}

// Style identifies the garment style
type Style struct {
	Name     string `json:"name"`
	BaseSize string `json:"baseSize"`
}

// Format is an Open Pattern Format record
type Format struct {
	Asset  Asset    `json:"asset"`
	Style  Style    `json:"style"`
	Sizes  []string `json:"sizes"`
	Pieces []*Piece `json:"pieces"`
}

// Annotation is the payload of the annotation TEXT of one piece size.
type Annotation struct {
	Text       string      `json:"text"`
	StartPoint *dxf.Vertex `json:"startPoint,omitempty"`
	EndPoint   *dxf.Vertex `json:"endPoint,omitempty"`
	TextHeight float64     `json:"textHeight,omitempty"`
	XScale     float64     `json:"xScale,omitempty"`
	Rotation   float64     `json:"rotation,omitempty"`
	HAlign     int         `json:"halign,omitempty"`
	VAlign     int         `json:"valign,omitempty"`
}

func annotationFrom(t *dxf.Text) *Annotation {
	return &Annotation{
		Text:       t.Text,
		StartPoint: t.StartPoint,
		EndPoint:   t.EndPoint,
		TextHeight: t.TextHeight,
		XScale:     t.XScale,
		Rotation:   t.Rotation,
		HAlign:     t.HAlign,
		VAlign:     t.VAlign,
	}
}

// Piece returns the piece with the given name
func (f *Format) Piece(name string) (*Piece, bool) {
	for _, p := range f.Pieces {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Validate checks the structural invariants of every shape: run-lengths
// add up to the index count and every index points into the piece's pool.
func (f *Format) Validate() error {
	for _, p := range f.Pieces {
		for _, c := range ShapeCategories {
			for size, s := range p.ShapesFor(c) {
				if s == nil {
					continue
				}
				if err := s.validate(p.Vertices.Len()); err != nil {
					return fmt.Errorf("%w: piece %q %s size %s: %v", internalerr.ErrInvalidInput, p.Name, c, size, err)
				}
			}
		}
	}
	return nil
}

// ShapeCategories lists the layer categories stored as shapes, in build order.
var ShapeCategories = []layer.Category{
	layer.Boundary,
	layer.InternalLines,
	layer.TurnPoints,
	layer.CurvePoints,
	layer.Notches,
	layer.GrainLine,
	layer.GradeReference,
	layer.MirrorLine,
	layer.DrillHoles,
}
