// Package layer maps ASTM/AAMA layer codes to the semantic role of the
// geometry drawn on them.
package layer

import (
	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
)

// Category is the semantic role of a layer
type Category int

const (
	Unknown Category = iota
	Boundary
	TurnPoints
	CurvePoints
	Notches
	GradeReference
	MirrorLine
	GrainLine
	InternalLines
	DrillHoles
	AnnotationText
	// Legacy ASTM layers are recognized but not translated.
	ASTMBoundary
	ASTMInternalLines
)

var byCode = map[dxf.Layer]Category{
	1:  Boundary,
	2:  TurnPoints,
	3:  CurvePoints,
	4:  Notches,
	5:  GradeReference,
	6:  MirrorLine,
	7:  GrainLine,
	8:  InternalLines,
	13: DrillHoles,
	15: AnnotationText,
	84: ASTMBoundary,
	85: ASTMInternalLines,
}

var codes = func() map[Category]dxf.Layer {
	m := make(map[Category]dxf.Layer, len(byCode))
	for code, c := range byCode {
		m[c] = code
	}
	return m
}()

// The legacy spellings end up in diagnostics and are kept as-is.
var names = map[Category]string{
	Unknown:           "",
	Boundary:          "Boundary",
	TurnPoints:        "Turn Points",
	CurvePoints:       "Curve Points",
	Notches:           "Notches",
	GradeReference:    "Grade Reference",
	MirrorLine:        "Mirror Line",
	GrainLine:         "Grain Line",
	InternalLines:     "Internal Lines",
	DrillHoles:        "Drill Holes",
	AnnotationText:    "Annotation Text",
	ASTMBoundary:      "ASTM Boundery",
	ASTMInternalLines: "ASTM Internal Lines",
}

// Classify returns the category of a layer code, Unknown if the code is not
// part of the table.
func Classify(code dxf.Layer) Category {
	if c, ok := byCode[code]; ok {
		return c
	}
	return Unknown
}

// Code returns the layer code of c, NoLayer for Unknown
func (c Category) Code() dxf.Layer {
	if code, ok := codes[c]; ok {
		return code
	}
	return dxf.NoLayer
}

// Handled reports whether geometry on c is translated into shapes
func (c Category) Handled() bool {
	return c >= Boundary && c <= AnnotationText
}

// Legacy reports whether c is a recognized but untranslated ASTM layer
func (c Category) Legacy() bool {
	return c == ASTMBoundary || c == ASTMInternalLines
}

func (c Category) String() string {
	return names[c]
}

// Check reports every entity whose layer is not translated. It never
// influences shape construction.
func Check(entities []dxf.Entity, col *diag.Collector) {
	for _, e := range entities {
		h := e.Head()
		c := Classify(h.Layer)
		switch {
		case c.Handled():
		case c.Legacy():
			col.Addf(diag.Info, e, "Unhandled definition on layer %s: %s", h.LayerName, c)
		default:
			col.Addf(diag.Info, e, "Unhandled definition on layer %s: ", h.LayerName)
		}
	}
}
