package pattern

import (
	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/dxf"
	"github.com/openpatterns/opf/pkg/opf/layer"
)

// Piece is one named pattern piece across all of its sizes. Every map is
// keyed by size.
type Piece struct {
	Name            string                 `json:"name"`
	Vertices        VertexPool             `json:"vertices"`
	Shapes          map[string]*Shape      `json:"shapes"`
	InternalShapes  map[string]*Shape      `json:"internalShapes"`
	TurnPoints      map[string]*Shape      `json:"turnPoints"`
	CurvePoints     map[string]*Shape      `json:"curvePoints"`
	Notches         map[string]*Shape      `json:"notches"`
	GrainLines      map[string]*Shape      `json:"grainLines"`
	GradeReferences map[string]*Shape      `json:"gradeReferences"`
	MirrorLines     map[string]*Shape      `json:"mirrorLines"`
	DrillHoles      map[string]*Shape      `json:"drillHoles"`
	Annotations     map[string]*Annotation `json:"annotations"`
}

// NewPiece creates an empty piece
func NewPiece(name string) *Piece {
	return &Piece{
		Name:            name,
		Shapes:          make(map[string]*Shape),
		InternalShapes:  make(map[string]*Shape),
		TurnPoints:      make(map[string]*Shape),
		CurvePoints:     make(map[string]*Shape),
		Notches:         make(map[string]*Shape),
		GrainLines:      make(map[string]*Shape),
		GradeReferences: make(map[string]*Shape),
		MirrorLines:     make(map[string]*Shape),
		DrillHoles:      make(map[string]*Shape),
		Annotations:     make(map[string]*Annotation),
	}
}

// CreateSize builds every shape category of the piece for size from the
// entities of one block, then checks the block for untranslated layers.
// It returns the diagnostics raised along the way.
func (p *Piece) CreateSize(size string, entities []dxf.Entity) []diag.Diagnostic {
	col := diag.NewCollector()

	p.Shapes[size] = p.buildOutline(entities, layer.Boundary.Code(), false, col)
	p.InternalShapes[size] = p.buildOutline(entities, layer.InternalLines.Code(), true, col)
	p.TurnPoints[size] = p.buildPoints(entities, layer.TurnPoints.Code(), col)
	p.CurvePoints[size] = p.buildPoints(entities, layer.CurvePoints.Code(), col)
	p.Notches[size] = p.buildPoints(entities, layer.Notches.Code(), col)
	p.GrainLines[size] = p.buildLines(entities, layer.GrainLine.Code(), col)
	p.GradeReferences[size] = p.buildLines(entities, layer.GradeReference.Code(), col)
	p.MirrorLines[size] = p.buildLines(entities, layer.MirrorLine.Code(), col)
	p.DrillHoles[size] = p.buildPoints(entities, layer.DrillHoles.Code(), col)
	p.Annotations[size] = p.buildAnnotation(entities, layer.AnnotationText.Code(), col)

	layer.Check(entities, col)

	return col.All()
}

// ShapesFor returns the size map holding category c, nil for categories
// that are not stored as shapes.
func (p *Piece) ShapesFor(c layer.Category) map[string]*Shape {
	switch c {
	case layer.Boundary:
		return p.Shapes
	case layer.InternalLines:
		return p.InternalShapes
	case layer.TurnPoints:
		return p.TurnPoints
	case layer.CurvePoints:
		return p.CurvePoints
	case layer.Notches:
		return p.Notches
	case layer.GrainLine:
		return p.GrainLines
	case layer.GradeReference:
		return p.GradeReferences
	case layer.MirrorLine:
		return p.MirrorLines
	case layer.DrillHoles:
		return p.DrillHoles
	default:
		return nil
	}
}
