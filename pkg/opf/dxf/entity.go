// Package dxf models the tokenized drawing handed over by the upstream DXF
// parser: blocks of typed entities, each carrying a numeric layer code.
package dxf

import (
	"strconv"
	"strings"
)

// Entity type names as emitted by the tokenizer
const (
	TypeText     = "TEXT"
	TypeLine     = "LINE"
	TypePolyline = "POLYLINE"
	TypePoint    = "POINT"
)

// Layer is a normalized layer code.
type Layer int

// NoLayer marks a layer name that is not an integer.
const NoLayer Layer = -1

// ParseLayer normalizes a layer name to its integer code.
func ParseLayer(name string) Layer {
	n, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil || n < 0 {
		return NoLayer
	}
	return Layer(n)
}

func (l Layer) String() string {
	if l == NoLayer {
		return "none"
	}
	return strconv.Itoa(int(l))
}

// Vertex is a point in drawing coordinates
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Header holds the fields shared by every entity variant.
// LayerName keeps the layer as written in the source for messages.
type Header struct {
	Type      string `json:"type"`
	Handle    string `json:"handle,omitempty"`
	Layer     Layer  `json:"-"`
	LayerName string `json:"layer"`
}

// Head returns the shared entity fields
func (h Header) Head() Header { return h }

func (Header) isEntity() {}

// Entity is one of *Text, *Line, *Polyline, *Point or *Other.
type Entity interface {
	Head() Header
	isEntity()
}

// Text is a single-line TEXT entity.
type Text struct {
	Header
	Text       string  `json:"text"`
	StartPoint *Vertex `json:"startPoint,omitempty"`
	EndPoint   *Vertex `json:"endPoint,omitempty"`
	TextHeight float64 `json:"textHeight,omitempty"`
	XScale     float64 `json:"xScale,omitempty"`
	Rotation   float64 `json:"rotation,omitempty"`
	HAlign     int     `json:"halign,omitempty"`
	VAlign     int     `json:"valign,omitempty"`
}

// Line is a LINE entity. The tokenizer stores its end points as vertices.
type Line struct {
	Header
	Vertices []Vertex `json:"vertices"`
}

// Polyline is a POLYLINE entity
type Polyline struct {
	Header
	Vertices []Vertex `json:"vertices"`
}

// Point is a POINT entity
type Point struct {
	Header
	Position Vertex `json:"position"`
}

// Other is any entity type the pattern engine does not interpret.
type Other struct {
	Header
}

func header(typ string, layer Layer) Header {
	return Header{Type: typ, Layer: layer, LayerName: layer.String()}
}

// NewText builds a TEXT entity on the given layer
func NewText(layer Layer, text string) *Text {
	return &Text{Header: header(TypeText, layer), Text: text}
}

// NewLine builds a LINE entity on the given layer
func NewLine(layer Layer, vertices ...Vertex) *Line {
	return &Line{Header: header(TypeLine, layer), Vertices: vertices}
}

// NewPolyline builds a POLYLINE entity on the given layer
func NewPolyline(layer Layer, vertices ...Vertex) *Polyline {
	return &Polyline{Header: header(TypePolyline, layer), Vertices: vertices}
}

// NewPoint builds a POINT entity on the given layer
func NewPoint(layer Layer, x, y float64) *Point {
	return &Point{Header: header(TypePoint, layer), Position: Vertex{X: x, Y: y}}
}

// NewOther builds an uninterpreted entity of the given type
func NewOther(typ string, layer Layer) *Other {
	return &Other{Header: header(typ, layer)}
}

// V is shorthand for a 2-D vertex
func V(x, y float64) Vertex {
	return Vertex{X: x, Y: y}
}
