// Package scene holds the renderer-ready output of an OBJ import and the
// builder that produces it from a parsed formats.Model.
package scene

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// PrimitiveType is a bitmask of the primitive kinds present in a Mesh.
type PrimitiveType uint8

const (
	PrimitivePoint PrimitiveType = 1 << iota
	PrimitiveLine
	PrimitiveTriangle
	PrimitivePolygon
)

// String lists the set primitive kinds, e.g. "line|triangle".
func (p PrimitiveType) String() string {
	if p == 0 {
		return "none"
	}
	var parts []string
	for _, kv := range []struct {
		bit  PrimitiveType
		name string
	}{
		{PrimitivePoint, "point"},
		{PrimitiveLine, "line"},
		{PrimitiveTriangle, "triangle"},
		{PrimitivePolygon, "polygon"},
	} {
		if p&kv.bit != 0 {
			parts = append(parts, kv.name)
		}
	}
	return strings.Join(parts, "|")
}

// primitiveFor returns the primitive kind of a face with n indices.
func primitiveFor(n int) PrimitiveType {
	switch {
	case n == 1:
		return PrimitivePoint
	case n == 2:
		return PrimitiveLine
	case n == 3:
		return PrimitiveTriangle
	default:
		return PrimitivePolygon
	}
}

// ShadingModel is derived from the MTL illumination model.
type ShadingModel int

const (
	ShadingNone ShadingModel = iota
	ShadingGouraud
	ShadingPhong
)

func (s ShadingModel) String() string {
	switch s {
	case ShadingNone:
		return "none"
	case ShadingGouraud:
		return "gouraud"
	case ShadingPhong:
		return "phong"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Node is an element of the scene hierarchy. OBJ import always produces
// identity transforms.
type Node struct {
	Name      string
	Transform mgl32.Mat4
	Children  []*Node
	Meshes    []int // indices into Scene.Meshes
}

func newNode(name string) *Node {
	return &Node{Name: name, Transform: mgl32.Ident4()}
}

// Face is an output primitive indexing into its Mesh's vertex arrays.
type Face struct {
	Indices []uint32
}

// IndexCount returns the number of indices of the face.
func (f Face) IndexCount() int {
	return len(f.Indices)
}

// Bounds is the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func emptyBounds() Bounds {
	return Bounds{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
}

func (b *Bounds) extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Mesh holds non-indexed ("verbose") vertex data: every vertex referenced
// by a face has its own slot. Normals and UV0 are nil when absent.
type Mesh struct {
	Name           string
	PrimitiveTypes PrimitiveType
	NumVertices    int
	Positions      []mgl32.Vec3
	Normals        []mgl32.Vec3
	UV0            []mgl32.Vec3
	UVComponents   int
	Faces          []Face
	MaterialIndex  int // index into Scene.Materials
	Bounds         Bounds
}

// TextureType names the role of a material texture.
type TextureType int

const (
	TextureDiffuse TextureType = iota
	TextureAmbient
	TextureEmissive
	TextureSpecular
	TextureHeight
	TextureNormals
	TextureDisplacement
	TextureOpacity
	TextureShininess
)

var textureTypeNames = []string{
	"diffuse", "ambient", "emissive", "specular", "height",
	"normals", "displacement", "opacity", "shininess",
}

func (t TextureType) String() string {
	if t >= 0 && int(t) < len(textureTypeNames) {
		return textureTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// Texture is a texture reference of an exported material. Path is kept
// exactly as written in the material library.
type Texture struct {
	Type  TextureType
	Path  string
	Clamp bool
}

// Material is an exported material.
type Material struct {
	Name            string
	ShadingModel    ShadingModel
	Ambient         mgl32.Vec3
	Diffuse         mgl32.Vec3
	Specular        mgl32.Vec3
	Emissive        mgl32.Vec3
	Shininess       float32
	Opacity         float32
	RefractionIndex float32
	Textures        []Texture
}

// Texture returns the texture of the given type, if the material has one.
func (m *Material) Texture(t TextureType) (Texture, bool) {
	for _, tex := range m.Textures {
		if tex.Type == t {
			return tex, true
		}
	}
	return Texture{}, false
}

// Scene is the result of an import.
type Scene struct {
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
}

// Walk visits the node tree depth-first, parents before children.
func (s *Scene) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if s.Root != nil {
		walk(s.Root, 0)
	}
}

// Stats summarizes a scene.
type Stats struct {
	Nodes     int `json:"nodes"`
	Meshes    int `json:"meshes"`
	Faces     int `json:"faces"`
	Vertices  int `json:"vertices"`
	Materials int `json:"materials"`
}

// Stats counts the scene's nodes, meshes, faces, vertices and materials.
func (s *Scene) Stats() Stats {
	st := Stats{
		Meshes:    len(s.Meshes),
		Materials: len(s.Materials),
	}
	s.Walk(func(*Node, int) { st.Nodes++ })
	for _, m := range s.Meshes {
		st.Faces += len(m.Faces)
		st.Vertices += m.NumVertices
	}
	return st
}
