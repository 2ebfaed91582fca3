package formats

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// NoIndex marks an absent pool index or an absent object/mesh id.
const NoIndex = -1

// Default names used when the file does not provide one.
const (
	DefaultMaterialName = "DefaultMaterial"
	DefaultObjectName   = "defaultobject"
)

// PrimitiveType is the kind of a parsed face.
type PrimitiveType uint8

const (
	PrimitivePolygon PrimitiveType = iota // f
	PrimitiveLine                         // l
	PrimitivePoint                        // p
)

// String returns the OBJ directive that produces the primitive type.
func (p PrimitiveType) String() string {
	switch p {
	case PrimitivePolygon:
		return "f"
	case PrimitiveLine:
		return "l"
	case PrimitivePoint:
		return "p"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// TextureType names one of the texture slots of a Material.
type TextureType int

const (
	TextureDiffuse TextureType = iota
	TextureSpecular
	TextureAmbient
	TextureEmissive
	TextureBump
	TextureNormal
	TextureDisplacement
	TextureOpacity
	TextureSpecularity
	TextureTypeCount
)

var textureTypeNames = [TextureTypeCount]string{
	"diffuse", "specular", "ambient", "emissive", "bump",
	"normal", "displacement", "opacity", "specularity",
}

// String returns a human-readable slot name.
func (t TextureType) String() string {
	if t >= 0 && t < TextureTypeCount {
		return textureTypeNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// TextureSlot is a texture reference of a Material.
type TextureSlot struct {
	File  string // file name as written in the library, empty if unset
	Clamp bool   // -clamp on
}

// Material is a material parsed from a material library.
type Material struct {
	Name              string
	Ambient           mgl32.Vec3
	Diffuse           mgl32.Vec3
	Specular          mgl32.Vec3
	Emissive          mgl32.Vec3
	Alpha             float32 // d
	Shininess         float32 // Ns
	IlluminationModel int     // illum
	IOR               float32 // Ni
	Textures          [TextureTypeCount]TextureSlot
}

// NewMaterial returns a material with library defaults.
func NewMaterial(name string) *Material {
	return &Material{
		Name:              name,
		Diffuse:           mgl32.Vec3{0.6, 0.6, 0.6},
		Alpha:             1,
		IlluminationModel: 1,
		IOR:               1,
	}
}

// Face is a point, line or polygon referencing the vertex pools.
// TexCoords and Normals run parallel to Vertices and hold NoIndex where a
// vertex reference carries no such component.
type Face struct {
	Type      PrimitiveType
	Vertices  []int
	TexCoords []int
	Normals   []int
	Material  *Material
}

// HasNormals reports whether any vertex reference carries a normal.
func (f *Face) HasNormals() bool {
	for _, n := range f.Normals {
		if n != NoIndex {
			return true
		}
	}
	return false
}

// NumTexCoords counts the vertex references carrying a texture coordinate.
func (f *Face) NumTexCoords() int {
	count := 0
	for _, t := range f.TexCoords {
		if t != NoIndex {
			count++
		}
	}
	return count
}

// Mesh is a run of faces sharing one material.
type Mesh struct {
	Name         string
	Faces        []int // ids into Model.Faces
	Material     *Material
	NumIndices   int
	NumTexCoords int // vertex references carrying a UV (channel 0)
	HasNormals   bool
}

// Object is a named node created by "o" or "g".
type Object struct {
	Name     string
	Meshes   []int // ids into Model.Meshes
	Children []int // ids into Model.Objects
	Parent   int   // NoIndex for top-level objects
}

// Model is the parse-time representation of an OBJ file and its
// material libraries. Objects, meshes and faces live in flat arenas and
// refer to each other by index.
type Model struct {
	Name string

	Vertices     []mgl32.Vec3
	Normals      []mgl32.Vec3
	TexCoords    []mgl32.Vec3
	UVComponents int // 2, or 3 once any vt carried a third component

	Objects []Object
	Meshes  []Mesh
	Faces   []Face

	Materials       map[string]*Material
	MaterialLib     []string // material names in definition order
	DefaultMaterial *Material

	Groups map[string][]int // group name -> face ids
}

// NewModel creates an empty model with the default material registered.
func NewModel(name string) *Model {
	m := &Model{
		Name:         name,
		UVComponents: 2,
		Materials:    make(map[string]*Material),
		Groups:       make(map[string][]int),
	}
	m.ensureDefaultMaterial()
	return m
}

func (m *Model) ensureDefaultMaterial() {
	if m.Materials == nil {
		m.Materials = make(map[string]*Material)
	}
	if m.DefaultMaterial != nil {
		return
	}
	m.DefaultMaterial = NewMaterial(DefaultMaterialName)
	m.AddMaterial(m.DefaultMaterial)
}

// AddMaterial registers mat under its name and appends the name to the
// library order. An existing entry with the same name is returned instead.
func (m *Model) AddMaterial(mat *Material) *Material {
	if existing, ok := m.Materials[mat.Name]; ok {
		return existing
	}
	m.Materials[mat.Name] = mat
	m.MaterialLib = append(m.MaterialLib, mat.Name)
	return mat
}

// MaterialIndex returns the library position of the named material, or
// NoIndex when it is not part of the library.
func (m *Model) MaterialIndex(name string) int {
	for i, n := range m.MaterialLib {
		if n == name {
			return i
		}
	}
	return NoIndex
}

// FindObject returns the id of the first object with the exact name.
func (m *Model) FindObject(name string) int {
	for i := range m.Objects {
		if m.Objects[i].Name == name {
			return i
		}
	}
	return NoIndex
}

// AddObject appends a top-level object and returns its id.
func (m *Model) AddObject(name string) int {
	m.Objects = append(m.Objects, Object{Name: name, Parent: NoIndex})
	return len(m.Objects) - 1
}

// AddChildObject appends an object under parent and returns its id.
func (m *Model) AddChildObject(parent int, name string) int {
	id := len(m.Objects)
	m.Objects = append(m.Objects, Object{Name: name, Parent: parent})
	m.Objects[parent].Children = append(m.Objects[parent].Children, id)
	return id
}

// AddMesh appends a mesh owned by object (which may be NoIndex) and
// returns its id.
func (m *Model) AddMesh(object int, name string, mat *Material) int {
	id := len(m.Meshes)
	m.Meshes = append(m.Meshes, Mesh{Name: name, Material: mat})
	if object != NoIndex {
		m.Objects[object].Meshes = append(m.Objects[object].Meshes, id)
	}
	return id
}

// AddFace appends face to mesh, updating the mesh counters, and returns
// the new face id.
func (m *Model) AddFace(mesh int, face Face) int {
	id := len(m.Faces)
	m.Faces = append(m.Faces, face)
	ms := &m.Meshes[mesh]
	ms.Faces = append(ms.Faces, id)
	ms.NumIndices += len(face.Vertices)
	ms.NumTexCoords += face.NumTexCoords()
	if !ms.HasNormals && face.HasNormals() {
		ms.HasNormals = true
	}
	return id
}

// FaceCount returns the number of parsed faces.
func (m *Model) FaceCount() int {
	return len(m.Faces)
}
