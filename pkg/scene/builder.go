package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/objscene/pkg/formats"
)

// Scene builder errors.
var (
	ErrInvalidModelName      = errors.New("model has no name")
	ErrMaterialCountMismatch = errors.New("exported material count does not match material library")
)

// BuildOptions contains options for scene building.
type BuildOptions struct {
	// PointCloud emits a single point mesh for models that have positions
	// but no faces or objects.
	PointCloud bool
}

// DefaultBuildOptions returns the options used by the importer.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{PointCloud: true}
}

type builder struct {
	model *formats.Model
	scene *Scene
	log   *zap.Logger
}

// Build converts a parsed model into a Scene. The model is not modified.
// A model without a name, or whose material library cannot be exported
// in full, is rejected and no Scene is returned.
func Build(model *formats.Model, opts BuildOptions, log *zap.Logger) (*Scene, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if model == nil || model.Name == "" {
		return nil, ErrInvalidModelName
	}

	b := &builder{
		model: model,
		scene: &Scene{Root: newNode(model.Name)},
		log:   log.With(zap.String("model", model.Name)),
	}

	if len(model.Objects) == 0 {
		if opts.PointCloud && len(model.Vertices) > 0 {
			b.buildPointCloud()
		}
	} else {
		for id := range model.Objects {
			if model.Objects[id].Parent == formats.NoIndex {
				b.buildObject(id, b.scene.Root)
			}
		}
	}

	materials, err := b.exportMaterials()
	if err != nil {
		return nil, err
	}
	b.scene.Materials = materials
	return b.scene, nil
}

// buildObject creates the node for an object below parent, then recurses
// into the object's children.
func (b *builder) buildObject(id int, parent *Node) {
	obj := &b.model.Objects[id]
	node := newNode(obj.Name)
	parent.Children = append(parent.Children, node)

	for _, meshID := range obj.Meshes {
		mesh := b.buildMesh(&b.model.Meshes[meshID])
		if mesh == nil || len(mesh.Faces) == 0 {
			continue
		}
		node.Meshes = append(node.Meshes, len(b.scene.Meshes))
		b.scene.Meshes = append(b.scene.Meshes, mesh)
	}

	for _, child := range obj.Children {
		b.buildObject(child, node)
	}
}

// outputFaces returns the number of output faces a source face expands
// into.
func outputFaces(f *formats.Face) int {
	switch f.Type {
	case formats.PrimitiveLine:
		return len(f.Vertices) - 1
	case formats.PrimitivePoint:
		return len(f.Vertices)
	default:
		return 1
	}
}

// outputVertices returns the number of vertex slots a source face needs.
// Every line segment after the first repeats the previous end point.
func outputVertices(f *formats.Face) int {
	n := len(f.Vertices)
	if f.Type == formats.PrimitiveLine {
		return 2*n - 2
	}
	return n
}

// validFace reports whether every index of f lies inside the model pools.
func (b *builder) validFace(f *formats.Face) error {
	if len(f.Vertices) == 0 {
		return formats.ErrEmptyFace
	}
	if f.Type == formats.PrimitiveLine && len(f.Vertices) < 2 {
		return errors.Wrap(formats.ErrEmptyFace, "line with a single vertex")
	}
	check := func(idx []int, size int, what string) error {
		for _, i := range idx {
			if i == formats.NoIndex {
				continue
			}
			if i < 0 || i >= size {
				return errors.Wrapf(formats.ErrMalformedIndex, "%s index %d outside pool of %d", what, i, size)
			}
		}
		return nil
	}
	for _, i := range f.Vertices {
		if i == formats.NoIndex {
			return errors.Wrap(formats.ErrMalformedIndex, "missing position index")
		}
	}
	if err := check(f.Vertices, len(b.model.Vertices), "position"); err != nil {
		return err
	}
	if err := check(f.TexCoords, len(b.model.TexCoords), "texture coordinate"); err != nil {
		return err
	}
	return check(f.Normals, len(b.model.Normals), "normal")
}

// buildMesh runs topology and vertex array construction for one source
// mesh.
func (b *builder) buildMesh(src *formats.Mesh) *Mesh {
	faces := make([]*formats.Face, 0, len(src.Faces))
	numFaces, numVertices := 0, 0
	for _, id := range src.Faces {
		f := &b.model.Faces[id]
		if err := b.validFace(f); err != nil {
			b.log.Warn("skipping face",
				zap.String("mesh", src.Name),
				zap.Int("face", id),
				zap.Error(err))
			continue
		}
		faces = append(faces, f)
		numFaces += outputFaces(f)
		numVertices += outputVertices(f)
	}
	if numFaces == 0 {
		return nil
	}

	mesh := &Mesh{
		Name:          src.Name,
		NumVertices:   numVertices,
		Positions:     make([]mgl32.Vec3, 0, numVertices),
		Faces:         make([]Face, 0, numFaces),
		MaterialIndex: b.materialIndex(src.Material),
		Bounds:        emptyBounds(),
	}
	withNormals := len(b.model.Normals) > 0 && src.HasNormals
	if withNormals {
		mesh.Normals = make([]mgl32.Vec3, 0, numVertices)
	}
	withUV := len(b.model.TexCoords) > 0 && src.NumTexCoords > 0
	if withUV {
		mesh.UV0 = make([]mgl32.Vec3, 0, numVertices)
		mesh.UVComponents = b.model.UVComponents
	}

	for _, f := range faces {
		b.appendFace(mesh, f, withNormals, withUV)
	}
	return mesh
}

// emit copies the k-th vertex reference of f into a new slot and returns
// the slot index.
func (b *builder) emit(mesh *Mesh, f *formats.Face, k int, withNormals, withUV bool) uint32 {
	slot := uint32(len(mesh.Positions))
	pos := b.model.Vertices[f.Vertices[k]]
	mesh.Positions = append(mesh.Positions, pos)
	mesh.Bounds.extend(pos)

	if withNormals {
		var n mgl32.Vec3
		if k < len(f.Normals) && f.Normals[k] != formats.NoIndex {
			n = b.model.Normals[f.Normals[k]]
		}
		mesh.Normals = append(mesh.Normals, n)
	}
	if withUV {
		var uv mgl32.Vec3
		if k < len(f.TexCoords) && f.TexCoords[k] != formats.NoIndex {
			uv = b.model.TexCoords[f.TexCoords[k]]
		}
		mesh.UV0 = append(mesh.UV0, uv)
	}
	return slot
}

func (b *builder) appendFace(mesh *Mesh, f *formats.Face, withNormals, withUV bool) {
	n := len(f.Vertices)
	switch f.Type {
	case formats.PrimitivePoint:
		for k := 0; k < n; k++ {
			idx := b.emit(mesh, f, k, withNormals, withUV)
			mesh.Faces = append(mesh.Faces, Face{Indices: []uint32{idx}})
		}
		mesh.PrimitiveTypes |= PrimitivePoint

	case formats.PrimitiveLine:
		prev := b.emit(mesh, f, 0, withNormals, withUV)
		for k := 1; k < n; k++ {
			cur := b.emit(mesh, f, k, withNormals, withUV)
			mesh.Faces = append(mesh.Faces, Face{Indices: []uint32{prev, cur}})
			if k < n-1 {
				prev = b.emit(mesh, f, k, withNormals, withUV)
			}
		}
		mesh.PrimitiveTypes |= PrimitiveLine

	default:
		indices := make([]uint32, n)
		for k := 0; k < n; k++ {
			indices[k] = b.emit(mesh, f, k, withNormals, withUV)
		}
		mesh.Faces = append(mesh.Faces, Face{Indices: indices})
		mesh.PrimitiveTypes |= primitiveFor(n)
	}
}

// materialIndex returns the scene material index of mat. Material
// export follows the library order, so this is the library position.
func (b *builder) materialIndex(mat *formats.Material) int {
	if mat == nil {
		mat = b.model.DefaultMaterial
	}
	if mat == nil {
		return 0
	}
	if idx := b.model.MaterialIndex(mat.Name); idx != formats.NoIndex {
		return idx
	}
	b.log.Warn("mesh material is not in the material library",
		zap.String("material", mat.Name))
	return 0
}

// buildPointCloud emits every position as a one-index point face on a
// single mesh attached to the root node.
func (b *builder) buildPointCloud() {
	n := len(b.model.Vertices)
	mesh := &Mesh{
		Name:           b.model.Name,
		PrimitiveTypes: PrimitivePoint,
		NumVertices:    n,
		Positions:      make([]mgl32.Vec3, n),
		Faces:          make([]Face, n),
		MaterialIndex:  b.materialIndex(nil),
		Bounds:         emptyBounds(),
	}
	copy(mesh.Positions, b.model.Vertices)
	for i := range mesh.Faces {
		mesh.Faces[i] = Face{Indices: []uint32{uint32(i)}}
		mesh.Bounds.extend(mesh.Positions[i])
	}
	if len(b.model.Normals) == n {
		mesh.Normals = make([]mgl32.Vec3, n)
		copy(mesh.Normals, b.model.Normals)
	}

	b.log.Debug("building point cloud", zap.Int("points", n))
	b.scene.Root.Meshes = append(b.scene.Root.Meshes, len(b.scene.Meshes))
	b.scene.Meshes = append(b.scene.Meshes, mesh)
}
