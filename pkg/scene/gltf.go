package scene

import (
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// gltfExporter converts a Scene into a glTF document. Faces with more than
// three indices are not triangulated and are left out.
type gltfExporter struct {
	scene *Scene
	doc   *gltf.Document
	log   *zap.Logger

	primitives [][]*gltf.Primitive // per scene mesh
	textures   map[Texture]uint32
}

// ToGLTF converts s into a glTF 2.0 document. Texture paths are referenced
// as image URIs, not embedded.
func ToGLTF(s *Scene, log *zap.Logger) *gltf.Document {
	if log == nil {
		log = zap.NewNop()
	}
	e := &gltfExporter{
		scene:    s,
		doc:      gltf.NewDocument(),
		log:      log,
		textures: make(map[Texture]uint32),
	}

	for _, m := range s.Materials {
		e.doc.Materials = append(e.doc.Materials, e.material(m))
	}
	e.primitives = make([][]*gltf.Primitive, len(s.Meshes))
	for i, m := range s.Meshes {
		e.primitives[i] = e.mesh(m)
	}
	if s.Root != nil {
		root := e.node(s.Root)
		e.doc.Scenes[0].Nodes = append(e.doc.Scenes[0].Nodes, root)
	}
	return e.doc
}

// WriteGLTF encodes s as glTF JSON with an embedded buffer, or as GLB when
// binary is set.
func WriteGLTF(w io.Writer, s *Scene, binary bool, log *zap.Logger) error {
	doc := ToGLTF(s, log)
	if !binary {
		for _, buf := range doc.Buffers {
			buf.EmbeddedResource()
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return errors.Wrap(encoder.Encode(doc), "encoding glTF")
}

func (e *gltfExporter) node(n *Node) uint32 {
	gn := &gltf.Node{
		Name:     n.Name,
		Matrix:   [16]float32(n.Transform),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}

	// glTF nodes hold a single mesh, so the node's meshes become the
	// primitives of one glTF mesh.
	var prims []*gltf.Primitive
	for _, idx := range n.Meshes {
		prims = append(prims, e.primitives[idx]...)
	}
	if len(prims) > 0 {
		e.doc.Meshes = append(e.doc.Meshes, &gltf.Mesh{Name: n.Name, Primitives: prims})
		gn.Mesh = gltf.Index(uint32(len(e.doc.Meshes) - 1))
	}

	id := uint32(len(e.doc.Nodes))
	e.doc.Nodes = append(e.doc.Nodes, gn)
	for _, c := range n.Children {
		gn.Children = append(gn.Children, e.node(c))
	}
	return id
}

// mesh writes the vertex arrays of m once and returns one primitive per
// face arity, all sharing those arrays.
func (e *gltfExporter) mesh(m *Mesh) []*gltf.Primitive {
	var byArity [4][]uint32
	skipped := 0
	for _, f := range m.Faces {
		n := f.IndexCount()
		if n < 1 || n > 3 {
			skipped++
			continue
		}
		byArity[n] = append(byArity[n], f.Indices...)
	}
	if skipped > 0 {
		e.log.Warn("skipping faces that need triangulation",
			zap.String("mesh", m.Name),
			zap.Int("faces", skipped))
	}

	modes := [4]gltf.PrimitiveMode{0, gltf.PrimitivePoints, gltf.PrimitiveLines, gltf.PrimitiveTriangles}
	var attributes map[string]uint32
	var prims []*gltf.Primitive
	for arity := 1; arity <= 3; arity++ {
		if len(byArity[arity]) == 0 {
			continue
		}
		if attributes == nil {
			attributes = e.attributes(m)
		}
		prims = append(prims, &gltf.Primitive{
			Attributes: attributes,
			Indices:    gltf.Index(modeler.WriteIndices(e.doc, byArity[arity])),
			Material:   gltf.Index(uint32(m.MaterialIndex)),
			Mode:       modes[arity],
		})
	}
	return prims
}

func (e *gltfExporter) attributes(m *Mesh) map[string]uint32 {
	positions := make([][3]float32, len(m.Positions))
	for i, p := range m.Positions {
		positions[i] = p
	}
	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(e.doc, positions),
	}

	if m.Normals != nil {
		normals := make([][3]float32, len(m.Normals))
		for i, n := range m.Normals {
			if n.Len() > 0.5 {
				n = n.Normalize()
			}
			normals[i] = n
		}
		attributes["NORMAL"] = modeler.WriteNormal(e.doc, normals)
	}
	if m.UV0 != nil {
		// glTF puts the UV origin at the top left
		uvs := make([][2]float32, len(m.UV0))
		for i, uv := range m.UV0 {
			uvs[i] = [2]float32{uv[0], 1 - uv[1]}
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(e.doc, uvs)
	}
	return attributes
}

func (e *gltfExporter) material(m *Material) *gltf.Material {
	color := [4]float32{m.Diffuse[0], m.Diffuse[1], m.Diffuse[2], m.Opacity}
	gm := &gltf.Material{
		Name:           m.Name,
		DoubleSided:    true,
		EmissiveFactor: [3]float32(m.Emissive),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  gltf.Float(0),
		},
	}
	if m.Opacity < 1 {
		gm.AlphaMode = gltf.AlphaBlend
	}

	if tex, ok := m.Texture(TextureDiffuse); ok {
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: e.texture(tex)}
	}
	if tex, ok := m.Texture(TextureEmissive); ok {
		gm.EmissiveTexture = &gltf.TextureInfo{Index: e.texture(tex)}
	}
	if tex, ok := m.Texture(TextureNormals); ok {
		gm.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(e.texture(tex))}
	}
	return gm
}

// texture returns the glTF texture for a path and wrap mode, adding the
// image, sampler and texture on first use.
func (e *gltfExporter) texture(t Texture) uint32 {
	key := Texture{Path: t.Path, Clamp: t.Clamp}
	if idx, ok := e.textures[key]; ok {
		return idx
	}

	sampler := &gltf.Sampler{
		MinFilter: gltf.MinLinear,
		MagFilter: gltf.MagLinear,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	}
	if t.Clamp {
		sampler.WrapS = gltf.WrapClampToEdge
		sampler.WrapT = gltf.WrapClampToEdge
	}
	e.doc.Samplers = append(e.doc.Samplers, sampler)
	e.doc.Images = append(e.doc.Images, &gltf.Image{Name: t.Path, URI: t.Path})
	e.doc.Textures = append(e.doc.Textures, &gltf.Texture{
		Name:    t.Path,
		Sampler: gltf.Index(uint32(len(e.doc.Samplers) - 1)),
		Source:  gltf.Index(uint32(len(e.doc.Images) - 1)),
	})

	idx := uint32(len(e.doc.Textures) - 1)
	e.textures[key] = idx
	return idx
}
