// OBJ (Wavefront geometry) parser.
package formats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// OBJMinSize is the smallest OBJ file accepted by ParseOBJFile.
const OBJMinSize = 16

// OBJ format errors.
var (
	// Recoverable: the offending line or directive is skipped and logged.
	ErrMalformedIndex      = errors.New("face index out of range")
	ErrEmptyFace           = errors.New("face without vertex indices")
	ErrMissingMaterial     = errors.New("material not found")
	ErrMissingMaterialFile = errors.New("material library not found")

	// Fatal: the import is aborted.
	ErrOBJTooSmall           = errors.New("OBJ file is too small")
	ErrReadFailure           = errors.New("reading OBJ file failed")
	ErrInvalidComponentCount = errors.New("invalid number of texture coordinate components")
)

// ReadError reports a primary OBJ file that could not be read. It matches
// ErrReadFailure and unwraps to the reader's error.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return e.Path + ": " + ErrReadFailure.Error() + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrReadFailure.
func (e *ReadError) Is(target error) bool { return target == ErrReadFailure }

// FileReader loads a whole named resource into memory. os.ReadFile,
// fstest.MapFS and the asset cache all satisfy it.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// OSFiles reads files relative to the process working directory.
type OSFiles struct{}

// ReadFile implements FileReader.
func (OSFiles) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// OBJOptions configures ParseOBJ.
type OBJOptions struct {
	// Files resolves mtllib directives. When nil, material libraries
	// are reported missing.
	Files FileReader
	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
	// MaterialFallback retries a missing mtllib target as
	// "<model name without extension>.mtl".
	MaterialFallback bool
}

// objParser holds the state of one parse: the cursor into the buffer and
// the current object, mesh, material and group.
type objParser struct {
	buf  []byte
	pos  int
	line int

	model *Model
	opts  OBJOptions
	log   *zap.Logger

	object      int
	mesh        int
	material    *Material
	group       string
	groupActive bool
}

// ParseOBJ parses OBJ data into a Model named name. Backslash line
// continuations are joined before parsing. Recoverable problems are
// logged and the offending line skipped.
func ParseOBJ(data []byte, name string, opts OBJOptions) (*Model, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &objParser{
		buf:    StripContinuations(data),
		line:   1,
		model:  NewModel(name),
		opts:   opts,
		log:    log.With(zap.String("model", name)),
		object: NoIndex,
		mesh:   NoIndex,
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.model, nil
}

// ParseOBJFile reads an OBJ file through opts.Files (the working directory
// when nil) and parses it. The model is named after the file's base name.
func ParseOBJFile(path string, opts OBJOptions) (*Model, error) {
	if opts.Files == nil {
		opts.Files = OSFiles{}
	}
	data, err := opts.Files.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if len(data) < OBJMinSize {
		return nil, errors.Wrapf(ErrOBJTooSmall, "%s: %d bytes", path, len(data))
	}
	return ParseOBJ(data, filepath.Base(path), opts)
}

func (p *objParser) parse() error {
	p.pos = NextWord(p.buf, 0)
	for !IsEnd(p.buf, p.pos) {
		if p.buf[p.pos] == '#' {
			p.pos = SkipLine(p.buf, p.pos, &p.line)
			continue
		}

		end := WordEnd(p.buf, p.pos)
		keyword := p.buf[p.pos:end]
		p.pos = end

		var err error
		switch string(keyword) {
		case "v":
			p.model.Vertices = append(p.model.Vertices, p.readVec3())
		case "vn":
			p.model.Normals = append(p.model.Normals, p.readVec3())
		case "vt":
			err = p.readTexCoord()
		case "f":
			err = p.parseFace(PrimitivePolygon)
		case "l":
			err = p.parseFace(PrimitiveLine)
		case "p":
			err = p.parseFace(PrimitivePoint)
		case "usemtl":
			err = p.useMaterial()
		case "mtllib":
			err = p.loadMaterialLib()
		case "g":
			p.setGroup()
		case "o":
			p.setObject()
		case "s", "mg":
			// smoothing and merging groups carry no geometry
		}

		if err != nil {
			if !isRecoverable(err) {
				return errors.Wrapf(err, "%s line %d", p.model.Name, p.line)
			}
			p.log.Warn("recoverable OBJ error",
				zap.Int("line", p.line),
				zap.ByteString("directive", keyword),
				zap.Error(err))
		}
		p.pos = SkipLine(p.buf, p.pos, &p.line)
	}
	return nil
}

func isRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedIndex) ||
		errors.Is(err, ErrEmptyFace) ||
		errors.Is(err, ErrMissingMaterial) ||
		errors.Is(err, ErrMissingMaterialFile)
}

func (p *objParser) readVec3() [3]float32 {
	var v [3]float32
	for i := range v {
		v[i], p.pos = ReadFloat(p.buf, p.pos)
	}
	return v
}

// readTexCoord reads a 1, 2 or 3 component texture coordinate. The
// component count is found by scanning the line before consuming it; only
// numeric words before a trailing comment count.
func (p *objParser) readTexCoord() error {
	count := 0
	for i := NextWord(p.buf, p.pos); !IsEnd(p.buf, i) && !IsLineEnd(p.buf[i]); i = NextWord(p.buf, i) {
		if p.buf[i] == '#' {
			break
		}
		end := WordEnd(p.buf, i)
		if _, n := ParseFloat(p.buf[i:end]); n > 0 {
			count++
		}
		i = end
	}
	if count < 1 || count > 3 {
		return errors.Wrapf(ErrInvalidComponentCount, "got %d", count)
	}

	var uv [3]float32
	for i := 0; i < count; i++ {
		uv[i], p.pos = ReadFloat(p.buf, p.pos)
	}
	if count == 3 {
		p.model.UVComponents = 3
	}
	p.model.TexCoords = append(p.model.TexCoords, uv)
	return nil
}

// parseFace parses the vertex references of an f, l or p line. Relative
// indices resolve against the pool sizes at this line.
func (p *objParser) parseFace(kind PrimitiveType) error {
	sizes := [3]int{len(p.model.Vertices), len(p.model.TexCoords), len(p.model.Normals)}
	face := Face{Type: kind}

	for p.pos = NextWord(p.buf, p.pos); !IsEnd(p.buf, p.pos) && !IsLineEnd(p.buf[p.pos]); p.pos = NextWord(p.buf, p.pos) {
		end := WordEnd(p.buf, p.pos)
		token := p.buf[p.pos:end]
		p.pos = end
		if token[0] == '#' {
			break
		}

		if kind == PrimitivePoint && bytes.IndexByte(token, '/') >= 0 {
			p.log.Warn("separator in point statement", zap.Int("line", p.line))
		}
		refs, err := parseFaceToken(token, sizes)
		if err != nil {
			return err
		}
		face.Vertices = append(face.Vertices, refs[0])
		face.TexCoords = append(face.TexCoords, refs[1])
		face.Normals = append(face.Normals, refs[2])
	}

	if len(face.Vertices) == 0 {
		return ErrEmptyFace
	}

	mat := p.material
	if mat == nil {
		mat = p.model.DefaultMaterial
	}
	face.Material = mat

	if p.object == NoIndex {
		p.object = p.model.AddObject(DefaultObjectName)
		p.mesh = NoIndex
	}
	mesh := p.meshFor(mat)
	id := p.model.AddFace(mesh, face)
	if p.groupActive {
		p.model.Groups[p.group] = append(p.model.Groups[p.group], id)
	}
	return nil
}

// parseFaceToken resolves one "v", "v/t", "v//n" or "v/t/n" token into
// 0-based position, texture coordinate and normal indices.
func parseFaceToken(token []byte, sizes [3]int) ([3]int, error) {
	refs := [3]int{NoIndex, NoIndex, NoIndex}
	slot := 0
	start := 0
	for i := 0; i <= len(token); i++ {
		if i < len(token) && token[i] != '/' {
			continue
		}
		if slot > 2 {
			return refs, errors.Wrapf(ErrMalformedIndex, "too many components in %q", token)
		}
		if field := token[start:i]; len(field) > 0 {
			idx, err := resolveIndex(field, sizes[slot])
			if err != nil {
				return refs, err
			}
			refs[slot] = idx
		}
		slot++
		start = i + 1
	}
	if refs[0] == NoIndex {
		return refs, errors.Wrapf(ErrMalformedIndex, "no vertex index in %q", token)
	}
	return refs, nil
}

// resolveIndex converts a 1-based or negative (relative) index literal
// into a 0-based index into a pool of the given size.
func resolveIndex(field []byte, size int) (int, error) {
	v, n := ParseInt(field)
	if n != len(field) || v == 0 {
		return NoIndex, errors.Wrapf(ErrMalformedIndex, "invalid index %q", field)
	}
	idx := int(v) - 1
	if v < 0 {
		idx = size + int(v)
	}
	if idx < 0 || idx >= size {
		return NoIndex, errors.Wrapf(ErrMalformedIndex, "index %d outside pool of %d", v, size)
	}
	return idx, nil
}

// meshFor returns the current mesh if it can hold faces of mat, starting a
// new mesh under the current object otherwise. A mesh never mixes
// materials.
func (p *objParser) meshFor(mat *Material) int {
	if p.mesh == NoIndex {
		p.mesh = p.model.AddMesh(p.object, p.model.Objects[p.object].Name, mat)
		return p.mesh
	}
	cur := &p.model.Meshes[p.mesh]
	if cur.Material == mat {
		return p.mesh
	}
	if len(cur.Faces) == 0 {
		cur.Material = mat
		return p.mesh
	}
	p.mesh = p.model.AddMesh(p.object, mat.Name, mat)
	return p.mesh
}

func (p *objParser) useMaterial() error {
	name, next := GetName(p.buf, p.pos)
	p.pos = next
	if name == "" {
		return nil
	}

	var err error
	mat, ok := p.model.Materials[name]
	if !ok {
		mat = p.model.DefaultMaterial
		err = errors.Wrapf(ErrMissingMaterial, "%q, using %s", name, mat.Name)
	}
	p.material = mat

	if p.object != NoIndex {
		p.meshFor(mat)
	}
	return err
}

func (p *objParser) loadMaterialLib() error {
	name, next := GetName(p.buf, p.pos)
	p.pos = next
	if name == "" {
		return nil
	}

	data, err := p.readFile(name)
	if err != nil && p.opts.MaterialFallback {
		fallback := strings.TrimSuffix(p.model.Name, filepath.Ext(p.model.Name)) + ".mtl"
		p.log.Info("opening fallback material library",
			zap.String("mtllib", name),
			zap.String("fallback", fallback))
		data, err = p.readFile(fallback)
	}
	if err != nil {
		return errors.Wrapf(ErrMissingMaterialFile, "%s: %v", name, err)
	}

	ParseMTL(data, p.model, p.log.With(zap.String("mtllib", name)))
	return nil
}

func (p *objParser) readFile(name string) ([]byte, error) {
	if p.opts.Files == nil {
		return nil, errors.New("no file reader configured")
	}
	return p.opts.Files.ReadFile(name)
}

// setGroup makes the named group active. Groups map onto objects of the
// same name.
func (p *objParser) setGroup() {
	name, next := GetName(p.buf, p.pos)
	p.pos = next
	if name == "" || (p.groupActive && name == p.group) {
		return
	}
	if _, ok := p.model.Groups[name]; !ok {
		p.model.Groups[name] = []int{}
	}
	p.group = name
	p.groupActive = true
	p.useObject(name)
}

func (p *objParser) setObject() {
	name, next := GetName(p.buf, p.pos)
	p.pos = next
	if name == "" {
		return
	}
	p.useObject(name)
}

// useObject makes the named object current, creating it if needed, and
// starts a fresh mesh under it.
func (p *objParser) useObject(name string) {
	id := p.model.FindObject(name)
	if id == NoIndex {
		id = p.model.AddObject(name)
	}
	p.object = id

	mat := p.material
	if mat == nil {
		mat = p.model.DefaultMaterial
	}
	p.mesh = p.model.AddMesh(id, name, mat)
}
