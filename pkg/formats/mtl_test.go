package formats

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func parseMTLString(t *testing.T, src string) (*Model, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	model := NewModel("test.obj")
	ParseMTL([]byte(src), model, zap.New(core))
	return model, logs
}

func TestParseMTL_Material(t *testing.T) {
	src := `# exported
newmtl red
Ka 0.1 0.2 0.3
Kd 1 0 0
Ks 0.5 0.5 0.5
Ke 0 0 0.25
d 0.5
Ns 10
Ni 1.45
illum 2
`
	model, _ := parseMTLString(t, src)

	require.Equal(t, []string{DefaultMaterialName, "red"}, model.MaterialLib)
	red := model.Materials["red"]
	require.NotNil(t, red)

	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, red.Ambient)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, red.Diffuse)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, red.Specular)
	assert.Equal(t, mgl32.Vec3{0, 0, 0.25}, red.Emissive)
	assert.Equal(t, float32(0.5), red.Alpha)
	assert.Equal(t, float32(10), red.Shininess)
	assert.InDelta(t, 1.45, red.IOR, 1e-6)
	assert.Equal(t, 2, red.IlluminationModel)
}

func TestParseMTL_PartialColor(t *testing.T) {
	model, _ := parseMTLString(t, "newmtl m\nKd 0.5\nKa 0.25 0.75\n")
	m := model.Materials["m"]
	require.NotNil(t, m)
	assert.Equal(t, mgl32.Vec3{0.5, 0, 0}, m.Diffuse)
	assert.Equal(t, mgl32.Vec3{0.25, 0.75, 0}, m.Ambient)
}

func TestParseMTL_DirectivesBeforeNewmtl(t *testing.T) {
	model, _ := parseMTLString(t, "Kd 0.1 0.1 0.1\nnewmtl a\n")
	assert.Equal(t, mgl32.Vec3{0.1, 0.1, 0.1}, model.DefaultMaterial.Diffuse)
	assert.Equal(t, mgl32.Vec3{0.6, 0.6, 0.6}, model.Materials["a"].Diffuse)
}

func TestParseMTL_NewmtlReuse(t *testing.T) {
	model, _ := parseMTLString(t, "newmtl a\nKd 1 1 1\nnewmtl b\nnewmtl a\nd 0.25\n")
	require.Len(t, model.MaterialLib, 3)
	a := model.Materials["a"]
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, a.Diffuse)
	assert.Equal(t, float32(0.25), a.Alpha)
}

func TestParseMTL_EmptyNewmtlSelectsDefault(t *testing.T) {
	model, _ := parseMTLString(t, "newmtl x\nnewmtl\nNs 7\n")
	assert.Equal(t, float32(7), model.DefaultMaterial.Shininess)
	assert.Equal(t, float32(0), model.Materials["x"].Shininess)
}

func TestParseMTL_Textures(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		slot      TextureType
		wantFile  string
		wantClamp bool
	}{
		{"diffuse", "map_Kd diffuse.png", TextureDiffuse, "diffuse.png", false},
		{"ambient", "map_Ka amb.tga", TextureAmbient, "amb.tga", false},
		{"specular", "map_Ks spec.png", TextureSpecular, "spec.png", false},
		{"opacity", "map_d alpha.png", TextureOpacity, "alpha.png", false},
		{"emissive", "map_emissive glow.png", TextureEmissive, "glow.png", false},
		{"emissive ke", "map_Ke glow.png", TextureEmissive, "glow.png", false},
		{"bump", "map_bump b.png", TextureBump, "b.png", false},
		{"bump mixed case", "map_Bump b.png", TextureBump, "b.png", false},
		{"bump short", "bump b.png", TextureBump, "b.png", false},
		{"normal", "map_Kn n.png", TextureNormal, "n.png", false},
		{"displacement", "disp d.png", TextureDisplacement, "d.png", false},
		{"specularity", "map_ns s.png", TextureSpecularity, "s.png", false},
		{"upper case", "MAP_KD -CLAMP ON tex.png", TextureDiffuse, "tex.png", true},
		{"clamp on", "map_Kd -clamp on tex.png", TextureDiffuse, "tex.png", true},
		{"clamp off", "map_Kd -clamp off tex.png", TextureDiffuse, "tex.png", false},
		{"options", "map_Kd -o 1 2 3 -bm 0.5 -clamp on -mm 0 1 tex.png", TextureDiffuse, "tex.png", true},
		{"name with spaces", "map_Kd -blendu on my texture.png", TextureDiffuse, "my texture.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := parseMTLString(t, "newmtl m\n"+tt.line+"\n")
			got := model.Materials["m"].Textures[tt.slot]
			assert.Equal(t, tt.wantFile, got.File)
			assert.Equal(t, tt.wantClamp, got.Clamp)
		})
	}
}

func TestParseMTL_UnknownTextureDirective(t *testing.T) {
	model, logs := parseMTLString(t, "newmtl m\nmap_foo x.png\n")

	for _, slot := range model.Materials["m"].Textures {
		assert.Empty(t, slot.File)
	}
	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "map_foo", entries[0].ContextMap()["directive"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["line"])
}

func TestParseMTL_CRLF(t *testing.T) {
	model, _ := parseMTLString(t, "newmtl a\r\nKd 0 1 0\r\nnewmtl b\r\n")
	assert.Equal(t, []string{DefaultMaterialName, "a", "b"}, model.MaterialLib)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, model.Materials["a"].Diffuse)
}
