// MTL (Wavefront material library) parser.
package formats

import (
	"strings"

	"go.uber.org/zap"
)

// textureDirectives maps lowercased MTL texture keywords to their slot.
var textureDirectives = map[string]TextureType{
	"map_kd":       TextureDiffuse,
	"map_ka":       TextureAmbient,
	"map_ks":       TextureSpecular,
	"map_d":        TextureOpacity,
	"map_emissive": TextureEmissive,
	"map_ke":       TextureEmissive,
	"map_bump":     TextureBump,
	"bump":         TextureBump,
	"map_kn":       TextureNormal,
	"norm":         TextureNormal,
	"disp":         TextureDisplacement,
	"map_ns":       TextureSpecularity,
}

// textureOptionTokens is the number of tokens each texture option consumes,
// the option itself included. Unknown options consume only themselves.
var textureOptionTokens = map[string]int{
	"-blendu":  2,
	"-blendv":  2,
	"-boost":   2,
	"-texres":  2,
	"-bm":      2,
	"-imfchan": 2,
	"-type":    2,
	"-clamp":   2,
	"-mm":      3,
	"-o":       4,
	"-s":       4,
	"-t":       4,
}

type mtlParser struct {
	buf     []byte
	pos     int
	line    int
	model   *Model
	current *Material
	log     *zap.Logger
}

// ParseMTL parses a material library and merges its materials into model.
// Directives before the first newmtl apply to the default material. Nothing
// in a material library is fatal: unknown lines are skipped.
func ParseMTL(data []byte, model *Model, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	model.ensureDefaultMaterial()

	p := &mtlParser{
		buf:     data,
		line:    1,
		model:   model,
		current: model.DefaultMaterial,
		log:     log,
	}
	p.parse()
}

func (p *mtlParser) parse() {
	p.pos = NextWord(p.buf, 0)
	for !IsEnd(p.buf, p.pos) {
		end := WordEnd(p.buf, p.pos)
		keyword := strings.ToLower(string(p.buf[p.pos:end]))
		p.pos = end

		switch keyword {
		case "ka":
			p.current.Ambient = p.readColor()
		case "kd":
			p.current.Diffuse = p.readColor()
		case "ks":
			p.current.Specular = p.readColor()
		case "ke":
			p.current.Emissive = p.readColor()
		case "d":
			p.current.Alpha, p.pos = ReadFloat(p.buf, p.pos)
		case "ns":
			p.current.Shininess, p.pos = ReadFloat(p.buf, p.pos)
		case "ni":
			p.current.IOR, p.pos = ReadFloat(p.buf, p.pos)
		case "illum":
			p.readIllumination()
		case "newmtl":
			p.createMaterial()
		default:
			if slot, ok := textureDirectives[keyword]; ok {
				p.readTexture(slot)
			} else if strings.HasPrefix(keyword, "map_") {
				p.log.Error("unknown texture type in material library",
					zap.String("directive", keyword),
					zap.Int("line", p.line))
			}
		}
		p.pos = SkipLine(p.buf, p.pos, &p.line)
	}
}

// readColor reads up to three components. Components missing from the
// line stay at 0.
func (p *mtlParser) readColor() [3]float32 {
	var c [3]float32
	for i := range c {
		p.pos = NextWord(p.buf, p.pos)
		if IsEnd(p.buf, p.pos) || IsLineEnd(p.buf[p.pos]) {
			break
		}
		c[i], p.pos = ReadFloat(p.buf, p.pos)
	}
	return c
}

func (p *mtlParser) readIllumination() {
	p.pos = NextWord(p.buf, p.pos)
	end := WordEnd(p.buf, p.pos)
	v, _ := ParseInt(p.buf[p.pos:end])
	p.current.IlluminationModel = int(v)
	p.pos = end
}

func (p *mtlParser) createMaterial() {
	name, next := GetName(p.buf, p.pos)
	p.pos = next
	if name == "" {
		name = DefaultMaterialName
	}
	if mat, ok := p.model.Materials[name]; ok {
		p.current = mat
		return
	}
	p.current = p.model.AddMaterial(NewMaterial(name))
}

func (p *mtlParser) readTexture(slot TextureType) {
	clamp := p.readTextureOptions()
	name, next := GetName(p.buf, p.pos)
	p.pos = next
	p.current.Textures[slot] = TextureSlot{File: name, Clamp: clamp}
}

// readTextureOptions consumes any "-option value..." tokens in front of the
// texture file name and reports whether -clamp on was among them.
func (p *mtlParser) readTextureOptions() bool {
	clamp := false
	p.pos = NextWord(p.buf, p.pos)
	for !IsEnd(p.buf, p.pos) && p.buf[p.pos] == '-' {
		end := WordEnd(p.buf, p.pos)
		option := strings.ToLower(string(p.buf[p.pos:end]))

		skip, ok := textureOptionTokens[option]
		if !ok {
			skip = 1
		}
		if option == "-clamp" {
			var value [2]byte
			n, _ := CopyWord(value[:], p.buf, end)
			clamp = strings.EqualFold(string(value[:n]), "on")
		}
		for i := 0; i < skip; i++ {
			p.pos = NextToken(p.buf, p.pos)
		}
	}
	return clamp
}
