package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/objscene/pkg/formats"
)

// shininessScale is applied to MTL Ns values on export.
const shininessScale = 4

// textureExport maps library texture slots to scene texture types, in
// export order.
var textureExport = []struct {
	slot formats.TextureType
	typ  TextureType
}{
	{formats.TextureDiffuse, TextureDiffuse},
	{formats.TextureAmbient, TextureAmbient},
	{formats.TextureEmissive, TextureEmissive},
	{formats.TextureSpecular, TextureSpecular},
	{formats.TextureBump, TextureHeight},
	{formats.TextureNormal, TextureNormals},
	{formats.TextureDisplacement, TextureDisplacement},
	{formats.TextureOpacity, TextureOpacity},
	{formats.TextureSpecularity, TextureShininess},
}

// exportMaterials converts the model's materials in library order.
func (b *builder) exportMaterials() ([]*Material, error) {
	out := make([]*Material, 0, len(b.model.MaterialLib))
	for _, name := range b.model.MaterialLib {
		mat, ok := b.model.Materials[name]
		if !ok {
			b.log.Warn("material library entry has no material",
				zap.String("material", name))
			continue
		}
		out = append(out, b.exportMaterial(mat))
	}

	if len(out) != len(b.model.MaterialLib) {
		return nil, errors.Wrapf(ErrMaterialCountMismatch, "exported %d of %d",
			len(out), len(b.model.MaterialLib))
	}
	return out, nil
}

func (b *builder) exportMaterial(src *formats.Material) *Material {
	m := &Material{
		Name:            src.Name,
		ShadingModel:    b.shadingModel(src),
		Ambient:         src.Ambient,
		Diffuse:         src.Diffuse,
		Specular:        src.Specular,
		Emissive:        src.Emissive,
		Shininess:       src.Shininess * shininessScale,
		Opacity:         src.Alpha,
		RefractionIndex: src.IOR,
	}
	for _, te := range textureExport {
		slot := src.Textures[te.slot]
		if slot.File == "" {
			continue
		}
		m.Textures = append(m.Textures, Texture{
			Type:  te.typ,
			Path:  slot.File,
			Clamp: slot.Clamp,
		})
	}
	return m
}

func (b *builder) shadingModel(src *formats.Material) ShadingModel {
	switch src.IlluminationModel {
	case 0:
		return ShadingNone
	case 1:
		return ShadingGouraud
	case 2:
		return ShadingPhong
	default:
		b.log.Warn("unexpected illumination model, using gouraud",
			zap.String("material", src.Name),
			zap.Int("illum", src.IlluminationModel))
		return ShadingGouraud
	}
}
