// Package importer runs the OBJ import pipeline: read, parse, build.
package importer

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/objscene/pkg/formats"
	"github.com/Faultbox/objscene/pkg/scene"
)

// Options controls an import.
type Options struct {
	// MaterialFallback retries a missing mtllib as "<model>.mtl".
	MaterialFallback bool
	// PointCloud turns face-less files into a point mesh.
	PointCloud bool
}

// DefaultOptions returns the default import options.
func DefaultOptions() Options {
	return Options{PointCloud: true}
}

// Importer imports OBJ files through a FileReader. An Importer holds no
// per-import state and may be shared between goroutines as long as its
// FileReader is safe for concurrent use.
type Importer struct {
	files formats.FileReader
	log   *zap.Logger
	opts  Options
}

// New creates an importer. A nil files reads from the working directory,
// a nil log discards diagnostics.
func New(files formats.FileReader, log *zap.Logger, opts Options) *Importer {
	if files == nil {
		files = formats.OSFiles{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{files: files, log: log, opts: opts}
}

// Import reads the OBJ file at path and builds its Scene. Recoverable
// problems are logged; any fatal error aborts the import and no Scene is
// returned.
func (im *Importer) Import(path string) (*scene.Scene, error) {
	log := im.log.With(
		zap.String("import", uuid.NewString()),
		zap.String("path", path))
	log.Debug("importing")

	model, err := formats.ParseOBJFile(path, formats.OBJOptions{
		Files:            im.files,
		Logger:           log,
		MaterialFallback: im.opts.MaterialFallback,
	})
	if err != nil {
		log.Error("import failed", zap.Error(err))
		return nil, err
	}

	s, err := scene.Build(model, scene.BuildOptions{PointCloud: im.opts.PointCloud}, log)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		return nil, err
	}

	st := s.Stats()
	log.Info("import complete",
		zap.Int("meshes", st.Meshes),
		zap.Int("faces", st.Faces),
		zap.Int("vertices", st.Vertices),
		zap.Int("materials", st.Materials))
	return s, nil
}

// Import imports path from the working directory with default options.
func Import(path string, log *zap.Logger) (*scene.Scene, error) {
	return New(nil, log, DefaultOptions()).Import(path)
}
