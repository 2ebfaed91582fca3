package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"

	"github.com/Faultbox/objscene/internal/assets"
	"github.com/Faultbox/objscene/internal/logger"
	"github.com/Faultbox/objscene/pkg/formats"
	"github.com/Faultbox/objscene/pkg/scene"
)

// modelSummary is the JSON body of /api/stats.
type modelSummary struct {
	Path      string        `json:"path"`
	Stats     scene.Stats   `json:"stats"`
	Meshes    []meshSummary `json:"meshes"`
	Materials []string      `json:"materials"`
}

type meshSummary struct {
	Name       string `json:"name"`
	Primitives string `json:"primitives"`
	Faces      int    `json:"faces"`
	Vertices   int    `json:"vertices"`
	Material   int    `json:"material"`
}

func summarize(p string, s *scene.Scene) modelSummary {
	sum := modelSummary{Path: p, Stats: s.Stats()}
	for _, m := range s.Meshes {
		sum.Meshes = append(sum.Meshes, meshSummary{
			Name:       m.Name,
			Primitives: m.PrimitiveTypes.String(),
			Faces:      len(m.Faces),
			Vertices:   m.NumVertices,
			Material:   m.MaterialIndex,
		})
	}
	for _, m := range s.Materials {
		sum.Materials = append(sum.Materials, m.Name)
	}
	return sum
}

func (a *app) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats/{file:.+}", a.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/gltf/{file:.+}", a.handleGLTF).Methods(http.MethodGet)
	api.HandleFunc("/cache", a.handleCache).Methods(http.MethodGet)
	return r
}

func (a *app) handler() http.Handler {
	var h http.Handler = a.router()
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger.StdLog("http")),
		handlers.PrintRecoveryStack(true),
	)(h)
	access := &zapio.Writer{Log: logger.Named("http"), Level: zapcore.InfoLevel}
	h = handlers.LoggingHandler(access, h)
	return handlers.CompressHandler(h)
}

func (a *app) cmdServe(args []string) error {
	if a.cfg.Import.Watch {
		if err := a.files.Watch(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
		ErrorLog:     logger.StdLog("http"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		a.log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("root", a.cfg.Import.Root),
			zap.Bool("watch", a.cfg.Import.Watch))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) importFile(w http.ResponseWriter, r *http.Request) (string, *scene.Scene, bool) {
	file := mux.Vars(r)["file"]
	s, err := a.importer.Import(file)
	if err != nil {
		writeError(w, err)
		return file, nil, false
	}
	return file, s, true
}

func (a *app) handleStats(w http.ResponseWriter, r *http.Request) {
	file, s, ok := a.importFile(w, r)
	if !ok {
		return
	}
	writeJSON(w, summarize(file, s))
}

func (a *app) handleGLTF(w http.ResponseWriter, r *http.Request) {
	file, s, ok := a.importFile(w, r)
	if !ok {
		return
	}

	binary := a.cfg.Export.Binary
	switch r.URL.Query().Get("format") {
	case "glb":
		binary = true
	case "gltf":
		binary = false
	}

	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	if binary {
		w.Header().Set("Content-Type", "model/gltf-binary")
		name += ".glb"
	} else {
		w.Header().Set("Content-Type", "model/gltf+json")
		name += ".gltf"
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	if err := scene.WriteGLTF(w, s, binary, a.log); err != nil {
		a.log.Error("writing glTF", zap.String("file", file), zap.Error(err))
	}
}

func (a *app) handleCache(w http.ResponseWriter, r *http.Request) {
	hits, misses := a.files.Stats()
	writeJSON(w, map[string]int{"hits": hits, "misses": misses})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, errors.Wrap(err, "marshal"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// writeError maps import errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assets.ErrNotFound), errors.Is(err, formats.ErrReadFailure):
		status = http.StatusNotFound
	case errors.Is(err, formats.ErrOBJTooSmall),
		errors.Is(err, formats.ErrInvalidComponentCount),
		errors.Is(err, scene.ErrInvalidModelName),
		errors.Is(err, scene.ErrMaterialCountMismatch):
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
