package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/config"
	"github.com/Faultbox/objscene/pkg/formats"
	"github.com/Faultbox/objscene/pkg/scene"
)

func (a *app) cmdInfo(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: objtool info <model.obj>")
	}

	s, err := a.importer.Import(args[0])
	if err != nil {
		return err
	}
	printInfo(os.Stdout, args[0], s)
	return nil
}

func printInfo(w io.Writer, path string, s *scene.Scene) {
	st := s.Stats()
	fmt.Fprintf(w, "Model:     %s\n", path)
	fmt.Fprintf(w, "Nodes:     %d\n", st.Nodes)
	fmt.Fprintf(w, "Meshes:    %d\n", st.Meshes)
	fmt.Fprintf(w, "Faces:     %d\n", st.Faces)
	fmt.Fprintf(w, "Vertices:  %d\n", st.Vertices)
	fmt.Fprintf(w, "Materials: %d\n", st.Materials)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Nodes:")
	s.Walk(func(n *scene.Node, depth int) {
		fmt.Fprintf(w, "  %s%s", strings.Repeat("  ", depth), n.Name)
		if len(n.Meshes) > 0 {
			fmt.Fprintf(w, " meshes=%v", n.Meshes)
		}
		fmt.Fprintln(w)
	})

	if len(s.Meshes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Meshes:")
		for i, m := range s.Meshes {
			mat := "?"
			if m.MaterialIndex < len(s.Materials) {
				mat = s.Materials[m.MaterialIndex].Name
			}
			fmt.Fprintf(w, "  [%d] %-16s %-24s faces=%-6d vertices=%-6d material=%s\n",
				i, m.Name, m.PrimitiveTypes, len(m.Faces), m.NumVertices, mat)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Materials:")
	for i, m := range s.Materials {
		fmt.Fprintf(w, "  [%d] %-16s shading=%-8s opacity=%.2f", i, m.Name, m.ShadingModel, m.Opacity)
		for _, t := range m.Textures {
			fmt.Fprintf(w, " %s=%s", t.Type, t.Path)
		}
		fmt.Fprintln(w)
	}
}

func newSpewConfig() *spew.ConfigState {
	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.SortKeys = true
	return cfg
}

func (a *app) cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	model := fs.Bool("model", false, "Dump the parsed model instead of the scene")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: objtool dump [-model] <model.obj>")
	}
	path := fs.Arg(0)

	var v interface{}
	if *model {
		m, err := formats.ParseOBJFile(path, formats.OBJOptions{
			Files:            a.files,
			Logger:           a.log,
			MaterialFallback: a.cfg.Import.MaterialFallback,
		})
		if err != nil {
			return err
		}
		v = m
	} else {
		s, err := a.importer.Import(path)
		if err != nil {
			return err
		}
		v = s
	}

	newSpewConfig().Fdump(os.Stdout, v)
	return nil
}

func (a *app) cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	binary := fs.Bool("binary", a.cfg.Export.Binary, "Write GLB instead of glTF JSON")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: objtool convert [-binary] <model.obj> [output]")
	}
	input := fs.Arg(0)

	output := fs.Arg(1)
	if output == "" {
		ext := ".gltf"
		if *binary {
			ext = ".glb"
		}
		base := filepath.Base(input)
		output = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	}

	s, err := a.importer.Import(input)
	if err != nil {
		return err
	}

	if output == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := scene.WriteGLTF(w, s, *binary, a.log); err != nil {
			return err
		}
		return w.Flush()
	}

	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	if err := scene.WriteGLTF(f, s, *binary, a.log); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing output")
	}

	a.log.Info("converted", zap.String("input", input), zap.String("output", output))
	return nil
}

// cmdInitConfig writes the default configuration, to the user config
// directory unless a path is given.
func cmdInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	force := fs.Bool("f", false, "Overwrite an existing file")
	fs.Parse(args)

	cfg := config.Default()
	path := fs.Arg(0)
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return errors.Errorf("%s already exists (use -f to overwrite)", path)
	}
	save := cfg.Save
	if fs.Arg(0) != "" {
		save = func() error { return cfg.SaveTo(path) }
	}
	if err := save(); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
