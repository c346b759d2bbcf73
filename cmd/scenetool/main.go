// scenetool is a CLI utility for inspecting and patching scene files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/scenepack/internal/assets"
	"github.com/Faultbox/scenepack/pkg/encoding"
	"github.com/Faultbox/scenepack/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "materials", "mat":
		cmdMaterials(args)
	case "values":
		cmdValues(args)
	case "extract", "x":
		cmdExtract(args)
	case "patch":
		cmdPatch(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - scene file utility

Usage:
  scenetool <command> [options]

Commands:
  info <scene.bin>                     Show record counts and mesh bounds
  materials <scene.bin>                List materials and their properties
  values <scene.bin> [type]            Dump value pools (bool|int|float|string)
  extract <scene.bin> [output] [glob]  Extract embedded files
  patch [options] <scene.bin>          Run extensions and write the patched scene
  config [-save]                       Print (or save) the effective config

Examples:
  scenetool info robot.bin
  scenetool materials robot.bin
  scenetool extract robot.bin ./textures "*.png"
  scenetool patch -input robot.gltf -search "textures/**" -o robot.patched.bin robot.bin`)
}

// openScene reads and opens a scene file, exiting on failure.
func openScene(path string) scene.SceneView {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	v, err := scene.Open(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
		os.Exit(1)
	}
	return v
}

// name resolves a string value id for display.
func name(v scene.SceneView, id scene.ValueID) string {
	if id.Type() != scene.ValueString {
		return id.String()
	}
	raw, err := v.StringValueBytes(id.Index())
	if err != nil {
		return id.String()
	}
	return encoding.DecodeText(raw)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool info <scene.bin>")
		os.Exit(1)
	}

	v := openScene(args[0])

	fmt.Printf("Scene:   %s\n", args[0])
	fmt.Printf("Version: %d\n", v.Version())
	fmt.Printf("Size:    %.2f KB\n", float64(len(v.Bytes()))/1024)
	fmt.Println()

	counts := []struct {
		label string
		n     int
	}{
		{"transforms", v.TransformsLength()},
		{"transform limits", v.TransformLimitsLength()},
		{"nodes", v.NodesLength()},
		{"meshes", v.MeshesLength()},
		{"anim stacks", v.AnimStacksLength()},
		{"anim layers", v.AnimLayersLength()},
		{"anim curves", v.AnimCurvesLength()},
		{"materials", v.MaterialsLength()},
		{"textures", v.TexturesLength()},
		{"cameras", v.CamerasLength()},
		{"lights", v.LightsLength()},
		{"skins", v.SkinsLength()},
		{"files", v.FilesLength()},
		{"bool values", v.BoolValuesLength()},
		{"int values", v.IntValuesLength()},
		{"float values", v.FloatValuesLength()},
		{"string values", v.StringValuesLength()},
	}
	for _, c := range counts {
		if c.n > 0 {
			fmt.Printf("  %-18s %d\n", c.label, c.n)
		}
	}

	meshes, all, err := meshBounds(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading meshes: %v\n", err)
		return
	}
	if len(meshes) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Bounds:  %s\n", all)
	for _, b := range meshes {
		fmt.Printf("  mesh %-13d %s\n", b.mesh, b)
	}
}

type bounds struct {
	mesh   int
	lo, hi mgl32.Vec3
}

func (b bounds) String() string {
	return fmt.Sprintf("min (%g, %g, %g) max (%g, %g, %g)", b.lo[0], b.lo[1], b.lo[2], b.hi[0], b.hi[1], b.hi[2])
}

// meshBounds returns the bounds of every mesh that has submeshes, and their
// union. The union has mesh -1.
func meshBounds(v scene.SceneView) ([]bounds, bounds, error) {
	var per []bounds
	var boxes []scene.Submesh
	for i := 0; i < v.MeshesLength(); i++ {
		m, err := v.Meshes(i)
		if err != nil {
			return nil, bounds{}, err
		}
		subs, err := m.Submeshes()
		if err != nil {
			return nil, bounds{}, fmt.Errorf("mesh %d: %w", i, err)
		}
		if subs.Len() == 0 {
			continue
		}
		list := make([]scene.Submesh, 0, subs.Len())
		for j := 0; j < subs.Len(); j++ {
			s, err := subs.At(j)
			if err != nil {
				return nil, bounds{}, fmt.Errorf("mesh %d: %w", i, err)
			}
			list = append(list, s)
		}
		lo, hi := scene.Bounds(list)
		per = append(per, bounds{mesh: i, lo: lo, hi: hi})
		boxes = append(boxes, scene.Submesh{BBoxMin: lo, BBoxMax: hi})
	}
	all := bounds{mesh: -1}
	all.lo, all.hi = scene.Bounds(boxes)
	return per, all, nil
}

func cmdMaterials(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool materials <scene.bin>")
		os.Exit(1)
	}

	v := openScene(args[0])
	for i := 0; i < v.MaterialsLength(); i++ {
		m, err := v.Materials(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading material %d: %v\n", i, err)
			continue
		}
		fmt.Printf("[%d] id=%d %s\n", i, m.ID(), name(v, m.NameID()))

		props, err := m.Properties()
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error reading properties: %v\n", err)
		}
		for j := 0; j < props.Len(); j++ {
			p, err := props.At(j)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
				continue
			}
			val, err := scene.Resolve(p.ValueID, v)
			if err != nil {
				fmt.Printf("  %-26s <%v>\n", name(v, p.NameID), err)
				continue
			}
			fmt.Printf("  %-26s %s\n", name(v, p.NameID), scene.FormatValue(val))
		}

		texProps, err := m.TextureProperties()
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error reading texture properties: %v\n", err)
		}
		for j := 0; j < texProps.Len(); j++ {
			p, err := texProps.At(j)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
				continue
			}
			fmt.Printf("  %-26s texture %d%s\n", name(v, p.NameID), uint32(p.ValueID), textureFile(v, uint32(p.ValueID)))
		}
	}
}

func textureFile(v scene.SceneView, i uint32) string {
	t, err := v.Textures(int(i))
	if err != nil {
		return " (missing)"
	}
	f, err := v.Files(int(t.FileID))
	if err != nil {
		return ""
	}
	data, err := f.Buffer()
	if err != nil {
		return " -> " + name(v, f.NameID())
	}
	mime, _ := assets.Kind(data)
	return fmt.Sprintf(" -> %s (%s)", name(v, f.NameID()), mime)
}

func cmdValues(args []string) {
	fs := flag.NewFlagSet("values", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N entries per pool (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool values <scene.bin> [bool|int|float|string]")
		os.Exit(1)
	}

	v := openScene(fs.Arg(0))
	only := strings.ToLower(fs.Arg(1))

	dump := func(kind string, n int, at func(int) string) {
		if only != "" && only != kind {
			return
		}
		fmt.Printf("%s values (%d):\n", kind, n)
		for i := 0; i < n; i++ {
			if *limit > 0 && i >= *limit {
				fmt.Printf("  ... %d more\n", n-i)
				break
			}
			fmt.Printf("  %4d  %s\n", i, at(i))
		}
	}

	dump("bool", v.BoolValuesLength(), func(i int) string {
		b, err := v.BoolValues(i)
		return formatOrErr(fmt.Sprint(b), err)
	})
	dump("int", v.IntValuesLength(), func(i int) string {
		n, err := v.IntValues(i)
		return formatOrErr(fmt.Sprint(n), err)
	})
	dump("float", v.FloatValuesLength(), func(i int) string {
		f, err := v.FloatValues(i)
		return formatOrErr(fmt.Sprintf("%g", f), err)
	})
	dump("string", v.StringValuesLength(), func(i int) string {
		raw, err := v.StringValueBytes(i)
		return formatOrErr(fmt.Sprintf("%q", encoding.DecodeText(raw)), err)
	})
}

func formatOrErr(s string, err error) string {
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool extract <scene.bin> [output_dir] [pattern]")
		os.Exit(1)
	}

	v := openScene(fs.Arg(0))
	outputDir := "."
	if fs.NArg() > 1 {
		outputDir = fs.Arg(1)
	}
	pattern := strings.ToLower(fs.Arg(2))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	extracted := 0
	for i := 0; i < v.FilesLength(); i++ {
		f, err := v.Files(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file %d: %v\n", i, err)
			continue
		}

		base := filepath.Base(encoding.NormalizePath(name(v, f.NameID())))
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(base))
			if !matched {
				continue
			}
		}

		data, err := f.Buffer()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", base, err)
			continue
		}

		outputPath := filepath.Join(outputDir, extractName(f.ID(), base, data))
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
			continue
		}

		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
}

// extractName is the file name an embedded file is written under. The id
// keeps names unique when two files share a base name, and files stored
// without an extension get the one matching their content.
func extractName(id uint32, base string, data []byte) string {
	if filepath.Ext(base) == "" {
		if _, ext := assets.Kind(data); ext != "" {
			base += "." + ext
		}
	}
	return fmt.Sprintf("%d_%s", id, base)
}
