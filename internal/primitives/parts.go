package primitives

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

// PartsPath is the default parts file, relative to the working directory.
const PartsPath = "assets/parts.yaml"

var ErrInvalidPart = errors.New("invalid part definition")

// PartDef is the YAML definition of one product part (e.g. assets/parts.yaml).
// Type is "box" or "sphere"; for a sphere only Size[0] is used, as the diameter.
type PartDef struct {
	Label    string     `yaml:"label"`
	Type     string     `yaml:"type"`
	Size     [3]float32 `yaml:"size,omitempty"`
	Position [3]float32 `yaml:"position,omitempty"`
	Color    string     `yaml:"color,omitempty"`
}

type partsFile struct {
	Parts []PartDef `yaml:"parts"`
}

// DefaultParts is a four-piece mandoline laid out side by side.
func DefaultParts() []PartDef {
	return []PartDef{
		{Label: "blade", Type: "box", Size: [3]float32{0.6, 0.02, 0.25}, Position: [3]float32{-0.9, 0.2, 0}, Color: "#c0c8d0"},
		{Label: "frame", Type: "box", Size: [3]float32{0.4, 0.08, 1.0}, Position: [3]float32{-0.3, 0.2, 0}, Color: "#3a7bd5"},
		{Label: "handguard", Type: "box", Size: [3]float32{0.3, 0.15, 0.3}, Position: [3]float32{0.3, 0.2, 0}, Color: "#f5a623"},
		{Label: "handle", Type: "sphere", Size: [3]float32{0.3, 0.3, 0.3}, Position: [3]float32{0.9, 0.2, 0}, Color: "#2d2d2d"},
	}
}

// LoadParts reads part definitions from path. A missing file returns DefaultParts.
func LoadParts(path string) ([]PartDef, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultParts(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f partsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range f.Parts {
		if _, err := p.Shape(); err != nil {
			return nil, fmt.Errorf("%s part %d: %w", path, i, err)
		}
	}
	return f.Parts, nil
}

// Shape returns the collision shape of the part. Zero sizes default to 1.
func (p PartDef) Shape() (scenegraph.Shape, error) {
	size := rl.NewVector3(orOne(p.Size[0]), orOne(p.Size[1]), orOne(p.Size[2]))
	switch strings.ToLower(p.Type) {
	case "box", "cube":
		return scenegraph.Box(size), nil
	case "sphere":
		return scenegraph.Sphere(size.X / 2), nil
	default:
		return scenegraph.Shape{}, fmt.Errorf("%w: type %q", ErrInvalidPart, p.Type)
	}
}

// Pose returns the part's initial pose.
func (p PartDef) Pose() pose.Pose {
	return pose.At(rl.NewVector3(p.Position[0], p.Position[1], p.Position[2]))
}

// Tint parses Color ("#rrggbb"); anything else is the default grey.
func (p PartDef) Tint() color.RGBA {
	s := strings.TrimPrefix(p.Color, "#")
	if len(s) != 6 {
		return defaultPrimitiveColor
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return defaultPrimitiveColor
	}
	return rl.NewColor(uint8(v>>16), uint8(v>>8), uint8(v), 255)
}

func orOne(v float32) float32 {
	if v == 0 {
		return 1
	}
	return v
}
