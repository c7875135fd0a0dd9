package primitives

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

// Renderer draws scene graph shapes as unit meshes scaled to size, shaded with hemisphere
// ambient plus one directional light. GPU resources are created on first Draw, after the
// window exists.
type Renderer struct {
	meshes   map[scenegraph.ShapeKind]rl.Mesh
	mtl      rl.Material
	loaded   bool
	locs     uniforms
	viewPos  rl.Vector3
	lightDir rl.Vector3 // towards the light, normalized
}

type uniforms struct {
	viewPos, lightDir, sky, ground, rim int32
}

// NewRenderer returns a renderer with nothing loaded yet.
func NewRenderer() *Renderer {
	return &Renderer{
		meshes:   make(map[scenegraph.ShapeKind]rl.Mesh),
		lightDir: rl.Vector3Normalize(rl.NewVector3(0.5, 1, 0.5)),
	}
}

// SetView sets the camera position and the light's travel direction for this frame.
func (r *Renderer) SetView(viewPos, lightDir rl.Vector3) {
	r.viewPos = viewPos
	r.lightDir = rl.Vector3Normalize(rl.Vector3Negate(lightDir))
}

// defaultPrimitiveColor is the albedo tint for parts without a color.
var defaultPrimitiveColor = rl.NewColor(128, 128, 128, 255)

const (
	sphereRings  = 16
	sphereSlices = 16
	rimStrength  = 0.25
)

var (
	skyColor    = []float32{0.34, 0.36, 0.40}
	groundColor = []float32{0.16, 0.15, 0.14}
)

func (r *Renderer) load() {
	r.loaded = true
	r.mtl = rl.LoadMaterialDefault()
	shader := rl.LoadShaderFromMemory(shadedVS, shadedFS)
	if !rl.IsShaderValid(shader) {
		return
	}
	r.mtl.Shader = shader
	r.locs = uniforms{
		viewPos:  rl.GetShaderLocation(shader, "viewPos"),
		lightDir: rl.GetShaderLocation(shader, "lightDir"),
		sky:      rl.GetShaderLocation(shader, "skyColor"),
		ground:   rl.GetShaderLocation(shader, "groundColor"),
		rim:      rl.GetShaderLocation(shader, "rimStrength"),
	}
	rl.SetShaderValue(shader, r.locs.sky, skyColor, rl.ShaderUniformVec3)
	rl.SetShaderValue(shader, r.locs.ground, groundColor, rl.ShaderUniformVec3)
	rl.SetShaderValue(shader, r.locs.rim, []float32{rimStrength}, rl.ShaderUniformFloat)
}

func (r *Renderer) mesh(kind scenegraph.ShapeKind) (rl.Mesh, bool) {
	if m, ok := r.meshes[kind]; ok {
		return m, true
	}
	var m rl.Mesh
	switch kind {
	case scenegraph.ShapeBox:
		m = rl.GenMeshCube(1, 1, 1)
	case scenegraph.ShapeSphere:
		m = rl.GenMeshSphere(1, sphereRings, sphereSlices)
	default:
		return rl.Mesh{}, false
	}
	r.meshes[kind] = m
	return m, true
}

// Draw draws shape at world with the given tint. Must be called between BeginMode3D and
// EndMode3D. Shapes without geometry are skipped.
func (r *Renderer) Draw(shape scenegraph.Shape, world pose.Pose, tint color.RGBA) {
	if !r.loaded {
		r.load()
	}
	m, ok := r.mesh(shape.Kind)
	if !ok {
		return
	}
	if albedo := r.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = tint
	}
	if rl.IsShaderValid(r.mtl.Shader) {
		rl.SetShaderValue(r.mtl.Shader, r.locs.viewPos, []float32{r.viewPos.X, r.viewPos.Y, r.viewPos.Z}, rl.ShaderUniformVec3)
		rl.SetShaderValue(r.mtl.Shader, r.locs.lightDir, []float32{r.lightDir.X, r.lightDir.Y, r.lightDir.Z}, rl.ShaderUniformVec3)
	}
	rl.DrawMesh(m, r.mtl, ModelMatrix(shape, world))
}

// ModelMatrix scales the unit mesh of shape to its size, then applies world.
func ModelMatrix(shape scenegraph.Shape, world pose.Pose) rl.Matrix {
	var size rl.Vector3
	switch shape.Kind {
	case scenegraph.ShapeBox:
		size = rl.Vector3Scale(shape.HalfExtents, 2)
	case scenegraph.ShapeSphere:
		size = rl.NewVector3(shape.Radius, shape.Radius, shape.Radius)
	default:
		size = rl.Vector3One()
	}
	return rl.MatrixMultiply(rl.MatrixScale(size.X, size.Y, size.Z), world.Matrix())
}

// Unload frees the meshes and the shared material.
func (r *Renderer) Unload() {
	for kind, m := range r.meshes {
		rl.UnloadMesh(&m)
		delete(r.meshes, kind)
	}
	if r.loaded {
		rl.UnloadMaterial(r.mtl)
		r.loaded = false
	}
}

const (
	shadedVS = `#version 330
in vec3 vertexPosition;
in vec3 vertexNormal;
uniform mat4 mvp;
uniform mat4 matModel;
uniform mat4 matNormal;
out vec3 worldPos;
out vec3 worldNormal;
void main() {
    worldPos = (matModel * vec4(vertexPosition, 1.0)).xyz;
    worldNormal = normalize((matNormal * vec4(vertexNormal, 0.0)).xyz);
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`
	shadedFS = `#version 330
in vec3 worldPos;
in vec3 worldNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec3 skyColor;
uniform vec3 groundColor;
uniform float rimStrength;
out vec4 finalColor;
void main() {
    vec3 n = normalize(worldNormal);
    vec3 ambient = mix(groundColor, skyColor, n.y * 0.5 + 0.5);
    float lambert = max(dot(n, lightDir), 0.0);
    float rim = pow(1.0 - max(dot(n, normalize(viewPos - worldPos)), 0.0), 3.0) * rimStrength;
    vec3 lit = colDiffuse.rgb * (ambient + vec3(0.8 * lambert)) + vec3(rim);
    finalColor = vec4(lit, colDiffuse.a);
}
`
)
