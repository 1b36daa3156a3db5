// Package render evaluates lensing quantities from a decoupled tracer
// over a pixel grid and turns them into images. Tiles of the grid are
// evaluated in parallel; every pixel is an independent pure evaluation,
// so identical inputs always produce identical images.
package render

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/mkappa/go-lens-raytracer/pkg/deflector"
	"github.com/mkappa/go-lens-raytracer/pkg/trace"
)

// MapType selects the lensing quantity evaluated per pixel
type MapType string

const (
	MapMagnification MapType = "magnification" // |1 / det A|, log-scaled for display
	MapConvergence   MapType = "convergence"   // kappa = (f_xx + f_yy) / 2
	MapShear         MapType = "shear"         // |gamma|
	MapDeflection    MapType = "deflection"    // |alpha|
)

// Config contains map-evaluation configuration
type Config struct {
	Width       int     // Image width in pixels
	Height      int     // Image height in pixels
	FOV         float64 // Angular width of the field of view
	CenterX     float64 // Sky-angle center of the map
	CenterY     float64
	Type        MapType
	HessianStep float64 // Finite-difference step for curvature maps
	TileSize    int     // Tile edge length in pixels
	Workers     int     // Worker count; <= 0 means GOMAXPROCS
	Gamma       float64 // Display gamma applied during colormapping
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:       400,
		Height:      400,
		FOV:         6.0,
		Type:        MapMagnification,
		HessianStep: trace.DefaultHessianStep,
		TileSize:    32,
		Gamma:       2.0,
	}
}

// Stats summarizes one map evaluation
type Stats struct {
	Pixels  int           // Total number of pixels evaluated
	Min     float64       // Smallest raw pixel value
	Max     float64       // Largest raw pixel value
	Mean    float64       // Mean raw pixel value
	Elapsed time.Duration // Wall-clock evaluation time
}

// MapRenderer evaluates a tracer quantity over a pixel grid
type MapRenderer struct {
	tracer *trace.Tracer
	params []deflector.Params
	config Config
}

// NewMapRenderer creates a renderer for the given tracer and
// main-deflector parameters
func NewMapRenderer(tracer *trace.Tracer, params []deflector.Params, config Config) *MapRenderer {
	return &MapRenderer{tracer: tracer, params: params, config: config}
}

// pixelValue computes the configured quantity at one sky angle
func (mr *MapRenderer) pixelValue(thetaX, thetaY float64) float64 {
	switch mr.config.Type {
	case MapDeflection:
		ax, ay := mr.tracer.Alpha(thetaX, thetaY, mr.params)
		return math.Hypot(ax, ay)
	case MapConvergence:
		fxx, _, _, fyy := mr.tracer.Hessian(thetaX, thetaY, mr.params, mr.config.HessianStep)
		return (fxx + fyy) / 2
	case MapShear:
		fxx, fxy, fyx, fyy := mr.tracer.Hessian(thetaX, thetaY, mr.params, mr.config.HessianStep)
		return math.Hypot((fxx-fyy)/2, (fxy+fyx)/2)
	default: // MapMagnification
		fxx, fxy, fyx, fyy := mr.tracer.Hessian(thetaX, thetaY, mr.params, mr.config.HessianStep)
		kappa := (fxx + fyy) / 2
		g1 := (fxx - fyy) / 2
		g2 := (fxy + fyx) / 2
		det := (1-kappa)*(1-kappa) - g1*g1 - g2*g2
		if det == 0 {
			return math.Inf(1)
		}
		// Log scaling keeps structure near critical curves visible.
		return math.Log10(math.Abs(1 / det))
	}
}

// skyAngle converts a pixel coordinate to the sky angle at its center
func (mr *MapRenderer) skyAngle(px, py int) (thetaX, thetaY float64) {
	scale := mr.config.FOV / float64(mr.config.Width)
	thetaX = mr.config.CenterX + (float64(px)+0.5-float64(mr.config.Width)/2)*scale
	thetaY = mr.config.CenterY + (float64(py)+0.5-float64(mr.config.Height)/2)*scale
	return thetaX, thetaY
}

// EvaluateGrid computes the raw value grid, indexed [row][col] with
// row 0 at the top of the image, evaluating tiles in parallel.
func (mr *MapRenderer) EvaluateGrid() ([][]float64, Stats, error) {
	cfg := mr.config
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, Stats{}, fmt.Errorf("map dimensions must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	tileSize := cfg.TileSize
	if tileSize <= 0 {
		tileSize = 32
	}

	values := make([][]float64, cfg.Height)
	for j := range values {
		values[j] = make([]float64, cfg.Width)
	}

	// Flip vertically so increasing thetaY points up in the image.
	eval := func(px, py int) float64 {
		thetaX, thetaY := mr.skyAngle(px, cfg.Height-1-py)
		return mr.pixelValue(thetaX, thetaY)
	}

	tiles := splitTiles(cfg.Width, cfg.Height, tileSize)

	start := time.Now()
	pool := NewWorkerPool(eval, values, len(tiles), cfg.Workers)
	pool.Start()
	for i, bounds := range tiles {
		pool.SubmitTask(TileTask{TaskID: i, Bounds: bounds})
	}
	pool.Stop()

	stats := Stats{Pixels: cfg.Width * cfg.Height, Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		stats.Min = math.Min(stats.Min, result.Min)
		stats.Max = math.Max(stats.Max, result.Max)
		sum += result.Sum
	}
	stats.Mean = sum / float64(stats.Pixels)
	stats.Elapsed = time.Since(start)
	return values, stats, nil
}

// Render evaluates the map and colormaps it into an image
func (mr *MapRenderer) Render() (*image.RGBA, Stats, error) {
	values, stats, err := mr.EvaluateGrid()
	if err != nil {
		return nil, Stats{}, err
	}
	return Colormap(values, mr.config.Gamma), stats, nil
}

// splitTiles partitions the image into non-overlapping tiles
func splitTiles(width, height, tileSize int) []image.Rectangle {
	var tiles []image.Rectangle
	for y := 0; y < height; y += tileSize {
		for x := 0; x < width; x += tileSize {
			tiles = append(tiles, image.Rect(x, y, min(x+tileSize, width), min(y+tileSize, height)))
		}
	}
	return tiles
}
