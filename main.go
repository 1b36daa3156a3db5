package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/mkappa/go-lens-raytracer/pkg/render"
	"github.com/mkappa/go-lens-raytracer/pkg/scene"
)

func main() {
	sceneName := flag.String("scene", "default", "Scene name: 'default', 'pointmass' or 'nfw'")
	mapName := flag.String("map", "magnification", "Map type: 'magnification', 'convergence', 'shear' or 'deflection'")
	size := flag.Int("size", 400, "Map size in pixels (square)")
	fov := flag.Float64("fov", 6.0, "Field of view in angular units")
	profilePlot := flag.Bool("profile-plot", false, "Also write a radial deflection profile plot")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Decoupled Lensing Raytracer")
		fmt.Println("Usage: lensray [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		fmt.Println("  default   - SIS + shear main deflector behind a perturbed line of sight")
		fmt.Println("  pointmass - point-mass lens with an unperturbed line of sight")
		fmt.Println("  nfw       - NFW halo + shear with an unperturbed line of sight")
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/<map>_<timestamp>.png")
		return
	}

	mapType, err := parseMapType(*mapName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Building scene %q...\n", *sceneName)
	s, err := scene.CreateScene(*sceneName)
	if err != nil {
		fmt.Printf("Error creating scene: %v\n", err)
		os.Exit(1)
	}

	outputDir := createOutputDir(*sceneName)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	config := render.DefaultConfig()
	config.Width = *size
	config.Height = *size
	config.FOV = *fov
	config.Type = mapType

	fmt.Printf("Evaluating %s map (%dx%d, fov %.2f)...\n", mapType, *size, *size, *fov)
	renderer := render.NewMapRenderer(s.Tracer, s.Params, config)
	img, stats, err := renderer.Render()
	if err != nil {
		fmt.Printf("Error rendering map: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Evaluated %d pixels in %v (min %.4g, max %.4g, mean %.4g)\n",
		stats.Pixels, stats.Elapsed, stats.Min, stats.Max, stats.Mean)

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", mapType, timestamp))
	if err := writePNG(filename, img); err != nil {
		fmt.Printf("Error writing image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", filename)

	if *profilePlot {
		plotFile := filepath.Join(outputDir, fmt.Sprintf("profile_%s.png", timestamp))
		if err := render.SaveProfilePlot(s.Tracer, s.Params, *fov/2, 200, plotFile); err != nil {
			fmt.Printf("Error writing profile plot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", plotFile)
	}
}

// parseMapType validates a map-type flag value
func parseMapType(name string) (render.MapType, error) {
	switch render.MapType(name) {
	case render.MapMagnification, render.MapConvergence, render.MapShear, render.MapDeflection:
		return render.MapType(name), nil
	default:
		return "", fmt.Errorf("unknown map type %q", name)
	}
}

// createOutputDir returns the output directory for a scene
func createOutputDir(sceneName string) string {
	return filepath.Join("output", sceneName)
}

// writePNG encodes img to path
func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
