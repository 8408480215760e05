package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"seishorizon/internal/models"
	"seishorizon/pkg/config"
	"seishorizon/pkg/fault"
	"seishorizon/pkg/geometry"
	"seishorizon/pkg/grid"
	"seishorizon/pkg/surface"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "seishorizon.yaml", "Path to YAML configuration file")
	shapeArg := flag.String("shape", "", "Volume shape as inline,crossline,depth (overrides config)")
	cropArg := flag.String("crop", "", "Crop shape as inline,crossline,depth (overrides config)")
	pointsFile := flag.String("points", "", "Surface point file with 'inline crossline depth' lines")
	sticksFile := flag.String("sticks", "", "Fault stick file with 'inline crossline depth [stick]' lines")
	extend := flag.Bool("extend", false, "Report extension grid statistics around the loaded surface")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *shapeArg != "" {
		cfg.Volume.Shape = mustParseShape(*shapeArg, "shape")
	}
	if *cropArg != "" {
		cfg.Grid.CropShape = mustParseShape(*cropArg, "crop")
	}

	fmt.Println("================================")
	fmt.Println("SEISHORIZON: HORIZON AND FAULT SURFACE ANALYSIS OVER 3D SEISMIC VOLUMES")
	fmt.Println("================================")

	shape := cfg.Volume.Shape
	vol := geometry.NewInMemoryVolume(shape[0], shape[1], shape[2])

	// Tile the volume and report the sweep size.
	startTime := time.Now()
	g, err := grid.NewRegular(vol, grid.RegularConfig{
		CropShape:   cfg.Grid.CropShape,
		Orientation: cfg.Grid.Orientation,
		Threshold:   cfg.Grid.Threshold,
		BatchSize:   cfg.Grid.BatchSize,
		FieldID:     0,
		LabelID:     -1,
	})
	if err != nil {
		log.Fatalf("Grid generation failed: %v", err)
	}

	fmt.Printf("\nRegular grid over %dx%dx%d volume:\n", shape[0], shape[1], shape[2])
	fmt.Printf("===================================\n")
	fmt.Printf("Crop shape: %v\n", cfg.Grid.CropShape)
	fmt.Printf("Locations: %d\n", g.Len())
	fmt.Printf("Batches of %d: %d\n", g.BatchSize, g.NIterations())
	origin, endpoint := g.ActualBounds()
	fmt.Printf("Covered region: %v to %v\n", origin, endpoint)
	fmt.Printf("Generated in %.3f seconds\n", time.Since(startTime).Seconds())

	if *pointsFile != "" {
		surf := summarizeSurface(vol, cfg, *pointsFile)
		if *extend {
			summarizeExtension(surf, cfg)
		}
	} else if *extend {
		log.Fatalf("Flag -extend needs a surface; pass -points as well")
	}
	if *sticksFile != "" {
		summarizeFault(vol, *sticksFile)
	}
}

// summarizeSurface loads a surface from a point file, smooths it per the
// configuration and prints its geometry metrics.
func summarizeSurface(vol geometry.Volume, cfg *config.Config, path string) *surface.Surface {
	points, err := readPoints(path)
	if err != nil {
		log.Fatalf("Failed to read points: %v", err)
	}
	surf := surface.NewFromPoints(vol, strings.TrimSuffix(path, ".txt"), points, true)

	fmt.Printf("\nSurface loaded from: %s\n", path)
	fmt.Printf("===================================\n")
	fmt.Printf("Covered traces: %d\n", surf.Len())
	iMin, iMax, xMin, xMax, dMin, dMax := surf.BBox()
	fmt.Printf("Bounding box: inline [%d, %d], crossline [%d, %d], depth [%d, %d]\n",
		iMin, iMax, xMin, xMax, dMin, dMax)
	fmt.Printf("Depth mean: %.2f, std: %.2f\n", surf.DepthMean(), surf.DepthStd())
	fmt.Printf("Coverage: %.4f\n", surf.Coverage())
	fmt.Printf("Perimeter: %d, holes: %d, solidity: %.4f\n",
		surf.Perimeter(), surf.NumberOfHoles(), surf.Solidity())

	surf.SmoothOut(surface.SmoothingOptions{
		KernelSize: cfg.Smoothing.KernelSize,
		Sigma:      cfg.Smoothing.Sigma,
		Margin:     cfg.Smoothing.Margin,
		Iterations: cfg.Smoothing.Iterations,
	})
	fmt.Printf("After smoothing: %d traces, depth mean %.2f\n", surf.Len(), surf.DepthMean())
	return surf
}

// summarizeExtension builds an extension grid around a surface and prints
// its candidate statistics.
func summarizeExtension(surf *surface.Surface, cfg *config.Config) {
	eg, err := grid.NewExtension(surf, grid.ExtensionConfig{
		CropShape:      cfg.Grid.CropShape,
		Stride:         cfg.Extension.Stride,
		Top:            cfg.Extension.Top,
		Threshold:      cfg.Extension.Threshold,
		PriorThreshold: cfg.Extension.PriorThreshold,
		Mode:           cfg.Extension.Mode,
		BatchSize:      cfg.Grid.BatchSize,
	})
	if err != nil {
		log.Fatalf("Extension grid failed: %v", err)
	}

	fmt.Printf("\nExtension grid (%s):\n", cfg.Extension.Mode)
	fmt.Printf("===================================\n")
	fmt.Printf("Candidates scored: %d\n", eg.Stats.Possible)
	fmt.Printf("Kept after selection: %d\n", eg.Stats.TopLocations)
	fmt.Printf("Final locations: %d\n", eg.Stats.Selected)
	fmt.Printf("Uncovered traces: %d now, %d at best\n",
		eg.Stats.UncoveredBefore, eg.Stats.UncoveredBest)
}

// summarizeFault loads a fault from a stick file and prints its metrics.
func summarizeFault(vol geometry.Volume, path string) {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open sticks: %v", err)
	}
	defer file.Close()

	f, err := fault.ParseSticks(file, vol, path)
	if err != nil {
		log.Fatalf("Failed to parse sticks: %v", err)
	}

	fmt.Printf("\nFault loaded from: %s\n", path)
	fmt.Printf("===================================\n")
	fmt.Printf("Voxels: %d, sticks: %d\n", f.Len(), len(f.Sticks))
	fmt.Printf("Direction axis: %d\n", f.Direction)
	iMin, iMax, xMin, xMax, dMin, dMax := f.BBox()
	fmt.Printf("Bounding box: inline [%d, %d], crossline [%d, %d], depth [%d, %d]\n",
		iMin, iMax, xMin, xMax, dMin, dMax)
}

// readPoints parses three-column 'inline crossline depth' lines.
func readPoints(path string) ([]models.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var points []models.Point
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: %d columns, want 3", lineNo+1, len(fields))
		}
		var vals [3]int
		for k, field := range fields {
			vals[k], err = strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
		}
		points = append(points, models.Point{I: vals[0], X: vals[1], D: vals[2]})
	}
	return points, nil
}

// mustParseShape parses a comma-separated triple of positive ints.
func mustParseShape(arg, name string) [3]int {
	parts := strings.Split(arg, ",")
	if len(parts) != 3 {
		log.Fatalf("Flag -%s needs three comma-separated values, got %q", name, arg)
	}
	var shape [3]int
	for k, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 1 {
			log.Fatalf("Flag -%s component %d: %q is not a positive integer", name, k+1, part)
		}
		shape[k] = v
	}
	return shape
}
