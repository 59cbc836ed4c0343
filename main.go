package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/sunfield/roofplan/roof"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile   = flag.String("config", "", "Path to YAML configuration file (defaults used if empty)")
	inputFile    = flag.String("input", "input.json", "Path to analysis input JSON (facets + raster + building bounds)")
	outputFile   = flag.String("output", "", "Output file (default stdout)")
	geojsonMode  = flag.Bool("geojson", false, "Emit panels and obstructions as a GeoJSON FeatureCollection")
	validateOnly = flag.Bool("validate-only", false, "Run grouping and obstruction scan only, print diagnostics and exit")
	dumpConfig   = flag.Bool("dump-config", false, "Print the effective configuration as YAML and exit")
	verbose      = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	logger.Debug("roofplan starting", "version", Version)

	cfg := roof.DefaultConfig()
	if *configFile != "" {
		loaded, err := roof.LoadConfig(*configFile)
		if err != nil {
			logger.Fatal("loading config", "err", err)
		}
		cfg = *loaded
	}

	if *dumpConfig {
		if err := roof.SaveConfig("/dev/stdout", &cfg); err != nil {
			logger.Fatal("dumping config", "err", err)
		}
		return
	}

	in, err := roof.LoadInput(*inputFile)
	if err != nil {
		logger.Fatal("loading input", "err", err)
	}
	logger.Info("input loaded",
		"facets", len(in.Facets),
		"raster", fmt.Sprintf("%dx%d", in.Raster.Width, in.Raster.Height))

	if *validateOnly {
		runValidateOnly(logger, in, cfg)
		return
	}

	result, err := roof.Analyze(in, cfg)
	if err != nil {
		logger.Fatal("analysis failed", "err", err)
	}
	logger.Info("analysis complete",
		"panels", result.Metadata.PanelCount,
		"obstructions", result.Metadata.ObstructionCount,
		"potentialKw", fmt.Sprintf("%.2f", result.Metadata.PotentialKW))

	var payload any = result
	if *geojsonMode {
		payload = result.ToFeatureCollection()
	}
	if err := writeJSON(*outputFile, payload); err != nil {
		logger.Fatal("writing output", "err", err)
	}
}

// runValidateOnly exercises grouping and the obstruction scan without the
// panel search, for inspecting what the engine would work with.
func runValidateOnly(logger *log.Logger, in *roof.Input, cfg roof.Config) {
	scale := roof.ComputeRealWorldScale(in.Raster.Width, in.Raster.Height, in.Building)
	if scale.LowConfidence {
		logger.Warn("building bounds missing, using low-confidence fallback scale")
	}

	kept, groups, stats := roof.GroupFacets(in.Facets, cfg.Grouping)
	logger.Info("grouping",
		"input", stats.InputFacets,
		"groups", stats.Groups,
		"dropped", stats.DroppedSmall,
		"output", stats.OutputFacets)
	for _, g := range groups {
		logger.Debug("group", "id", g.ID, "members", len(g.MemberIDs),
			"pitch", fmt.Sprintf("%.1f", g.Pitch),
			"azimuth", fmt.Sprintf("%.1f", g.Azimuth))
	}

	for i := range kept {
		roof.ProjectFacet(&kept[i], in.Building, in.Raster.Width, in.Raster.Height)
	}
	obstructions := roof.DetectObstructions(kept, &in.Raster, scale, cfg.Obstruction)
	logger.Info("obstruction scan", "found", len(obstructions))
	for _, o := range obstructions {
		logger.Debug("obstruction", "facet", o.FacetID, "kind", string(o.Kind),
			"localDev", fmt.Sprintf("%.1f", o.LocalDeviationDeg))
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
