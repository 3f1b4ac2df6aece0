package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/LdDl/osm2sidewalks"
	"github.com/pkg/errors"
)

var (
	inputFileName = flag.String("file", "my_graph.osm.pbf", "Filename of *.osm.pbf / *.osm file (lon/lat) or *.geojson file (already in local planar frame)")
	configFile    = flag.String("config", "", "Path to JSON configuration. Defaults are used when empty")
	out           = flag.String("out", "sidewalks.geojson", "Output filename. For CSV format three files are produced: e.g. 'city.csv' gives 'city_sidewalks.csv', 'city_crossings.csv', 'city_kerbs.csv'")
	outFormat     = flag.String("format", "geojson", "Output format. Expected values: geojson / csv / sqlite")
	verbose       = flag.Bool("verbose", true, "Print progress")
	infer         = flag.Bool("infer", false, "Infer missing crossings between protoblocks already carrying sidewalks (overrides config when set)")
	checkGraph    = flag.Bool("check", false, "Build pedestrian graph and report its size")
)

func main() {

	flag.Parse()

	cfg := osm2sidewalks.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = osm2sidewalks.LoadConfig(*configFile)
		if err != nil {
			fmt.Println(errors.Wrap(err, "Can't load configuration"))
			return
		}
	}
	if *infer {
		cfg.InferMissingCrossings = true
	}

	input, frame, err := readInput(*inputFileName, *verbose)
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline := osm2sidewalks.NewPipeline(
		osm2sidewalks.WithConfig(cfg),
		osm2sidewalks.WithVerbose(*verbose),
	)
	result, err := pipeline.Run(ctx, input)
	if err != nil {
		fmt.Println(err)
		return
	}
	if result.EmptyNetwork {
		fmt.Println("No usable street network has been found")
		return
	}
	if result.Cancelled {
		fmt.Println("[WARNING]: Run has been interrupted, partial result is written")
	}

	if *checkGraph {
		graph, err := osm2sidewalks.NewPedestrianGraph(result.Sidewalks, result.Crossings)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("Pedestrian graph vertices: %d\n", graph.NumVertices())
	}

	err = writeOutput(result, frame)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(osm2sidewalks.Summarize(result))
}

// readInput returns pipeline input and local frame to reproject output with (nil for planar input)
func readInput(fname string, verbose bool) (osm2sidewalks.Input, *osm2sidewalks.LocalFrame, error) {
	ext := strings.ToLower(filepath.Ext(fname))
	if ext == ".geojson" || ext == ".json" {
		file, err := os.Open(fname)
		if err != nil {
			return osm2sidewalks.Input{}, nil, err
		}
		defer file.Close()
		input, err := osm2sidewalks.ReadGeoJSON(file)
		return input, nil, err
	}
	data, err := osm2sidewalks.ReadOSM(fname, verbose)
	if err != nil {
		return osm2sidewalks.Input{}, nil, errors.Wrap(err, "Can't read OSM file")
	}
	frame := osm2sidewalks.NewLocalFrame(data.Bound())
	return data.Input(frame, verbose), frame, nil
}

func writeOutput(result *osm2sidewalks.Result, frame *osm2sidewalks.LocalFrame) error {
	switch strings.ToLower(*outFormat) {
	case "csv":
		return result.ExportToCSV(*out, frame)
	case "sqlite":
		store, err := osm2sidewalks.NewSQLiteStore(*out)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.SaveResult(result, frame)
		if err != nil {
			return err
		}
		fmt.Printf("Saved run '%s' into '%s'\n", runID, *out)
		return nil
	default:
		file, err := os.Create(*out)
		if err != nil {
			return errors.Wrap(err, "Can't create file")
		}
		defer file.Close()
		return result.WriteGeoJSON(file, frame)
	}
}
