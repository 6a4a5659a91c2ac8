package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/marmos91/zarrfs/internal/logger"
	"github.com/marmos91/zarrfs/pkg/config"
	"github.com/marmos91/zarrfs/pkg/metrics"
	"github.com/marmos91/zarrfs/pkg/store"
	"github.com/marmos91/zarrfs/pkg/zarr"
)

const usage = `ZarrFS - chunked array storage tool

Usage: zarrfs <command> [flags]

Commands:
  create       Create a dataset
  info         Show dataset metadata
  ls           List keys in the store
  mkgroup      Create a group
  mkfile       Create a container root
  init-config  Write an example configuration file

Run 'zarrfs <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(ctx, os.Args[2:])
	case "info":
		err = runInfo(ctx, os.Args[2:])
	case "ls":
		err = runList(ctx, os.Args[2:])
	case "mkgroup":
		err = runMkgroup(ctx, os.Args[2:])
	case "mkfile":
		err = runMkfile(ctx, os.Args[2:])
	case "init-config":
		err = runInitConfig(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// setup loads configuration, configures the logger and metrics, and
// creates the store. The returned cleanup closes the store if it holds
// external resources.
func setup(ctx context.Context, configPath string) (store.Store, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := configureLogger(cfg.Logging); err != nil {
		return nil, nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Debug("Metrics collection enabled")
	}

	st, err := config.CreateStore(ctx, &cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	cleanup := func() {
		if closer, ok := st.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close store: %v", err)
			}
		}
	}

	return st, cleanup, nil
}

// configureLogger applies the logging configuration.
func configureLogger(cfg config.LoggingConfig) error {
	logger.SetLevel(cfg.Level)
	logger.SetFormat(cfg.Format)

	switch cfg.Output {
	case "stdout", "":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
	}

	return nil
}

func runCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	path := fs.String("path", "", "Dataset path inside the container")
	dtype := fs.String("dtype", "", "Element type (int8..int64, uint8..uint64, float32, float64, complex64, complex128, unicode1..unicode10)")
	shape := fs.String("shape", "", "Array shape, comma-separated (e.g. 100,100)")
	chunks := fs.String("chunks", "", "Chunk shape, comma-separated (e.g. 10,10)")
	format := fs.String("format", "zarr", "Container format (zarr or n5)")
	compressor := fs.String("compressor", "raw", "Chunk compressor (raw, zlib or gzip)")
	level := fs.Int("level", 0, "Compression level (0 = codec default)")
	fill := fs.Float64("fill", 0, "Fill value for unwritten chunks")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("-path is required")
	}
	if *dtype == "" {
		return fmt.Errorf("-dtype is required")
	}

	dt, err := zarr.ParseDType(*dtype)
	if err != nil {
		return err
	}

	shapeDims, err := parseDims(*shape)
	if err != nil {
		return fmt.Errorf("invalid -shape: %w", err)
	}
	chunkDims, err := parseDims(*chunks)
	if err != nil {
		return fmt.Errorf("invalid -chunks: %w", err)
	}

	flavor, err := parseFlavor(*format)
	if err != nil {
		return err
	}

	st, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	meta := &zarr.DatasetMetadata{
		DType:     dt,
		Shape:     shapeDims,
		Chunks:    chunkDims,
		FillValue: *fill,
		Flavor:    flavor,
	}
	if *compressor != "" && *compressor != "raw" {
		meta.Compressor = zarr.CompressorConfig{ID: *compressor, Level: *level}
	}

	ds, err := zarr.CreateDataset(ctx, zarr.NewHandle(st, *path), meta)
	if err != nil {
		return err
	}

	logger.Info("Dataset created: %s (%s, shape %v, chunks %v)",
		ds.Path(), ds.DType(), ds.Shape(), ds.Chunks())

	return nil
}

func runInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	path := fs.String("path", "", "Dataset path inside the container")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	st, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ds, err := zarr.OpenDataset(ctx, zarr.NewHandle(st, *path))
	if err != nil {
		return err
	}

	meta := ds.Metadata()
	fmt.Printf("Path:       %s\n", ds.Path())
	fmt.Printf("Format:     %s\n", meta.Flavor)
	fmt.Printf("Type:       %s\n", ds.DType())
	fmt.Printf("Shape:      %s\n", formatDims(ds.Shape()))
	fmt.Printf("Chunks:     %s\n", formatDims(ds.Chunks()))
	fmt.Printf("Chunk grid: %s\n", formatDims(ds.ChunkGrid()))
	if meta.Compressor.ID != "" {
		fmt.Printf("Compressor: %s\n", meta.Compressor.ID)
	} else {
		fmt.Printf("Compressor: none\n")
	}
	fmt.Printf("Fill value: %v\n", meta.FillValue)

	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	prefix := fs.String("prefix", "", "Key prefix to list")
	fs.Parse(args)

	st, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	keys, err := st.List(ctx, *prefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		// Node markers are storage plumbing, not user data.
		if strings.HasSuffix(key, store.NodeMarkerKey) {
			continue
		}
		fmt.Println(key)
	}

	return nil
}

func runMkgroup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mkgroup", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	path := fs.String("path", "", "Group path inside the container")
	format := fs.String("format", "zarr", "Container format (zarr or n5)")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	flavor, err := parseFlavor(*format)
	if err != nil {
		return err
	}

	st, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := zarr.CreateGroup(ctx, zarr.NewHandle(st, *path), flavor == zarr.FlavorZarr); err != nil {
		return err
	}

	logger.Info("Group created: %s", *path)
	return nil
}

func runMkfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mkfile", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	format := fs.String("format", "zarr", "Container format (zarr or n5)")
	fs.Parse(args)

	flavor, err := parseFlavor(*format)
	if err != nil {
		return err
	}

	st, cleanup, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := zarr.CreateFile(ctx, zarr.NewHandle(st, ""), flavor == zarr.FlavorZarr); err != nil {
		return err
	}

	logger.Info("Container root created")
	return nil
}

func runInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	path := fs.String("path", "", "Destination path (default: the standard config location)")
	fs.Parse(args)

	dest := *path
	if dest == "" {
		dest = config.GetDefaultConfigPath()
	}

	if err := config.WriteExample(dest); err != nil {
		return err
	}

	fmt.Printf("Example configuration written to %s\n", dest)
	return nil
}

// parseDims parses a comma-separated dimension list like "100,100".
func parseDims(s string) ([]uint64, error) {
	if s == "" {
		return nil, fmt.Errorf("dimension list is empty")
	}

	parts := strings.Split(s, ",")
	dims := make([]uint64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad dimension %q", part)
		}
		dims[i] = v
	}

	return dims, nil
}

func formatDims(dims []uint64) string {
	parts := make([]string, len(dims))
	for i, v := range dims {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func parseFlavor(format string) (zarr.Flavor, error) {
	switch strings.ToLower(format) {
	case "zarr":
		return zarr.FlavorZarr, nil
	case "n5":
		return zarr.FlavorN5, nil
	default:
		return 0, fmt.Errorf("unknown format %q (expected zarr or n5)", format)
	}
}
