package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LdDl/pt2itp"
	"github.com/jessevdk/go-flags"
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"PT2ITP_CONFIG" description:"Path to YAML configuration file. Defaults are used if empty"`
	Workers    int    `short:"p" long:"workers" env:"PT2ITP_WORKERS" description:"Number of features processed at once (overrides configuration)"`

	Split SplitCommand `command:"split" description:"Split road network clusters into runs and assign address points"`
	OSM   OSMCommand   `command:"osm" description:"Prepare split features from OSM file"`
	Post  PostCommand  `command:"post" description:"Apply post stages to line-delimited cluster features"`
}

type SplitCommand struct {
	Input   string `short:"i" long:"in" description:"Input file with line-delimited split features. Reads from stdin if empty"`
	Output  string `short:"o" long:"out" description:"Output file. Writes to stdout if empty"`
	Country string `long:"country" description:"ISO 3166-1 country code (overrides configuration)"`
	Raw     bool   `long:"raw" description:"Stream features as soon as they are split, without post stages"`
}

type OSMCommand struct {
	File   string `short:"f" long:"file" description:"Filename of *.osm, *.xml or *.osm.pbf file" required:"true"`
	Output string `short:"o" long:"out" description:"Output file. Writes to stdout if empty"`
	Split  bool   `long:"split" description:"Split prepared features and apply post stages instead of writing them as is"`
}

type PostCommand struct {
	Input  string `short:"i" long:"in" description:"Input file with line-delimited GeoJSON features. Reads from stdin if empty"`
	Output string `short:"o" long:"out" description:"Output file. Writes to stdout if empty"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		opts.Logger.Setup()
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func (cmd *SplitCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Country != "" {
		cfg.Split.Country = cmd.Country
	}

	in, err := openInput(cmd.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	feats, err := pt2itp.ReadSplitFeatures(in)
	if err != nil {
		return errors.Wrap(err, "Can't read split features")
	}

	out, err := openOutput(cmd.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return splitAndWrite(ctx, cfg, feats, out, cmd.Raw)
}

func (cmd *OSMCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := time.Now()
	feats, err := pt2itp.ImportFromOSMFile(ctx, cmd.File, cfg.OsmConfiguration())
	if err != nil {
		return errors.Wrap(err, "Can't import OSM file")
	}
	log.Info().Int("features", len(feats)).Dur("duration", time.Since(st)).Msg("OSM file imported")

	out, err := openOutput(cmd.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	if !cmd.Split {
		return pt2itp.WriteSplitFeatures(out, feats)
	}
	return splitAndWrite(ctx, cfg, feats, out, false)
}

func (cmd *PostCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline, err := cfg.PostPipeline()
	if err != nil {
		return err
	}

	in, err := openInput(cmd.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	feats, err := pt2itp.ReadLineDelimited(in)
	if err != nil {
		return errors.Wrap(err, "Can't read features")
	}

	processed := make([]*geojson.Feature, 0, len(feats))
	failed := 0
	for i, feat := range feats {
		out, err := pipeline.Apply(feat)
		if err != nil {
			log.Warn().Err(err).Int("line", i+1).Msg("Can't apply post stages")
			failed++
			continue
		}
		processed = append(processed, out)
	}

	out, err := openOutput(cmd.Output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := pt2itp.WriteLineDelimited(out, processed); err != nil {
		return errors.Wrap(err, "Can't write features")
	}
	log.Info().Int("features", len(processed)).Int("failed", failed).Msg("Post stages done")
	return nil
}

func splitAndWrite(ctx context.Context, cfg *pt2itp.Config, feats []*pt2itp.SplitFeature, out io.Writer, raw bool) error {
	if cfg.Split.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	options := cfg.SplitterOptions()
	options = append(options, pt2itp.WithOutput(out), pt2itp.WithLogger(log.Logger))
	if raw {
		options = append(options, pt2itp.WithStdout(true))
	} else {
		options = append(options, pt2itp.WithStdout(false))
	}
	splitter, err := pt2itp.NewSplitter(options...)
	if err != nil {
		return errors.Wrap(err, "Can't prepare splitter")
	}

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	st := time.Now()
	var results []pt2itp.SplitResult
	if raw {
		results = splitter.SplitBatch(ctx, feats, workers)
	} else {
		pipeline, err := cfg.PostPipeline()
		if err != nil {
			return err
		}
		results = pipeline.Run(ctx, splitter, feats, workers)
	}

	produced, failed := 0, 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			continue
		}
		produced += len(result.Features)
		if raw {
			continue
		}
		if err := pt2itp.WriteLineDelimited(out, result.Features); err != nil {
			return errors.Wrap(err, "Can't write features")
		}
	}
	log.Info().
		Int("input", len(feats)).
		Int("output", produced).
		Int("failed", failed).
		Dur("duration", time.Since(st)).
		Msg("Split done")
	return ctx.Err()
}

func loadConfig() (*pt2itp.Config, error) {
	if opts.ConfigFile == "" {
		return pt2itp.DefaultConfig(), nil
	}
	cfg, err := pt2itp.LoadConfig(opts.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load configuration")
	}
	return cfg, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open input file")
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create output file")
	}
	return f, nil
}
