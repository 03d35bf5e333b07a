package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuanying/html2epub/internal/config"
	"github.com/yuanying/html2epub/internal/converter"
)

const defaultName = "unknown"

var errNoChapters = errors.New("at least one chapter file or directory is required")

// runOptions is everything one invocation needs, resolved from flags and
// configuration.
type runOptions struct {
	Config     *config.Config
	Convert    converter.ConvertOptions
	DumpConfig bool
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html2epub [flags] <chapter>...",
		Short: "Assemble HTML chapters into an EPUB 2 book",
		Long: `html2epub takes a list of loosely formed HTML documents and packs them
into a single EPUB 2 book: chapters are cleaned up into XHTML, images are
embedded as JPEG, and navigation, package document and a simple cover are
generated.

Directories given as chapters contribute their *.htm* files in natural order.`,
		SilenceUsage: true,
		RunE:         run,
	}

	f := cmd.Flags()
	f.StringP("title", "t", defaultName, "Book title")
	f.StringArrayP("author", "a", []string{defaultName}, "Book author (repeatable)")
	f.StringP("encoding", "e", "", "IANA name of chapter text encoding (default: detect)")
	f.StringP("output", "o", "", "Output file path (default: <title>.epub in working directory)")
	f.StringP("config", "c", "", "Configuration file")
	f.String("images-root", "", "Directory image references may not leave (overrides configuration)")
	f.String("log-level", "", "Console log level: none, normal or debug (overrides configuration)")
	f.Bool("verify", false, "Check structure of the produced book")
	f.Bool("dump-config", false, "Print effective configuration and exit")
	return cmd
}

func readCLIOptions(cmd *cobra.Command, args []string) (*runOptions, error) {
	f := cmd.Flags()
	configPath, _ := f.GetString("config")
	cfg, err := config.LoadConfiguration(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare configuration: %w", err)
	}

	if level, _ := f.GetString("log-level"); level != "" {
		switch level {
		case "none", "normal", "debug":
			cfg.Logging.ConsoleLogger.Level = level
		default:
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	if f.Changed("encoding") {
		cfg.Document.SourceEncoding, _ = f.GetString("encoding")
	}
	if root, _ := f.GetString("images-root"); root != "" {
		if cfg.Document.Images.Root, err = filepath.Abs(root); err != nil {
			return nil, fmt.Errorf("invalid images root: %w", err)
		}
	}

	opts := &runOptions{Config: cfg}
	opts.DumpConfig, _ = f.GetBool("dump-config")
	if opts.DumpConfig {
		return opts, nil
	}
	if len(args) == 0 {
		return nil, errNoChapters
	}

	var stylesheet []byte
	if name := cfg.Document.StylesheetPath; name != "" {
		if stylesheet, err = os.ReadFile(name); err != nil {
			return nil, fmt.Errorf("unable to read stylesheet: %w", err)
		}
	}

	title, _ := f.GetString("title")
	authors, _ := f.GetStringArray("author")
	output, _ := f.GetString("output")
	verify, _ := f.GetBool("verify")

	img := cfg.Document.Images
	cover := cfg.Document.Cover
	opts.Convert = converter.ConvertOptions{
		Title:         title,
		Authors:       authors,
		Encoding:      cfg.Document.SourceEncoding,
		Chapters:      args,
		OutputPath:    output,
		Transliterate: cfg.Document.FileNameTransliterate,
		ImageRoot:     img.Root,
		Stylesheet:    stylesheet,
		Images: converter.ImageOptions{
			JPEGQuality:       img.JPEGQuality,
			MaxBytes:          img.MaxBytes,
			PlaceholderWidth:  img.PlaceholderWidth,
			PlaceholderHeight: img.PlaceholderHeight,
		},
		Cover: converter.CoverOptions{
			Width:       cover.Width,
			Height:      cover.Height,
			FontPath:    cover.FontPath,
			JPEGQuality: cover.JPEGQuality,
		},
		Verify: verify,
	}
	return opts, nil
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}

	if opts.DumpConfig {
		data, err := config.Dump(opts.Config)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	log, err := opts.Config.Logging.Prepare()
	if err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	restore := zap.RedirectStdLog(log)
	defer func() {
		restore()
		// syncing console streams fails on some platforms, ignore that
		_ = log.Sync()
	}()

	log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))

	out, err := converter.NewPipeline(opts.Convert, log).Convert()
	if err != nil {
		log.Error("Conversion failed", zap.Error(err))
		return fmt.Errorf("conversion failed: %w", err)
	}
	log.Info("Done", zap.String("output", out))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
