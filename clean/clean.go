package clean

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/tclean/internal"
	"github.com/gnolang/tclean/internal/metrics"
	"github.com/gnolang/tclean/internal/options"
	tt "github.com/gnolang/tclean/internal/types"
)

const DefaultConfigPath = ".tclean.yaml"

// Config is the on-disk configuration. Options is the flat option map of
// the run; keys not listed keep their catalog default.
type Config struct {
	Name          string            `yaml:"name" toml:"name"`
	Options       map[string]string `yaml:"options" toml:"options"`
	MaxIterations int               `yaml:"max-iterations,omitempty" toml:"max-iterations,omitempty"`
	Jobs          int               `yaml:"jobs,omitempty" toml:"jobs,omitempty"`
	CacheDir      string            `yaml:"cache-dir,omitempty" toml:"cache-dir,omitempty"`
	// CacheMaxAge overrides how long a cache entry stays valid.
	CacheMaxAge time.Duration `yaml:"cache-max-age,omitempty" toml:"cache-max-age,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Name:          "tclean",
		Options:       options.Defaults().Map(),
		MaxIterations: internal.DefaultMaxIterations,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig reads a yaml or toml (by extension) configuration over the
// defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if isTOML(path) {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return config, fmt.Errorf("parsing %s: %w", path, err)
		}
		return config, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// SaveConfig writes config to path, as toml or yaml by extension.
func SaveConfig(path string, config Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeConfig(f, path, config); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeConfig(w io.Writer, path string, config Config) error {
	if isTOML(path) {
		return toml.NewEncoder(w).Encode(config)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return err
	}
	return enc.Close()
}

// OptionSnapshot returns the options of config.
func (c Config) OptionSnapshot() options.Options {
	return options.New(c.Options)
}

// New builds an engine configured by config. reg may be nil.
func New(config Config, logger *zap.Logger, reg prometheus.Registerer) (*internal.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []internal.Option{
		internal.WithLogger(logger),
		internal.WithMetrics(metrics.New(reg)),
		internal.WithMaxIterations(config.MaxIterations),
		internal.WithJobs(config.Jobs),
	}
	if config.CacheDir != "" {
		cache, err := internal.NewCache(config.CacheDir)
		if err != nil {
			return nil, err
		}
		if config.CacheMaxAge > 0 {
			cache.SetMaxAge(config.CacheMaxAge)
		}
		opts = append(opts, internal.WithCache(cache))
	}
	return internal.NewEngine(opts...)
}

var desiredExtensions = map[string]bool{
	".go": true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}

// CollectFiles expands paths into the sorted list of Go files they name.
// Directories are walked, skipping testdata, vendor and hidden directories.
func CollectFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			if hasDesiredExtension(path) {
				add(path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if p != path && (name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if hasDesiredExtension(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// progressSource advances bar as units are loaded.
type progressSource struct {
	internal.Source
	bar *progressbar.ProgressBar
}

func (s progressSource) Load(ctx context.Context, id string) (tt.Unit, error) {
	u, err := s.Source.Load(ctx, id)
	_ = s.bar.Add(1)
	return u, err
}

// ProcessPaths cleans every Go file under paths. With write set, changes
// are stored back to disk; a unit modified since it was read is skipped
// and reported as a failure, any other write error is fatal.
func ProcessPaths(
	ctx context.Context,
	logger *zap.Logger,
	engine *internal.Engine,
	o options.Options,
	paths []string,
	write bool,
) (*internal.Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := CollectFiles(paths)
	if err != nil {
		return nil, err
	}

	fileSrc := internal.NewFileSource()
	var src internal.Source = fileSrc
	if len(files) > 1 {
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("cleaning"),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
		defer bar.Finish()
		src = progressSource{Source: fileSrc, bar: bar}
	}

	report, err := engine.Run(ctx, o, src, files)
	if err != nil {
		return report, err
	}
	for _, f := range report.Failures {
		logger.Error("Error processing file", zap.String("file", f.ID), zap.Error(f.Err))
	}
	if !write {
		return report, nil
	}

	for i, c := range report.Changes {
		if c == nil {
			continue
		}
		err := fileSrc.Write(c)
		if err == nil {
			continue
		}
		var ue *internal.UnitError
		if errors.Is(err, internal.ErrModelAccess) && errors.As(err, &ue) {
			logger.Warn("skipping stale file", zap.String("file", c.Unit.Path), zap.Error(err))
			report.Failures = append(report.Failures, ue)
			report.Changes[i] = nil
			continue
		}
		report.Status.Fatal("%v", err)
		return report, report.Status.Err()
	}
	return report, nil
}

// ProcessSources cleans in-memory sources. Results are indexed like
// sources; a nil entry means the source is already clean or failed. The
// error joins every per-source failure.
func ProcessSources(
	ctx context.Context,
	engine *internal.Engine,
	o options.Options,
	goVersion string,
	sources [][]byte,
) ([]*internal.Change, error) {
	src := make(internal.MemorySource, len(sources))
	ids := make([]string, len(sources))
	for i, text := range sources {
		id := fmt.Sprintf("source%d.go", i)
		ids[i] = id
		src[id] = tt.Unit{ID: id, Path: id, Text: text, GoVersion: goVersion}
	}
	report, err := engine.Run(ctx, o, src, ids)
	if err != nil {
		return nil, err
	}
	errs := make([]error, len(report.Failures))
	for i, f := range report.Failures {
		errs[i] = f
	}
	return report.Changes, errors.Join(errs...)
}
