//go:build linux && amd64

package main

import (
	"flag"
	"io"

	"github.com/magiconair/properties"
	"github.com/pkg/errors"

	"github.com/sun-lingyu/MIT6.S081/kernel/cpu"
)

// Config describes a simulation run. Values are read from a .properties file
// and may be overridden from the command line.
type Config struct {
	// Cores is the number of emulated cores (per-core free lists).
	Cores int `properties:"cores,default=4"`

	// Pages is the number of pages handed to the pool.
	Pages int `properties:"pages,default=1024"`

	// KernelPages is the number of pages below the pool range that stand
	// in for the kernel image. The pool must never write to them.
	KernelPages int `properties:"kernel.pages,default=16"`

	// Workers is the number of concurrent workers. Worker i runs on core
	// i % Cores.
	Workers int `properties:"workers,default=4"`

	// Ops is the number of alloc/free operations performed by each worker.
	Ops int `properties:"ops,default=10000"`

	// MaxHeld caps the number of pages a worker holds at any time.
	MaxHeld int `properties:"max.held,default=64"`

	// Seed initializes the per-worker random number generators.
	Seed int64 `properties:"seed,default=1"`

	// Dev selects the human-friendly development logger.
	Dev bool `properties:"log.dev,default=false"`
}

// options holds settings that only make sense on the command line.
type options struct {
	configFile  string
	metricsFile string
}

func defaultConfig() Config {
	var cfg Config
	// Decoding an empty property set only applies the struct tag defaults
	// and cannot fail.
	_ = properties.NewProperties().Decode(&cfg)
	return cfg
}

// decodeConfig builds a Config from p; keys missing from p keep their
// defaults.
func decodeConfig(p *properties.Properties) (Config, error) {
	var cfg Config
	if err := p.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// loadConfig reads the configuration file at path. An empty path yields the
// default configuration.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %q", path)
	}
	return decodeConfig(p)
}

func (cfg Config) validate() error {
	switch {
	case cfg.Cores < 1 || cfg.Cores > cpu.MaxCPUs:
		return errors.Errorf("cores must be in [1, %d]; got %d", cpu.MaxCPUs, cfg.Cores)
	case cfg.Pages < 1:
		return errors.Errorf("pages must be positive; got %d", cfg.Pages)
	case cfg.KernelPages < 0:
		return errors.Errorf("kernel.pages must not be negative; got %d", cfg.KernelPages)
	case cfg.Workers < 1:
		return errors.Errorf("workers must be positive; got %d", cfg.Workers)
	case cfg.Ops < 0:
		return errors.Errorf("ops must not be negative; got %d", cfg.Ops)
	case cfg.MaxHeld < 1:
		return errors.Errorf("max.held must be positive; got %d", cfg.MaxHeld)
	}
	return nil
}

// parseArgs parses the command line. Flags that are explicitly set override
// the values loaded from the configuration file.
func parseArgs(args []string, output io.Writer) (Config, options, error) {
	var (
		opts  options
		flags = defaultConfig()
		fs    = flag.NewFlagSet("pagesim", flag.ContinueOnError)
	)

	fs.SetOutput(output)
	fs.StringVar(&opts.configFile, "config", "", "load settings from a .properties file")
	fs.StringVar(&opts.metricsFile, "metrics", "", "write prometheus metrics to this file when done")
	fs.IntVar(&flags.Cores, "cores", flags.Cores, "number of emulated cores")
	fs.IntVar(&flags.Pages, "pages", flags.Pages, "number of pages managed by the pool")
	fs.IntVar(&flags.KernelPages, "kernel-pages", flags.KernelPages, "number of pages reserved for the kernel image")
	fs.IntVar(&flags.Workers, "workers", flags.Workers, "number of concurrent workers")
	fs.IntVar(&flags.Ops, "ops", flags.Ops, "operations per worker")
	fs.IntVar(&flags.MaxHeld, "max-held", flags.MaxHeld, "maximum pages held by a worker")
	fs.Int64Var(&flags.Seed, "seed", flags.Seed, "random seed")
	fs.BoolVar(&flags.Dev, "dev", flags.Dev, "use the development logger")

	if err := fs.Parse(args); err != nil {
		return Config{}, opts, err
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return Config{}, opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cores":
			cfg.Cores = flags.Cores
		case "pages":
			cfg.Pages = flags.Pages
		case "kernel-pages":
			cfg.KernelPages = flags.KernelPages
		case "workers":
			cfg.Workers = flags.Workers
		case "ops":
			cfg.Ops = flags.Ops
		case "max-held":
			cfg.MaxHeld = flags.MaxHeld
		case "seed":
			cfg.Seed = flags.Seed
		case "dev":
			cfg.Dev = flags.Dev
		}
	})

	return cfg, opts, cfg.validate()
}
