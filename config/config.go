// Package config loads the landgrid configuration from an optional YAML file,
// LANDGRID_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"b00m.in/landgrid/address"
	"b00m.in/landgrid/cache"
	"b00m.in/landgrid/logging"
	"b00m.in/landgrid/parcel"
	"b00m.in/landgrid/parquet"
	"b00m.in/landgrid/remote"
)

const envPrefix = "LANDGRID"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Dataset locates the source file of one kind and its cache blob.
type Dataset struct {
	Source string `mapstructure:"source" yaml:"source,omitempty"`
	Cache  string `mapstructure:"cache" yaml:"cache"`
}

type Config struct {
	Addresses     Dataset `mapstructure:"addresses" yaml:"addresses"`
	AddressPoints Dataset `mapstructure:"address_points" yaml:"address_points"`
	Parcels       Dataset `mapstructure:"parcels" yaml:"parcels"`

	// Buffer is how far an address point's box reaches past the point.
	// Negative values are kept; such boxes contain nothing.
	Buffer float64 `mapstructure:"buffer" yaml:"buffer"`
	// Workers bounds multipolygon conversion; 0 means one per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`

	Cache   cache.Options        `mapstructure:"cache" yaml:"cache"`
	Columns address.Columns      `mapstructure:"columns" yaml:"columns"`
	Fields  parcel.Fields        `mapstructure:"fields" yaml:"fields"`
	Export  parquet.WriteOptions `mapstructure:"export" yaml:"export"`
	S3      remote.Config        `mapstructure:"s3" yaml:"s3"`
	Log     logging.LogConfig    `mapstructure:"log" yaml:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addresses.source", "data/addresses.csv")
	v.SetDefault("addresses.cache", "cache/addresses.data")
	v.SetDefault("address_points.cache", "cache/address_points.data")
	v.SetDefault("parcels.source", "data/parcels.geojson")
	v.SetDefault("parcels.cache", "cache/parcels.data")
	v.SetDefault("buffer", address.DefaultBuffer)
	v.SetDefault("workers", 0)
	v.SetDefault("cache.compress", true)

	cols := address.DefaultColumns()
	v.SetDefault("columns.label", cols.Label)
	v.SetDefault("columns.status", cols.Status)
	v.SetDefault("columns.lat", cols.Lat)
	v.SetDefault("columns.lon", cols.Lon)
	v.SetDefault("columns.x", cols.X)
	v.SetDefault("columns.y", cols.Y)

	fields := parcel.DefaultFields()
	v.SetDefault("fields.name", fields.Name)
	v.SetDefault("fields.id", fields.ID)

	v.SetDefault("export.compression", "zstd")
	v.SetDefault("s3.region", "us-west-2")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.anonymous", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_paths", []string{"stderr"})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// flagKeys maps flag names onto configuration keys.
var flagKeys = map[string]string{
	"addresses":     "addresses.source",
	"parcels":       "parcels.source",
	"buffer":        "buffer",
	"workers":       "workers",
	"compress":      "cache.compress",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"s3-region":     "s3.region",
	"s3-endpoint":   "s3.endpoint",
	"s3-anonymous":  "s3.anonymous",
	"s3-path-style": "s3.path_style",
	"export-codec":  "export.compression",
}

// BindFlags lets the flags in fs that the user actually set override the
// file and the environment.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the file at path, or ./landgrid.yaml when path is empty and
// such a file exists, then applies environment and flag overrides.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	} else {
		v.SetConfigName("landgrid")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}
	if err := BindFlags(v, fs); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if fs != nil {
		if f := fs.Lookup("cache-dir"); f != nil && f.Changed {
			cfg.SetCacheDir(f.Value.String())
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default is the configuration with nothing but defaults applied.
func Default() *Config {
	cfg := &Config{}
	if err := newViper().Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return cfg
}

// SetCacheDir moves every cache blob into dir, keeping the file names.
func (c *Config) SetCacheDir(dir string) {
	for _, d := range []*Dataset{&c.Addresses, &c.AddressPoints, &c.Parcels} {
		d.Cache = filepath.Join(dir, filepath.Base(d.Cache))
	}
}

// Validate only insists on somewhere to put the caches. Missing sources are
// reported when a build needs them.
func (c *Config) Validate() error {
	var missing []string
	if c.Addresses.Cache == "" {
		missing = append(missing, "addresses.cache")
	}
	if c.AddressPoints.Cache == "" {
		missing = append(missing, "address_points.cache")
	}
	if c.Parcels.Cache == "" {
		missing = append(missing, "parcels.cache")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return b, nil
}
