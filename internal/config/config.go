package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/omm/internal/dictionary"
	"github.com/danmuck/omm/internal/omm"
	"github.com/danmuck/omm/internal/pool"
	"github.com/danmuck/omm/internal/protocol/wire"
)

var ErrInvalid = errors.New("config: invalid codec config")

// CodecConfig is the on-disk form of omm.Options.
type CodecConfig struct {
	MajorVersion   uint8  `toml:"major_version" yaml:"major_version"`
	MinorVersion   uint8  `toml:"minor_version" yaml:"minor_version"`
	InitialBuffer  int    `toml:"initial_buffer" yaml:"initial_buffer"`
	MaxDepth       int    `toml:"max_depth" yaml:"max_depth"`
	BufferMin      int    `toml:"buffer_min" yaml:"buffer_min"`
	BufferMax      int    `toml:"buffer_max" yaml:"buffer_max"`
	Prealloc       int    `toml:"prealloc" yaml:"prealloc"`
	DictionaryPath string `toml:"dictionary" yaml:"dictionary"`
}

func Default() CodecConfig {
	return CodecConfig{
		MajorVersion:  wire.Current.Major,
		MinorVersion:  wire.Current.Minor,
		InitialBuffer: omm.DefaultInitialBufferSize,
		MaxDepth:      wire.MaxDecodeDepth,
		BufferMin:     pool.DefaultMinBuffer,
		BufferMax:     pool.DefaultMaxBuffer,
	}
}

// LoadCodecConfig reads a TOML or YAML file, chosen by extension, fills
// unset fields from Default and validates the result.
func LoadCodecConfig(path string) (CodecConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return CodecConfig{}, errors.Wrapf(err, "config load failed (%s)", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = toml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return CodecConfig{}, errors.Wrapf(err, "config parse failed (%s)", path)
	}
	if cfg.DictionaryPath != "" && !filepath.IsAbs(cfg.DictionaryPath) {
		cfg.DictionaryPath = filepath.Join(filepath.Dir(path), cfg.DictionaryPath)
	}
	if err := cfg.Validate(); err != nil {
		return CodecConfig{}, err
	}
	return cfg, nil
}

func (c CodecConfig) Version() wire.Version {
	return wire.Version{Major: c.MajorVersion, Minor: c.MinorVersion}
}

func (c CodecConfig) Validate() error {
	if !c.Version().Supported() {
		return errors.Wrapf(ErrInvalid, "protocol version %s not supported (want %d.x)", c.Version(), wire.Current.Major)
	}
	if c.InitialBuffer <= 0 {
		return errors.Wrapf(ErrInvalid, "initial_buffer must be positive, got %d", c.InitialBuffer)
	}
	if c.MaxDepth <= 0 || c.MaxDepth > 64 {
		return errors.Wrapf(ErrInvalid, "max_depth %d not in [1, 64]", c.MaxDepth)
	}
	if c.BufferMin <= 0 {
		return errors.Wrapf(ErrInvalid, "buffer_min must be positive, got %d", c.BufferMin)
	}
	if c.BufferMax < c.BufferMin {
		return errors.Wrapf(ErrInvalid, "buffer_max %d below buffer_min %d", c.BufferMax, c.BufferMin)
	}
	if c.Prealloc < 0 {
		return errors.Wrapf(ErrInvalid, "prealloc must not be negative, got %d", c.Prealloc)
	}
	return nil
}

// Options builds manager options, loading the dictionary when one is named.
func (c CodecConfig) Options() (omm.Options, error) {
	if err := c.Validate(); err != nil {
		return omm.Options{}, err
	}
	opts := omm.Options{
		Version:           c.Version(),
		MaxDepth:          c.MaxDepth,
		Prealloc:          c.Prealloc,
		InitialBufferSize: c.InitialBuffer,
		Buffers:           pool.NewBufferPool(c.BufferMin, c.BufferMax),
	}
	if c.DictionaryPath != "" {
		dict, err := dictionary.LoadFile(c.DictionaryPath)
		if err != nil {
			return omm.Options{}, errors.Wrap(err, "config dictionary")
		}
		opts.Dictionary = dict
	}
	return opts, nil
}
