package config

import (
	_ "embed"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	HistoryName       = "history"
)

// Stderr handling modes for external commands.
const (
	StderrInherit = "inherit"
	StderrCapture = "capture"
	StderrMerge   = "merge"
)

type Configuration struct {
	configFs afero.Fs

	External       External `json:"external"`
	Parallel       Parallel `json:"parallel"`
	Stream         Stream   `json:"stream"`
	Encoding       string   `json:"encoding" validate:"required"`
	RecursionLimit int      `json:"recursion_limit" validate:"gte=1,lte=10000"`
	FileSize       FileSize `json:"filesize"`
	Logging        Logging  `json:"logging"`
	History        History  `json:"history"`
}

type External struct {
	Stderr    string `json:"stderr" validate:"oneof=inherit capture merge"`
	KillGrace string `json:"kill_grace" validate:"required"`
}

type Parallel struct {
	Threads int `json:"threads" validate:"gte=0,lte=1024"`
}

type Stream struct {
	ChunkSize int `json:"chunk_size" validate:"gte=1,lte=16777216"`
}

type FileSize struct {
	Format string `json:"format" validate:"oneof=binary decimal"`
}

type Logging struct {
	Level  string `json:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" validate:"oneof=text json logfmt"`
}

type History struct {
	MaxSize int `json:"max_size" validate:"gte=0"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.KillGraceDuration(); err != nil {
		return fmt.Errorf("external.kill_grace: %w", err)
	}
	if _, err := c.TextEncoding(); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	return nil
}

// KillGraceDuration parses the interrupt grace period, which must be
// positive.
func (c *Configuration) KillGraceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.External.KillGrace)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%q must be greater than zero", c.External.KillGrace)
	}
	return d, nil
}

// TextEncoding resolves the configured encoding. UTF-8 resolves to nil so
// callers take the strict UTF-8 path.
func (c *Configuration) TextEncoding() (encoding.Encoding, error) {
	switch strings.ToLower(c.Encoding) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(c.Encoding)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", c.Encoding)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// HistoryPath is the on-disk location of the interactive history file, or
// empty if the configuration isn't backed by a directory.
func (c *Configuration) HistoryPath() string {
	bp, ok := c.configFs.(*afero.BasePathFs)
	if !ok {
		return ""
	}
	p, err := bp.RealPath(HistoryName)
	if err != nil {
		return ""
	}
	return p
}

// Default returns the built-in configuration.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
