package config

import (
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NoError(t, cfg.Validate())

	grace, err := cfg.KillGraceDuration()
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Second, grace)

	enc, err := cfg.TextEncoding()
	assert.NoError(t, err)
	assert.Nil(t, enc, "utf-8 uses the strict path")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Configuration){
		"bad stderr":     func(c *Configuration) { c.External.Stderr = "drop" },
		"bad grace":      func(c *Configuration) { c.External.KillGrace = "soon" },
		"zero grace":     func(c *Configuration) { c.External.KillGrace = "0s" },
		"negative grace": func(c *Configuration) { c.External.KillGrace = "-1s" },
		"bad encoding":   func(c *Configuration) { c.Encoding = "klingon" },
		"zero chunk":     func(c *Configuration) { c.Stream.ChunkSize = 0 },
		"threads":        func(c *Configuration) { c.Parallel.Threads = -1 },
		"no recursion":   func(c *Configuration) { c.RecursionLimit = 0 },
		"logging level":  func(c *Configuration) { c.Logging.Level = "loud" },
	}

	for tn, mutate := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("latin-1", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Encoding = "ISO-8859-1"
		assert.NoError(t, cfg.Validate())
		enc, err := cfg.TextEncoding()
		assert.NoError(t, err)
		assert.NotNil(t, enc)
	})
}

func TestInitialize(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := log.New(io.Discard)

	cfg, err := Initialize(fs, "/etc/pipesh", logger)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.RecursionLimit)

	// Running again keeps the user's edits.
	require.NoError(t, afero.WriteFile(fs, "/etc/pipesh/config.yaml", []byte("recursion_limit: 10\n"), 0600))
	cfg, err = Initialize(fs, "/etc/pipesh", logger)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.RecursionLimit)
	assert.Equal(t, StderrInherit, cfg.External.Stderr, "unset fields keep their defaults")
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("missing", func(t *testing.T) {
		_, err := Load(fs, "/nowhere")
		assert.Error(t, err)

		cfg, err := LoadOrDefault(fs, "/nowhere")
		require.NoError(t, err)
		assert.Equal(t, defaultConfig().External, cfg.External)
	})

	t.Run("unknown field", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/bad/config.yaml", []byte("colour: blue\n"), 0600))
		_, err := Load(fs, "/bad/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/invalid/config.yaml", []byte("external:\n  stderr: drop\n"), 0600))
		_, err := Load(fs, "/invalid")
		assert.Error(t, err)
	})
}
