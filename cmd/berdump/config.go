package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidjspooner/mms-ber/internal/framework"
	"github.com/google/gopacket/layers"
	"gopkg.in/yaml.v3"
)

type CaptureConfig struct {
	Protocol string `yaml:"protocol"`
	Port     uint16 `yaml:"port"`
	TPKT     bool   `yaml:"tpkt"`
	// Skip drops a fixed number of leading bytes from every payload. It only
	// suits captures whose session and presentation headers never vary.
	Skip int `yaml:"skip"`
}

type Config struct {
	Schemas     []string           `yaml:"schemas"`
	MMS         *bool              `yaml:"mms"`
	Root        string             `yaml:"root"`
	Strict      bool               `yaml:"strict"`
	MaxDepth    int                `yaml:"max_depth"`
	LogLevel    string             `yaml:"log_level"`
	MetricsFile string             `yaml:"metrics_file"`
	Capture     CaptureConfig      `yaml:"capture"`
	Reports     []framework.Config `yaml:"reports"`
	Publishers  []framework.Config `yaml:"publishers"`

	level slog.Level
}

func LoadConfig(configPath string) (*Config, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	config, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	config.relativeTo(filepath.Dir(configPath))
	return config, nil
}

// ParseConfig reads a YAML config and fills in defaults. Unknown keys are an
// error.
func ParseConfig(r io.Reader) (*Config, error) {
	config := &Config{}
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(config); err != nil && err != io.EOF {
		return nil, err
	}
	if err := config.setDefaults(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig decodes the built-in MMS types and prints every frame.
func DefaultConfig() *Config {
	config, err := ParseConfig(bytes.NewReader(nil))
	if err != nil {
		panic(err)
	}
	return config
}

func (c *Config) setDefaults() error {
	if c.MMS == nil {
		builtin := len(c.Schemas) == 0
		c.MMS = &builtin
	}
	if c.Root == "" {
		c.Root = "MMSpdu"
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if c.Capture.Skip < 0 {
		return fmt.Errorf("capture skip must not be negative")
	}
	if _, err := c.Capture.protocol(); err != nil {
		return err
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if err := c.level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("could not parse log level: %w", err)
	}
	return nil
}

func (cc CaptureConfig) protocol() (layers.IPProtocol, error) {
	switch strings.ToLower(cc.Protocol) {
	case "":
		return 0, nil
	case "tcp":
		return layers.IPProtocolTCP, nil
	case "udp":
		return layers.IPProtocolUDP, nil
	}
	return 0, fmt.Errorf("capture protocol %q should be tcp or udp", cc.Protocol)
}

// relativeTo resolves the file names of a config against its directory.
func (c *Config) relativeTo(dir string) {
	resolve := func(path string) string {
		if path == "" || path == "-" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}
	for i, s := range c.Schemas {
		c.Schemas[i] = resolve(s)
	}
	c.MetricsFile = resolve(c.MetricsFile)
	for _, r := range c.Reports {
		if name, ok := r["template_file"].(string); ok {
			r["template_file"] = resolve(name)
		}
	}
	for _, p := range c.Publishers {
		if name, ok := p["filename"].(string); ok {
			p["filename"] = resolve(name)
		}
	}
}
