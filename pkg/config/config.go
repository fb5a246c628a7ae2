// Package config reads the configuration file of the render host.
//
// The file is written in HCL:
//
//	listen {
//	  network = "unix"
//	  address = "/tmp/guictl.sock"
//	}
//	tick_interval = "20ms"
//	max_queue     = 4096
//	max_retries   = 500
//	template      = "lab.yaml"
//	dashboard     = true
//
// All settings are optional. Expressions can refer to env, an object of the
// environment variables, and hostname.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Defaults.
const (
	DefaultNetwork      = "tcp"
	DefaultAddress      = "127.0.0.1:7100"
	DefaultTickInterval = 20 * time.Millisecond
	DefaultMaxQueue     = 4096
	DefaultMaxRetries   = 500
)

// Config is the configuration of a render host.
type Config struct {
	Network string
	Address string

	TickInterval time.Duration
	// Maximum number of queued configuration requests. The queue is always
	// bounded, so it must be positive.
	MaxQueue int
	// Number of failed attempts after which a configuration request is
	// dropped. 0 means never.
	MaxRetries int

	// Path of the widget template. Empty means the built-in template.
	Template string
	// Whether to show the dashboard when stdout is a terminal.
	Dashboard bool
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Network:      DefaultNetwork,
		Address:      DefaultAddress,
		TickInterval: DefaultTickInterval,
		MaxQueue:     DefaultMaxQueue,
		MaxRetries:   DefaultMaxRetries,
		Dashboard:    true,
	}
}

// Settings absent from the file are left nil.
type file struct {
	Listen       *listenBlock `hcl:"listen,block"`
	TickInterval *string      `hcl:"tick_interval,optional"`
	MaxQueue     *int         `hcl:"max_queue,optional"`
	MaxRetries   *int         `hcl:"max_retries,optional"`
	Template     *string      `hcl:"template,optional"`
	Dashboard    *bool        `hcl:"dashboard,optional"`
}

type listenBlock struct {
	Network *string `hcl:"network,optional"`
	Address *string `hcl:"address,optional"`
}

// Load reads the configuration file at path. A relative template path is
// resolved against the directory of the file.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	if c.Template != "" && !filepath.IsAbs(c.Template) {
		c.Template = filepath.Join(filepath.Dir(path), c.Template)
	}
	return c, nil
}

// Parse parses a configuration file. The filename is only used in error
// messages.
func Parse(src []byte, filename string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	var raw file
	diags = gohcl.DecodeBody(f.Body, evalContext(), &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", filename, diags)
	}

	c := Default()
	if l := raw.Listen; l != nil {
		set(&c.Network, l.Network)
		set(&c.Address, l.Address)
	}
	if raw.TickInterval != nil {
		d, err := time.ParseDuration(*raw.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("%s: tick_interval: %w", filename, err)
		}
		c.TickInterval = d
	}
	set(&c.MaxQueue, raw.MaxQueue)
	set(&c.MaxRetries, raw.MaxRetries)
	set(&c.Template, raw.Template)
	set(&c.Dashboard, raw.Dashboard)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return fmt.Errorf("unsupported network %q", c.Network)
	}
	if c.Address == "" {
		return fmt.Errorf("empty address")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	if c.MaxQueue <= 0 {
		return fmt.Errorf("max_queue must be positive, got %d", c.MaxQueue)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok && name != "" {
			vars[name] = cty.StringVal(value)
		}
	}
	hostname, _ := os.Hostname()
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":      cty.ObjectVal(vars),
			"hostname": cty.StringVal(hostname),
		},
	}
}
