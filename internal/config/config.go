// Package config loads the toolpad.hcl project file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/hiramhuang/mui-toolpad/internal/dom"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "toolpad.hcl"

// Defaults applied to settings left unset.
const (
	DefaultDocument = "default"
	DefaultBackend  = "sqlite"
	DefaultDBPath   = "toolpad.db"
	DefaultDir      = "toolpad-docs"
)

// Config is the decoded project file:
//
//	document = "default"
//
//	store {
//	  backend = "sqlite" # or "file"
//	  path    = "toolpad.db"
//	}
//
//	session {
//	  cache_revisions = 64
//	}
type Config struct {
	Document string         `hcl:"document,optional"`
	Store    *StoreConfig   `hcl:"store,block"`
	Session  *SessionConfig `hcl:"session,block"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
}

// SessionConfig sizes the derived-index cache.
type SessionConfig struct {
	CacheRevisions int `hcl:"cache_revisions,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load decodes the file at path. A missing DefaultFile yields Default();
// any other missing path is an error.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultFile {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(path, src)
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(filename string, src []byte) (*Config, error) {
	var c Config
	if err := hclsimple.Decode(filename, src, nil, &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Document == "" {
		c.Document = DefaultDocument
	}
	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Store.Path == "" {
		if c.Store.Backend == "file" {
			c.Store.Path = DefaultDir
		} else {
			c.Store.Path = DefaultDBPath
		}
	}
	if c.Session == nil {
		c.Session = &SessionConfig{}
	}
	if c.Session.CacheRevisions == 0 {
		c.Session.CacheRevisions = dom.DefaultCacheRevisions
	}
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "file":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Session.CacheRevisions < 0 {
		return fmt.Errorf("config: cache_revisions must be positive, got %d", c.Session.CacheRevisions)
	}
	return nil
}

// Encode renders c as formatted HCL.
func Encode(c *Config) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("document", cty.StringVal(c.Document))
	body.AppendNewline()

	store := body.AppendNewBlock("store", nil).Body()
	store.SetAttributeValue("backend", cty.StringVal(c.Store.Backend))
	store.SetAttributeValue("path", cty.StringVal(c.Store.Path))
	body.AppendNewline()

	session := body.AppendNewBlock("session", nil).Body()
	session.SetAttributeValue("cache_revisions", cty.NumberIntVal(int64(c.Session.CacheRevisions)))

	return hclwrite.Format(f.Bytes())
}
