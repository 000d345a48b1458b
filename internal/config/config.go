// Package config loads the themecheck TOML configuration and resolves it
// against the registered checks.
package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar"

	"themecheck/internal/check"
	"themecheck/internal/diag"
)

// Presets selectable with `extends`.
const (
	ExtendsRecommended = "recommended"
	ExtendsAll         = "all"
	ExtendsNothing     = "nothing"
)

var (
	// ErrUnknownKey indicates a key the configuration format does not define.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrUnknownCheck indicates a [checks.<id>] section for an unregistered check.
	ErrUnknownCheck = errors.New("unknown check")
)

// CheckConfig is one [checks.<id>] section.
type CheckConfig struct {
	Enabled  *bool          `toml:"enabled"`
	Severity string         `toml:"severity"`
	Settings map[string]any `toml:"settings"`
}

// Config is the decoded configuration file.
type Config struct {
	Extends string                 `toml:"extends"`
	Ignore  []string               `toml:"ignore"`
	Checks  map[string]CheckConfig `toml:"checks"`
}

// Default is the configuration used without --config.
func Default() *Config {
	return &Config{Extends: ExtendsRecommended, Checks: map[string]CheckConfig{}}
}

// Load decodes path. Unknown keys are errors; check settings are free-form.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses configuration text; used for tests and stdin.
func Decode(text string) (*Config, error) {
	cfg := Default()
	meta, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Extends {
	case "":
		c.Extends = ExtendsRecommended
	case ExtendsRecommended, ExtendsAll, ExtendsNothing:
	default:
		return fmt.Errorf("invalid extends %q", c.Extends)
	}
	for id, cc := range c.Checks {
		if cc.Severity == "" {
			continue
		}
		if _, err := diag.ParseSeverity(cc.Severity); err != nil {
			return fmt.Errorf("checks.%s: %w", id, err)
		}
	}
	return nil
}

// Ignored reports whether the theme-relative path rel matches an ignore
// pattern. A pattern also ignores everything below a matching directory.
func (c *Config) Ignored(rel string) bool {
	for _, pattern := range c.Ignore {
		pattern = strings.TrimSuffix(pattern, "/")
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}

// Selection narrows the enabled checks from the command line.
type Selection struct {
	Only    []string
	Exclude []string
}

// Resolved is the set of checks to run with their settings.
type Resolved struct {
	Checks   []check.Check
	Settings map[string]check.Settings
}

// Resolve applies the configuration to the registered checks.
func (c *Config) Resolve(available []check.Check, sel Selection) (*Resolved, error) {
	byID := make(map[string]check.Check, len(available))
	for _, chk := range available {
		byID[strings.ToLower(chk.Meta().ID)] = chk
	}
	lookup := func(id string) (check.Check, error) {
		chk, ok := byID[strings.ToLower(id)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCheck, id)
		}
		return chk, nil
	}
	for id := range c.Checks {
		if _, err := lookup(id); err != nil {
			return nil, err
		}
	}
	for _, id := range slices.Concat(sel.Only, sel.Exclude) {
		if _, err := lookup(id); err != nil {
			return nil, err
		}
	}

	res := &Resolved{Settings: make(map[string]check.Settings)}
	for _, chk := range available {
		meta := chk.Meta()
		cc, hasSection := c.section(meta.ID)

		enabled := c.preset(meta)
		if hasSection && cc.Enabled != nil {
			enabled = *cc.Enabled
		}
		if len(sel.Only) > 0 {
			enabled = containsFold(sel.Only, meta.ID)
		}
		if containsFold(sel.Exclude, meta.ID) {
			enabled = false
		}
		if !enabled {
			continue
		}

		if hasSection && cc.Severity != "" {
			sev, _ := diag.ParseSeverity(cc.Severity)
			chk = check.WithSeverity(chk, sev)
		}
		if hasSection && len(cc.Settings) > 0 {
			res.Settings[meta.ID] = check.Settings(cc.Settings)
		}
		res.Checks = append(res.Checks, chk)
	}
	sort.Slice(res.Checks, func(i, j int) bool { return res.Checks[i].Meta().ID < res.Checks[j].Meta().ID })
	return res, nil
}

func (c *Config) preset(meta *check.Meta) bool {
	switch c.Extends {
	case ExtendsAll:
		return true
	case ExtendsNothing:
		return false
	default:
		return meta.Docs.Recommended
	}
}

func (c *Config) section(id string) (CheckConfig, bool) {
	if cc, ok := c.Checks[id]; ok {
		return cc, true
	}
	for key, cc := range c.Checks {
		if strings.EqualFold(key, id) {
			return cc, true
		}
	}
	return CheckConfig{}, false
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}
