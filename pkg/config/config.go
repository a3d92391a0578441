// Package config resolves votetable settings from flags, VOTETABLE_*
// environment variables and an optional votetable.yaml file, in that order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/coolbeans/votetable/pkg/container"
	"github.com/coolbeans/votetable/pkg/filter"
	"github.com/coolbeans/votetable/pkg/votes"
	"github.com/coolbeans/votetable/pkg/votetable"
	"github.com/coolbeans/votetable/pkg/watch"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "VOTETABLE"

	// ConfigName is the base name of the config file searched for.
	ConfigName = "votetable"
)

// Config is the resolved configuration. Keys match the CLI flag names.
type Config struct {
	Data     []string `mapstructure:"data" yaml:"data"`
	GroupBy  string   `mapstructure:"group-by" yaml:"group-by"`
	Format   string   `mapstructure:"format" yaml:"format"`
	LogLevel string   `mapstructure:"log-level" yaml:"log-level"`

	Output    string `mapstructure:"output" yaml:"output"`
	Document  string `mapstructure:"document" yaml:"document"`
	ElementID string `mapstructure:"element-id" yaml:"element-id"`

	LinkPrefix string `mapstructure:"link-prefix" yaml:"link-prefix"`
	Columns    int    `mapstructure:"columns" yaml:"columns"`
	NoColor    bool   `mapstructure:"no-color" yaml:"no-color"`
	ShowLinks  bool   `mapstructure:"show-links" yaml:"show-links"`

	Party    string `mapstructure:"party" yaml:"party"`
	State    string `mapstructure:"state" yaml:"state"`
	Vote     string `mapstructure:"vote" yaml:"vote"`
	Chamber  string `mapstructure:"chamber" yaml:"chamber"`
	Name     string `mapstructure:"name" yaml:"name"`
	Congress string `mapstructure:"congress" yaml:"congress"`
	ID       string `mapstructure:"id" yaml:"id"`
	Query    string `mapstructure:"query" yaml:"query"`

	Watch    bool          `mapstructure:"watch" yaml:"watch"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

var defaults = map[string]interface{}{
	"data":        []string{},
	"group-by":    votes.GroupByParty.String(),
	"format":      string(votetable.FormatHTML),
	"log-level":   "info",
	"element-id":  container.DefaultElementID,
	"link-prefix": votetable.DefaultLinkPrefix,
	"columns":     votetable.DefaultColumnDivisor,
	"debounce":    watch.DefaultDebounce,
	"output":      "",
	"document":    "",
	"no-color":    false,
	"show-links":  false,
	"watch":       false,
	"party":       "",
	"state":       "",
	"vote":        "",
	"chamber":     "",
	"name":        "",
	"congress":    "",
	"id":          "",
	"query":       "",
}

// RegisterDataFlags adds the flags that select and filter records.
func RegisterDataFlags(fs *pflag.FlagSet) {
	fs.StringSlice("data", nil, "Dataset file(s): .json, .yaml, .csv, .msgpack, .db or Senate roll call .xml")
	fs.String("group-by", votes.GroupByParty.String(), "Group key: party, vote or state (unknown keys group by party)")
	fs.String("party", "", "Only include members of this party")
	fs.String("state", "", "Only include members from this state")
	fs.String("vote", "", "Only include this vote cast")
	fs.String("chamber", "", "Only include this chamber")
	fs.String("name", "", "Member last name or \"Last, First\", matched anywhere in the name")
	fs.String("congress", "", "Congress number, range \"[110 to 113]\" or list \"110 112\"")
	fs.String("id", "", "Only include the member with this id")
	fs.StringP("query", "q", "", "Search query, e.g. \"party: Democrat AND (state: CA OR state: NY)\"")
	fs.Bool("no-color", false, "Disable colored terminal output")
}

// RegisterRenderFlags adds the flags that shape and place the rendered table.
func RegisterRenderFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", string(votetable.FormatHTML), "Output format: html, markdown, text")
	fs.StringP("output", "o", "", "Write the table to this file (replaced on every render)")
	fs.String("document", "", "Insert the table into this existing HTML page")
	fs.String("element-id", container.DefaultElementID, "Id of the element receiving the table in --document")
	fs.String("link-prefix", votetable.DefaultLinkPrefix, "Prefix of member profile links")
	fs.Int("columns", votetable.DefaultColumnDivisor, "Column balance divisor: a column closes once it holds more than 1/N of the records")
	fs.Bool("show-links", false, "Show profile links in text output")
	fs.Bool("watch", false, "Re-render whenever a dataset file changes")
	fs.Duration("debounce", watch.DefaultDebounce, "Quiet period before re-rendering in --watch mode")
}

// Load resolves the configuration. A config file named explicitly, by
// explicitPath or VOTETABLE_CONFIG, must exist; the default search locations
// are optional.
func Load(flags *pflag.FlagSet, explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if explicitPath == "" {
		explicitPath = os.Getenv(EnvPrefix + "_CONFIG")
	}
	configureConfigFile(v, explicitPath)
	if err := readConfigFile(v, explicitPath != ""); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	return &cfg, nil
}

// Criteria returns the record filter settings.
func (c *Config) Criteria() filter.Criteria {
	return filter.Criteria{
		Party:    c.Party,
		State:    c.State,
		Vote:     c.Vote,
		Chamber:  c.Chamber,
		Name:     c.Name,
		Congress: c.Congress,
		ID:       c.ID,
		Query:    c.Query,
	}
}

// RenderOptions returns the renderer settings.
func (c *Config) RenderOptions() votetable.RenderOptions {
	return votetable.RenderOptions{
		LinkPrefix:    c.LinkPrefix,
		ColumnDivisor: c.Columns,
	}
}

// OutputConfig returns the presenter settings.
func (c *Config) OutputConfig() container.OutputConfig {
	return container.OutputConfig{
		Path:      c.Output,
		Document:  c.Document,
		ElementID: c.ElementID,
	}
}

// Validate checks the settings the render pipeline depends on.
func (c *Config) Validate() error {
	var problems []error

	if len(c.Data) == 0 {
		problems = append(problems, errors.New("at least one --data file is required"))
	}
	if _, err := votetable.ParseFormat(c.Format); err != nil {
		problems = append(problems, err)
	}
	if c.Output != "" && c.Document != "" {
		problems = append(problems, errors.New("--output and --document are mutually exclusive"))
	}
	if c.Columns < 1 {
		problems = append(problems, fmt.Errorf("--columns must be at least 1, got %d", c.Columns))
	}
	if c.Debounce < 0 {
		problems = append(problems, fmt.Errorf("--debounce must not be negative, got %s", c.Debounce))
	}
	if _, err := filter.ParseCriteria(c.Criteria()); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	for _, dir := range SearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && !strict {
			return nil
		}
		return err
	}
	return nil
}

// SearchDirs lists the directories searched for votetable.yaml.
func SearchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		dirs = append(dirs, path)
	}

	add(".")
	home, _ := os.UserHomeDir()
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "votetable"))
	} else if home != "" {
		add(filepath.Join(home, ".config", "votetable"))
	}
	if home != "" {
		add(filepath.Join(home, ".votetable"))
	}
	return dirs
}
