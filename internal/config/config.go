package config

import (
	"errors"
	"fmt"
	"go/token"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

// FileName is the base name of the optional configuration file searched
// for in the project directory.
const FileName = "assetbind"

// Config represents the configuration parsed from assetbind.yaml.
// All paths are relative to the project directory and use forward slashes.
type Config struct {
	// Manifest is the path of the JSON entity list.
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
	// Assets describes where entity files live.
	Assets AssetsConfig `yaml:"assets" mapstructure:"assets"`
	// Gen contains settings for code generation.
	Gen GenConfig `yaml:"gen" mapstructure:"gen"`
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// AssetsConfig describes the asset tree.
type AssetsConfig struct {
	// Root is the directory holding one subdirectory per entity.
	Root string `yaml:"root" mapstructure:"root"`
	// ConfigFile is the name of the optional config file inside each entity directory.
	ConfigFile string `yaml:"config_file" mapstructure:"config_file"`
	// ImagePatterns are doublestar patterns selecting image files by name.
	ImagePatterns []string `yaml:"image_patterns" mapstructure:"image_patterns"`
	// Font is the auxiliary binary embedded into every build.
	Font string `yaml:"font" mapstructure:"font"`
}

// GenConfig controls the generated Go file.
type GenConfig struct {
	// Output is the path of the generated file.
	Output string `yaml:"output" mapstructure:"output"`
	// Package is the package clause of the generated file.
	Package string `yaml:"package" mapstructure:"package"`
	// EmbedManifest also embeds the manifest itself as ManifestJSON.
	EmbedManifest *bool `yaml:"embed_manifest" mapstructure:"embed_manifest"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`
	// Path is the log file path. Empty logs to stderr.
	Path string `yaml:"path" mapstructure:"path"`
	// JSON switches stderr output from console formatting to JSON lines.
	JSON bool `yaml:"json" mapstructure:"json"`
}

// Defaults match the layout of a meme template plugin.
const (
	DefaultManifest     = "templates.json"
	DefaultAssetRoot    = "assets/templates"
	DefaultConfigFile   = "config.yml"
	DefaultImagePattern = "*.{jpg,png,gif}"
	DefaultFont         = "assets/fonts/TitilliumWeb-Black.ttf"
	DefaultOutput       = "embedded.go"
	DefaultPackage      = "main"
	DefaultLogLevel     = "info"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load builds the configuration from, in increasing priority: defaults,
// the config file, ASSETBIND_* environment variables and any flags already
// bound on v.
//
// If configFile is empty, assetbind.yaml is looked up in dir and its absence
// is not an error. An explicitly named file must exist.
func Load(v *viper.Viper, dir, configFile string) (*Config, error) {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("ASSETBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("assets.root", DefaultAssetRoot)
	v.SetDefault("assets.config_file", DefaultConfigFile)
	v.SetDefault("assets.image_patterns", []string{DefaultImagePattern})
	v.SetDefault("assets.font", DefaultFont)
	v.SetDefault("gen.output", DefaultOutput)
	v.SetDefault("gen.package", DefaultPackage)
	v.SetDefault("gen.embed_manifest", true)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.json", false)
}

// ApplyDefaults sets default values for configuration fields that are missing.
//
// Parameters:
//   - config: The Config object to modify.
func ApplyDefaults(config *Config) {
	if config.Manifest == "" {
		config.Manifest = DefaultManifest
	}
	if config.Assets.Root == "" {
		config.Assets.Root = DefaultAssetRoot
	}
	if config.Assets.ConfigFile == "" {
		config.Assets.ConfigFile = DefaultConfigFile
	}
	if len(config.Assets.ImagePatterns) == 0 {
		config.Assets.ImagePatterns = []string{DefaultImagePattern}
	}
	if config.Assets.Font == "" {
		config.Assets.Font = DefaultFont
	}
	if config.Gen.Output == "" {
		config.Gen.Output = DefaultOutput
	}
	if config.Gen.Package == "" {
		config.Gen.Package = DefaultPackage
	}
	if config.Gen.EmbedManifest == nil {
		t := true
		config.Gen.EmbedManifest = &t
	}
	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
}

// ShouldEmbedManifest reports whether the manifest is embedded as ManifestJSON.
func (c *Config) ShouldEmbedManifest() bool {
	return c.Gen.EmbedManifest == nil || *c.Gen.EmbedManifest
}

// Validate checks the configuration for errors such as paths escaping the
// project directory or an unusable package name.
//
// Parameters:
//   - config: The Config object to validate.
//
// Returns:
//   - error: An error if the configuration is invalid, or nil otherwise.
func Validate(config *Config) error {
	paths := []struct {
		key   string
		value string
	}{
		{"manifest", config.Manifest},
		{"assets.root", config.Assets.Root},
		{"assets.font", config.Assets.Font},
		{"gen.output", config.Gen.Output},
	}
	for _, p := range paths {
		if err := checkRelPath(p.value); err != nil {
			return fmt.Errorf("%s: %w", p.key, err)
		}
	}

	if config.Assets.ConfigFile == "" || strings.ContainsAny(config.Assets.ConfigFile, `/\`) {
		return fmt.Errorf("assets.config_file: %q must be a plain file name", config.Assets.ConfigFile)
	}

	for _, pattern := range config.Assets.ImagePatterns {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("assets.image_patterns: invalid pattern %q", pattern)
		}
	}

	if !strings.HasSuffix(config.Gen.Output, ".go") {
		return fmt.Errorf("gen.output: %q must be a .go file", config.Gen.Output)
	}
	if !token.IsIdentifier(config.Gen.Package) || config.Gen.Package == "_" {
		return fmt.Errorf("gen.package: %q is not a valid Go package name", config.Gen.Package)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("invalid logging level: %s (allowed: trace, debug, info, warn, error)", config.Logging.Level)
	}

	return nil
}

// checkRelPath rejects empty, absolute and parent-escaping paths. Generated
// //go:embed directives can only reference files inside the project.
func checkRelPath(p string) error {
	if p == "" {
		return errors.New("path cannot be empty")
	}
	if filepath.IsAbs(p) || path.IsAbs(filepath.ToSlash(p)) {
		return fmt.Errorf("path %q must be relative to the project directory", p)
	}
	cleaned := path.Clean(filepath.ToSlash(p))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path %q escapes the project directory", p)
	}
	return nil
}
