// Package config loads the immutable run configuration for image-craft.
//
// Configuration comes from three layers, applied in order:
//  1. Default(), which mirrors the stock responsive-image settings
//  2. an optional file (YAML, or JSON with comments), chosen by extension
//  3. environment variables, after a best-effort .env load
//
// The result is normalized and validated once, then passed by value to every
// component. Nothing mutates it during a run.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-craft/internal/variant"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// LedgerFilename is written under the target directory at the end of a run.
const LedgerFilename = "images-log.json"

// Config is the process-wide configuration.
type Config struct {
	// UseResponsiveImages switches markup between derivative URLs on the
	// target disk and the untouched source on the source disk.
	UseResponsiveImages bool `yaml:"use_responsive_images" json:"use_responsive_images"`

	SourceDisk      string `yaml:"source_disk" json:"source_disk"`
	TargetDisk      string `yaml:"target_disk" json:"target_disk"`
	SourceDirectory string `yaml:"source_directory" json:"source_directory"`
	TargetDirectory string `yaml:"target_directory" json:"target_directory"`

	// Sizes are the breakpoint widths, ascending.
	Sizes []int `yaml:"sizes" json:"sizes"`

	// Extensions are the target formats.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// ExtensionFilterRules maps a source format to the formats never
	// generated from it.
	ExtensionFilterRules map[string][]string `yaml:"extensions_filters_rules" json:"extensions_filters_rules"`

	ExtensionsToIgnore      []string `yaml:"extensions_to_ignore" json:"extensions_to_ignore"`
	FilenameToIgnore        []string `yaml:"filename_to_ignore" json:"filename_to_ignore"`
	SupportedFileExtensions []string `yaml:"supported_file_extensions" json:"supported_file_extensions"`

	FilenameSpacer        string `yaml:"filename_spacer" json:"filename_spacer"`
	ContainerCSSClassName string `yaml:"container_css_class_name" json:"container_css_class_name"`

	// AltFallback is used for alt text when markup is rendered without one.
	AltFallback string `yaml:"alt_fallback" json:"alt_fallback"`

	// Quality is the lossy encode quality (1-100).
	Quality int `yaml:"quality" json:"quality"`

	// Concurrency bounds the number of sources processed at once.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// Disks are the named storage backends referenced by SourceDisk and
	// TargetDisk.
	Disks map[string]Disk `yaml:"disks" json:"disks"`
}

// Disk describes one named storage backend.
type Disk struct {
	// Driver is "local" or "s3".
	Driver string `yaml:"driver" json:"driver"`

	// Root is the directory for local disks.
	Root string `yaml:"root" json:"root"`

	// URL is the public base URL used in rendered markup.
	URL string `yaml:"url" json:"url"`

	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region" json:"region"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`

	// Prefix is prepended to every object key on s3 disks.
	Prefix string `yaml:"prefix" json:"prefix"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		UseResponsiveImages: true,
		SourceDisk:          "local",
		TargetDisk:          "s3",
		SourceDirectory:     "images",
		TargetDirectory:     "images",
		Sizes:               []int{320, 640, 880, 1024, 1200, 1760, 2100},
		Extensions:          []string{"jpg", "png", "avif", "webp"},
		ExtensionFilterRules: map[string][]string{
			"jpg":  {"png"},
			"png":  {"jpg"},
			"webp": {},
			"avif": {},
		},
		ExtensionsToIgnore:      []string{"svg"},
		FilenameToIgnore:        []string{"favicon"},
		SupportedFileExtensions: []string{"jpg", "webp", "png", "avif", "gif", "tiff", "pjpg"},
		FilenameSpacer:          variant.DefaultSpacer,
		ContainerCSSClassName:   "img-container",
		AltFallback:             "image-craft",
		Quality:                 82,
		Concurrency:             runtime.NumCPU(),
		Disks: map[string]Disk{
			"local": {Driver: "local", Root: filepath.Join("storage", "app")},
			"public": {
				Driver: "local",
				Root:   filepath.Join("storage", "app", "public"),
				URL:    "/storage",
			},
			"s3": {Driver: "s3", Region: "us-east-1", UseSSL: true},
		},
	}
}

// Load builds the configuration from path (optional, "" for defaults) and
// the environment, then normalizes and validates it.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnvironment(os.LookupEnv)
	cfg.Normalize(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a configuration file into c. Maps merge key by key;
// lists replace the default wholesale.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return fmt.Errorf("%w: unsupported config file type %q", ErrInvalid, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Normalize lower-cases format names, removes duplicate breakpoints and
// drops exclusion rules that reference formats outside Extensions.
func (c *Config) Normalize(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c.Extensions = lowerAll(c.Extensions)
	c.ExtensionsToIgnore = lowerAll(c.ExtensionsToIgnore)
	c.SupportedFileExtensions = lowerAll(c.SupportedFileExtensions)
	c.Sizes = variant.NewSizeSelector(c.Sizes).All()

	rules := make(map[string][]string, len(c.ExtensionFilterRules))
	for from, skip := range c.ExtensionFilterRules {
		from = strings.ToLower(from)
		if !slices.Contains(c.Extensions, from) {
			logger.Warn("ignoring exclusion rule for unknown format", "format", from)
			continue
		}
		kept := make([]string, 0, len(skip))
		for _, f := range lowerAll(skip) {
			if !slices.Contains(c.Extensions, f) {
				logger.Warn("ignoring excluded format not in extensions", "format", from, "excluded", f)
				continue
			}
			kept = append(kept, f)
		}
		rules[from] = kept
	}
	c.ExtensionFilterRules = rules

	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
}

// Validate checks the prerequisites of a run. It is called by Load and
// fails before any processing starts.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FilenameSpacer) == "" {
		return fmt.Errorf("%w: filename_spacer is empty", ErrInvalid)
	}
	if strings.ContainsAny(c.FilenameSpacer, "/.") {
		return fmt.Errorf("%w: filename_spacer %q must not contain '/' or '.'", ErrInvalid, c.FilenameSpacer)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1-100", ErrInvalid, c.Quality)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no target extensions", ErrInvalid)
	}

	if _, err := c.Disk(c.SourceDisk); err != nil {
		return err
	}
	target, err := c.Disk(c.TargetDisk)
	if err != nil {
		return err
	}
	if strings.TrimSpace(target.URL) == "" {
		return fmt.Errorf("%w: target disk %q has no url", ErrInvalid, c.TargetDisk)
	}
	if _, err := url.Parse(target.URL); err != nil {
		return fmt.Errorf("%w: target disk %q url: %v", ErrInvalid, c.TargetDisk, err)
	}
	return nil
}

// Disk returns the named disk definition.
func (c *Config) Disk(name string) (Disk, error) {
	d, ok := c.Disks[name]
	if !ok {
		return Disk{}, fmt.Errorf("%w: disk %q is not defined", ErrInvalid, name)
	}
	return d, nil
}

// Rules builds the classification, format, size and addressing rules shared
// by the generator and the reconstructor.
func (c *Config) Rules() variant.Rules {
	return variant.Rules{
		Classifier: variant.NewClassifier(c.SupportedFileExtensions, c.ExtensionsToIgnore, c.FilenameToIgnore),
		Formats:    variant.NewFormatMatrix(c.Extensions, c.ExtensionFilterRules),
		Sizes:      variant.NewSizeSelector(c.Sizes),
		Spacer:     c.FilenameSpacer,
	}
}

// LedgerPath returns the ledger's path on the target disk.
func (c *Config) LedgerPath() string {
	dir := strings.Trim(c.TargetDirectory, "/")
	if dir == "" {
		return LedgerFilename
	}
	return dir + "/" + LedgerFilename
}

// InPlace reports whether derivatives land on the storage their sources are
// read from. Addresses are source-relative paths, so the derivatives then
// sit next to their sources.
func (c *Config) InPlace() bool {
	if c.SourceDisk == c.TargetDisk {
		return true
	}
	src, err := c.Disk(c.SourceDisk)
	if err != nil {
		return false
	}
	dst, err := c.Disk(c.TargetDisk)
	if err != nil {
		return false
	}
	return src.sameStorage(dst)
}

// sameStorage compares storage locations. Memory disks are never shared
// between definitions.
func (d Disk) sameStorage(o Disk) bool {
	driver, other := d.driver(), o.driver()
	if driver != other {
		return false
	}
	switch driver {
	case "local":
		return absPath(d.Root) == absPath(o.Root)
	case "s3":
		return d.Endpoint == o.Endpoint &&
			d.Bucket == o.Bucket &&
			strings.Trim(d.Prefix, "/") == strings.Trim(o.Prefix, "/")
	default:
		return false
	}
}

func (d Disk) driver() string {
	driver := strings.ToLower(strings.TrimSpace(d.Driver))
	if driver == "" {
		return "local"
	}
	return driver
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// WithOverrides returns a copy with the source disk and directory replaced
// when the arguments are non-empty.
func (c *Config) WithOverrides(sourceDisk, sourceDirectory string) *Config {
	out := *c
	if sourceDisk != "" {
		out.SourceDisk = sourceDisk
	}
	if sourceDirectory != "" {
		out.SourceDirectory = sourceDirectory
	}
	return &out
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(v), "."))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
