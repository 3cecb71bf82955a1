// Package config loads xliffmerge profiles.
//
// A profile is a JSON, YAML or TOML file with a single top-level key,
// xliffmergeOptions. Relative directories in a profile are resolved against
// the directory of the profile file. Values left empty fall back to the
// defaults applied by ApplyDefaults; Validate reports every problem at once.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/xliffmerge/document"
	"github.com/minios-linux/xliffmerge/settings"
)

// ---------------------------------------------------------------------------
// Profile schema
// ---------------------------------------------------------------------------

// ProfileFileName is the profile read when none is given.
const ProfileFileName = "xliffmerge.json"

// EnvAPIKey is the environment variable holding the translation API key.
const EnvAPIKey = settings.EnvAPIKey

// Profile is the top-level structure of a profile file.
type Profile struct {
	Options Options `yaml:"xliffmergeOptions"`
}

// Options are the settings of one xliffmerge run.
type Options struct {
	Quiet   bool `yaml:"quiet,omitempty"`
	Verbose bool `yaml:"verbose,omitempty"`
	// AllowIDChange recovers translations of units whose generated id
	// changed while their source stayed the same.
	AllowIDChange bool `yaml:"allowIdChange,omitempty"`
	// DefaultLanguage is the language of the master's source texts (default "en").
	DefaultLanguage string `yaml:"defaultLanguage,omitempty"`
	// SrcDir contains the master file (default ".").
	SrcDir string `yaml:"srcDir,omitempty"`
	// GenDir receives the language files (default SrcDir).
	GenDir string `yaml:"genDir,omitempty"`
	// I18nFile is the master file name inside SrcDir (default "messages.<ext>").
	I18nFile string `yaml:"i18nFile,omitempty"`
	// I18nBaseFile is the name prefix of language files (default "messages").
	I18nBaseFile string `yaml:"i18nBaseFile,omitempty"`
	// I18nFormat is one of xlf, xlf2 or xmb (default "xlf").
	I18nFormat string `yaml:"i18nFormat,omitempty"`
	// Encoding is used for files that declare none (default "UTF-8").
	Encoding  string   `yaml:"encoding,omitempty"`
	Languages []string `yaml:"languages,omitempty"`

	RemoveUnusedIDs   *bool  `yaml:"removeUnusedIds,omitempty"`
	UseSourceAsTarget *bool  `yaml:"useSourceAsTarget,omitempty"`
	TargetPraefix     string `yaml:"targetPraefix,omitempty"`
	TargetSuffix      string `yaml:"targetSuffix,omitempty"`
	PreserveOrder     *bool  `yaml:"preserveOrder,omitempty"`

	// --- ngx-translate export ---

	SupportNgxTranslate           bool   `yaml:"supportNgxTranslate,omitempty"`
	NgxTranslateExtractionPattern string `yaml:"ngxTranslateExtractionPattern,omitempty"`

	// --- auto-translate ---

	Autotranslate Autotranslate `yaml:"autotranslate,omitempty"`
	// Provider is the translation service id (default "google").
	Provider    string `yaml:"provider,omitempty"`
	APIKey      string `yaml:"apikey,omitempty"`
	APIKeyFile  string `yaml:"apikeyfile,omitempty"`
	ProviderURL string `yaml:"providerUrl,omitempty"`
	Model       string `yaml:"model,omitempty"`

	// LanguageMasters maps a language to a file whose translations are
	// reused for units that language does not have yet.
	LanguageMasters map[string]string `yaml:"languageMasters,omitempty"`
	// Parallel bounds the number of languages processed at once (default 3).
	Parallel int `yaml:"parallel,omitempty"`

	// BaseDir is the directory relative paths are resolved against. It is
	// not read from the profile.
	BaseDir string `yaml:"-"`
}

// Autotranslate is either a boolean (all languages) or a list of
// languages in a profile.
type Autotranslate struct {
	All       bool
	Languages []string
}

func (a *Autotranslate) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := n.Decode(&b); err != nil {
			return fmt.Errorf("autotranslate: expected true, false or a list of languages: %w", err)
		}
		*a = Autotranslate{All: b}
		return nil
	case yaml.SequenceNode:
		var langs []string
		if err := n.Decode(&langs); err != nil {
			return fmt.Errorf("autotranslate: %w", err)
		}
		*a = Autotranslate{Languages: langs}
		return nil
	}
	return fmt.Errorf("line %d: autotranslate: expected true, false or a list of languages", n.Line)
}

func (a Autotranslate) MarshalYAML() (any, error) {
	if len(a.Languages) > 0 {
		return a.Languages, nil
	}
	return a.All, nil
}

func (a Autotranslate) IsZero() bool { return !a.All && len(a.Languages) == 0 }

// Enabled reports whether lang is auto-translated.
func (a Autotranslate) Enabled(lang string) bool {
	return a.All || slices.Contains(a.Languages, lang)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads a profile. An empty path reads ProfileFileName from the
// working directory; if that file does not exist the defaults are used.
// Defaults are applied to the returned options.
func Load(path string) (*Options, error) {
	explicit := path != ""
	if !explicit {
		path = ProfileFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			o := &Options{BaseDir: "."}
			o.ApplyDefaults()
			return o, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	p, err := parseProfile(path, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	o := &p.Options
	o.BaseDir = filepath.Dir(path)
	o.ApplyDefaults()
	return o, nil
}

// parseProfile decodes a profile by file extension. TOML is converted to a
// generic map first so the yaml tags apply to every format.
func parseProfile(path string, data []byte) (*Profile, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		var err error
		if data, err = yaml.Marshal(raw); err != nil {
			return nil, err
		}
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadDotEnv loads a .env file from dir into the environment. Variables
// already set are kept. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// ApplyDefaults fills every unset option. Languages are detected from the
// language files in GenDir when none are configured.
func (o *Options) ApplyDefaults() {
	if o.BaseDir == "" {
		o.BaseDir = "."
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = "en"
	}
	if o.SrcDir == "" {
		o.SrcDir = "."
	}
	if o.GenDir == "" {
		o.GenDir = o.SrcDir
	}
	if o.I18nFormat == "" {
		o.I18nFormat = string(document.XLIFF12)
	}
	if o.I18nFile == "" {
		ext := "xlf"
		if f, err := document.ParseFormat(o.I18nFormat); err == nil {
			ext = f.Extension()
		}
		o.I18nFile = "messages." + ext
	}
	if o.I18nBaseFile == "" {
		o.I18nBaseFile = "messages"
	}
	if o.Encoding == "" {
		o.Encoding = "UTF-8"
	}
	if o.NgxTranslateExtractionPattern == "" {
		o.NgxTranslateExtractionPattern = "@@|ngx-translate"
	}
	if o.Provider == "" {
		o.Provider = "google"
	}
	if o.Parallel == 0 {
		o.Parallel = 3
	}
	if len(o.Languages) == 0 {
		o.Languages = o.detectLanguages()
	}
	if len(o.Languages) == 0 {
		o.Languages = []string{o.DefaultLanguage}
	}
}

// detectLanguages finds languages from "<base>.<lang>.<ext>" files in
// GenDir.
func (o *Options) detectLanguages() []string {
	entries, err := os.ReadDir(o.GenDirPath())
	if err != nil {
		return nil
	}
	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, o.I18nBaseFile+".") {
			continue
		}
		switch filepath.Ext(name) {
		case ".xlf", ".xtb":
		default:
			continue
		}
		if lang := document.GuessLanguageFromFilename(name); lang != "" && !slices.Contains(langs, lang) {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// RemoveUnused reports whether units missing from the master are deleted
// (default true).
func (o *Options) RemoveUnused() bool { return o.RemoveUnusedIDs == nil || *o.RemoveUnusedIDs }

// SourceAsTarget reports whether new units get the source as target
// (default true).
func (o *Options) SourceAsTarget() bool { return o.UseSourceAsTarget == nil || *o.UseSourceAsTarget }

// KeepOrder reports whether new units are placed after their master
// predecessor (default true).
func (o *Options) KeepOrder() bool { return o.PreserveOrder == nil || *o.PreserveOrder }

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func (o *Options) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.BaseDir, p)
}

// SrcDirPath returns the resolved source directory.
func (o *Options) SrcDirPath() string { return o.resolve(o.SrcDir) }

// GenDirPath returns the resolved output directory.
func (o *Options) GenDirPath() string { return o.resolve(o.GenDir) }

// MasterPath returns the path of the master file.
func (o *Options) MasterPath() string {
	return filepath.Join(o.SrcDirPath(), o.I18nFile)
}

// Format returns the configured master format.
func (o *Options) Format() (document.Format, error) {
	return document.ParseFormat(o.I18nFormat)
}

// LanguagePath returns the path of the language file for lang.
func (o *Options) LanguagePath(lang string) string {
	ext := "xlf"
	if f, err := o.Format(); err == nil {
		ext = f.TranslationFormat().Extension()
	}
	return filepath.Join(o.GenDirPath(), fmt.Sprintf("%s.%s.%s", o.I18nBaseFile, lang, ext))
}

// NgxPath returns the path of the ngx-translate JSON file for lang.
func (o *Options) NgxPath(lang string) string {
	return filepath.Join(o.GenDirPath(), fmt.Sprintf("%s.%s.json", o.I18nBaseFile, lang))
}

// LanguageMasterPath returns the resolved language master of lang, or "".
func (o *Options) LanguageMasterPath(lang string) string {
	p, ok := o.LanguageMasters[lang]
	if !ok || p == "" {
		return ""
	}
	return o.resolve(p)
}

// APIKeyFilePath returns the resolved apikeyfile, or "".
func (o *Options) APIKeyFilePath() string {
	if o.APIKeyFile == "" {
		return ""
	}
	return o.resolve(o.APIKeyFile)
}
