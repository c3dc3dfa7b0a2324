package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Language describes one gradable language. Compile and run commands are
// argv slices with {file}, {main} and {dir} placeholders expanded by the
// runner, so no language is hard-coded anywhere else in the tool.
type Language struct {
	Name        string   `toml:"name"`
	Extension   string   `toml:"extension"`    // implementation files, e.g. ".java", ".h", ".cs"
	TemplateExt string   `toml:"template_ext"` // test files, e.g. ".java", ".cpp", ".cs"
	CompileCmd  []string `toml:"compile_cmd"`
	RunCmd      []string `toml:"run_cmd"`
	// StripPackage removes package declarations from copied sources. Test
	// directories are flat, so Java files compiled there must not declare one.
	StripPackage bool `toml:"strip_package"`
}

// Class holds course identification used in report headers.
type Class struct {
	Name    string `toml:"name"`
	Section string `toml:"section"`
}

// Assignment names the assignment and its file inventory.
type Assignment struct {
	Name               string   `toml:"name"`
	RequiredFiles      []string `toml:"required_files"`
	ProvidedFiles      []string `toml:"provided_files"`
	ResourceFiles      []string `toml:"resource_files"`
	ExpectedOutputFile string   `toml:"expected_output_file"`
}

// Tests holds test identification and execution settings.
type Tests struct {
	Headers          []string `toml:"headers"`
	TimeCheckStrings []string `toml:"time_check_strings"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
}

// Roster controls how student rows are matched against submission files.
type Roster struct {
	Ignore         []string `toml:"ignore"`
	FirstNameFirst bool     `toml:"first_name_first"`
}

// Grading controls the grading run itself.
type Grading struct {
	CleanStart bool `toml:"clean_start"`
	Workers    int  `toml:"workers"`
}

// Config is the full settings tree. It is constructed once at process start
// and never mutated afterwards; every component receives it by pointer.
type Config struct {
	Class      Class      `toml:"class"`
	Assignment Assignment `toml:"assignment"`
	Tests      Tests      `toml:"tests"`
	Roster     Roster     `toml:"roster"`
	Grading    Grading    `toml:"grading"`
	Languages  []Language `toml:"languages"`
}

// Load reads a TOML configuration file, applies environment overrides from an
// optional .env file and the process environment, fills defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	// .env is optional; a missing file is not an error.
	if _, statErr := os.Stat(".env"); statErr == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AUTOGRADER_ASSIGNMENT"); v != "" {
		c.Assignment.Name = v
	}
	if v := os.Getenv("AUTOGRADER_CLASS"); v != "" {
		c.Class.Name = v
	}
	if v := os.Getenv("AUTOGRADER_SECTION"); v != "" {
		c.Class.Section = v
	}
}

func (c *Config) applyDefaults() {
	if c.Assignment.ExpectedOutputFile == "" {
		c.Assignment.ExpectedOutputFile = "ExpectedOutput.txt"
	}
	if c.Tests.TimeoutSeconds == 0 {
		c.Tests.TimeoutSeconds = 900
	}
	if c.Grading.Workers == 0 {
		c.Grading.Workers = 4
	}
	if len(c.Languages) == 0 {
		c.Languages = DefaultLanguages()
	}
}

// Validate checks invariants that every command relies on.
func (c *Config) Validate() error {
	if c.Assignment.Name == "" {
		return fmt.Errorf("assignment name is required")
	}
	seen := map[string]bool{}
	for _, lang := range c.Languages {
		if lang.Name == "" {
			return fmt.Errorf("language entry is missing a name")
		}
		if seen[lang.Name] {
			return fmt.Errorf("duplicate language name: %s", lang.Name)
		}
		seen[lang.Name] = true
		if lang.Extension == "" || lang.TemplateExt == "" {
			return fmt.Errorf("language %s must declare extension and template_ext", lang.Name)
		}
		if len(lang.RunCmd) == 0 {
			return fmt.Errorf("language %s must declare a run_cmd", lang.Name)
		}
	}
	return nil
}

// ValidateForPrep checks the additional invariants of the file preparation
// step: it cannot run against empty file-name lists or zero test headers.
func (c *Config) ValidateForPrep() error {
	if len(c.Tests.Headers) == 0 {
		return fmt.Errorf("tests.headers must be non-empty for file preparation")
	}
	if len(c.Assignment.RequiredFiles) == 0 {
		return fmt.Errorf("assignment.required_files must be non-empty for file preparation")
	}
	return nil
}

// Language returns the configured language with the given name.
func (c *Config) Language(name string) (Language, bool) {
	for _, lang := range c.Languages {
		if lang.Name == name {
			return lang, true
		}
	}
	return Language{}, false
}

// DefaultLanguages mirrors the language set the tool has historically graded.
// Order matters: language detection prefers earlier entries when a submission
// contains files for more than one.
func DefaultLanguages() []Language {
	return []Language{
		{
			Name:         "java",
			Extension:    ".java",
			TemplateExt:  ".java",
			CompileCmd:   []string{"javac", "{file}"},
			RunCmd:       []string{"java", "{main}"},
			StripPackage: true,
		},
		{
			Name:        "csharp",
			Extension:   ".cs",
			TemplateExt: ".cs",
			CompileCmd:  []string{"mcs", "-out:test.exe", "{file}"},
			RunCmd:      []string{"mono", "test.exe"},
		},
		{
			Name:        "cpp",
			Extension:   ".h",
			TemplateExt: ".cpp",
			CompileCmd:  []string{"g++", "-o", "test", "{file}"},
			RunCmd:      []string{"./test"},
		},
	}
}
