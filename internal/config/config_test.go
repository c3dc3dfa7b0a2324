package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CJFEdu/AutoGrader/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autograder.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[assignment]
name = "Assignment4"
required_files = ["MyList"]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "Assignment4", cfg.Assignment.Name)
	require.Equal(t, "ExpectedOutput.txt", cfg.Assignment.ExpectedOutputFile)
	require.Equal(t, 900, cfg.Tests.TimeoutSeconds)
	require.Equal(t, 4, cfg.Grading.Workers)
	require.Len(t, cfg.Languages, 3)

	// Detection prefers earlier entries, so the default order is fixed.
	names := make([]string, len(cfg.Languages))
	for i, lang := range cfg.Languages {
		names[i] = lang.Name
	}
	require.Equal(t, []string{"java", "csharp", "cpp"}, names)

	java, ok := cfg.Language("java")
	require.True(t, ok)
	require.Equal(t, ".java", java.Extension)
	require.Contains(t, java.RunCmd, "{main}")
	require.True(t, java.StripPackage)

	cpp, ok := cfg.Language("cpp")
	require.True(t, ok)
	require.Equal(t, ".h", cpp.Extension)
	require.Equal(t, ".cpp", cpp.TemplateExt)
	require.False(t, cpp.StripPackage)

	_, ok = cfg.Language("fortran")
	require.False(t, ok)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[class]
name = "CS 310"
section = "002"

[assignment]
name = "Assignment4"
required_files = ["MyList", "MyQueue"]
provided_files = ["Node"]
resource_files = ["words.txt"]

[tests]
headers = ["Test 1", "Test 2"]
time_check_strings = ["Insert complete", "Remove complete"]
timeout_seconds = 30

[roster]
ignore = ["dropout1"]
first_name_first = true

[grading]
clean_start = true
workers = 2

[[languages]]
name = "java"
extension = ".java"
template_ext = ".java"
compile_cmd = ["javac", "{file}"]
run_cmd = ["java", "{main}"]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "CS 310", cfg.Class.Name)
	require.Equal(t, "002", cfg.Class.Section)
	require.Equal(t, []string{"MyList", "MyQueue"}, cfg.Assignment.RequiredFiles)
	require.Equal(t, []string{"Test 1", "Test 2"}, cfg.Tests.Headers)
	require.Equal(t, 30, cfg.Tests.TimeoutSeconds)
	require.True(t, cfg.Roster.FirstNameFirst)
	require.True(t, cfg.Grading.CleanStart)
	require.Equal(t, 2, cfg.Grading.Workers)
	require.Len(t, cfg.Languages, 1)
	require.NoError(t, cfg.ValidateForPrep())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[assignment]
name = "Assignment4"
required_files = ["MyList"]
`)

	t.Setenv("AUTOGRADER_ASSIGNMENT", "Assignment5")
	t.Setenv("AUTOGRADER_CLASS", "CS 211")
	t.Setenv("AUTOGRADER_SECTION", "004")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "Assignment5", cfg.Assignment.Name)
	require.Equal(t, "CS 211", cfg.Class.Name)
	require.Equal(t, "004", cfg.Class.Section)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidateRejectsBadLanguages(t *testing.T) {
	for name, content := range map[string]string{
		"missing assignment name": `
[[languages]]
name = "java"
extension = ".java"
template_ext = ".java"
run_cmd = ["java", "{main}"]
`,
		"duplicate language": `
[assignment]
name = "A1"

[[languages]]
name = "java"
extension = ".java"
template_ext = ".java"
run_cmd = ["java", "{main}"]

[[languages]]
name = "java"
extension = ".java"
template_ext = ".java"
run_cmd = ["java", "{main}"]
`,
		"missing run_cmd": `
[assignment]
name = "A1"

[[languages]]
name = "java"
extension = ".java"
template_ext = ".java"
`,
		"missing extension": `
[assignment]
name = "A1"

[[languages]]
name = "java"
run_cmd = ["java", "{main}"]
`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestValidateForPrepRequiresHeadersAndFiles(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
[assignment]
name = "A1"
`))
	require.NoError(t, err)
	require.Error(t, cfg.ValidateForPrep())

	cfg.Tests.Headers = []string{"Test 1"}
	require.Error(t, cfg.ValidateForPrep())

	cfg.Assignment.RequiredFiles = []string{"MyList"}
	require.NoError(t, cfg.ValidateForPrep())
}
