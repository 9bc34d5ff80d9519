package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalConfigYAML = `types:
  String:
    default: String
  Integer:
    default: int
  Object:
    default: Map
array_layout: "List<{type}>"
`

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalConfigYAML+extra), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGenerateConfigFromFlags(t *testing.T) {
	configPath := writeConfig(t, "")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs([]string{
		"--verbose",
		"--config", configPath,
		"generate",
		"--api", "spec.yaml",
		"--output", "./build",
		"--templates", "tpl",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--methods", "GET,post",
		"--paths", "^/pets",
		"--seed", "7",
		"--parallel", "4",
		"--strict-content",
		"--allow-partial",
		"--dry-run",
		"--force",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.API != "spec.yaml" {
		t.Errorf("api mismatch: got %q", captured.API)
	}
	if captured.Output != "./build" {
		t.Errorf("output mismatch: got %q", captured.Output)
	}
	if captured.Templates != "tpl" {
		t.Errorf("templates mismatch: got %q", captured.Templates)
	}
	if want := []string{"foo", "bar"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags mismatch: got %v", captured.IncludeTags)
	}
	if want := []string{"baz"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags mismatch: got %v", captured.ExcludeTags)
	}
	if want := []string{"GET", "post"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods mismatch: got %v", captured.Methods)
	}
	if want := []string{"^/pets"}; !equalStringSlices(captured.Paths, want) {
		t.Errorf("paths mismatch: got %v", captured.Paths)
	}
	if captured.Seed != 7 {
		t.Errorf("seed mismatch: got %d", captured.Seed)
	}
	if captured.Parallel != 4 {
		t.Errorf("parallel mismatch: got %d", captured.Parallel)
	}
	if !captured.StrictContent || !captured.AllowPartial {
		t.Errorf("expected strict-content and allow-partial true")
	}
	if !captured.DryRun {
		t.Errorf("expected dry-run true")
	}
	if !captured.Force {
		t.Errorf("expected force true")
	}
	if captured.Settings == nil || captured.Settings.ArrayLayout != "List<{type}>" {
		t.Errorf("expected settings from %s, got %+v", configPath, captured.Settings)
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	configPath := writeConfig(t, strings.TrimSpace(`
templates: cfg-templates
generate:
  api: config-spec.yaml
  output: from-config
  include_tags:
    - cfgFoo
  exclude-tags: cfgBar
  seed: 42
  dryRun: true
  force: false
`)+"\n")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--api", "flag-spec.yaml",
		"--include-tags", "flagTag",
		"--dry-run=false",
		"--force",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.API != "flag-spec.yaml" {
		t.Errorf("api: want %q got %q", "flag-spec.yaml", captured.API)
	}
	if captured.Output != "from-config" {
		t.Errorf("output: want from-config got %q", captured.Output)
	}
	if captured.Templates != "cfg-templates" {
		t.Errorf("templates: want cfg-templates got %q", captured.Templates)
	}
	if want := []string{"flagTag"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags: want %v got %v", want, captured.IncludeTags)
	}
	if want := []string{"cfgBar"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags: want %v got %v", want, captured.ExcludeTags)
	}
	if captured.Seed != 42 {
		t.Errorf("seed: want 42 got %d", captured.Seed)
	}
	if captured.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !captured.Force {
		t.Errorf("expected force true after flag override")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, "generate:\n  unknown: value\n")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--api", "spec.yaml",
	})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		want   string
		config string
		args   []string
	}{
		{want: "--api is required", args: []string{"generate"}},
		{want: "tags overlap", args: []string{"generate", "--api", "s.yaml", "--include-tags", "a", "--exclude-tags", "a"}},
		{want: "unsupported method", args: []string{"generate", "--api", "s.yaml", "--methods", "connect"}},
		{want: "must be at least 1", args: []string{"generate", "--api", "s.yaml", "--parallel", "0"}},
		{want: "cannot be used together", args: []string{"-q", "-v", "generate", "--api", "s.yaml"}},
		{want: "invalid integer value", config: "generate:\n  seed: abc\n", args: []string{"generate", "--api", "s.yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			t.Parallel()
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"--config", writeConfig(t, tc.config)}, tc.args...))

			err := root.Execute()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestGenerateConfigInvalidSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("types:\n  String:\n    default: String\narray_layout: List\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", path, "generate", "--api", "s.yaml"})

	err := root.Execute()
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "config: ") || !strings.Contains(err.Error(), "{type}") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigMissingFile(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "generate", "--api", "s.yaml"})

	err := root.Execute()
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestDeriveOutDir(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Swagger Petstore":  "swagger-petstore",
		"  My_API v1.2  ":   "my-api-v1-2",
		"":                  "",
		"Billing/Invoices:": "billing-invoices",
	}
	for in, want := range cases {
		if got := deriveOutDir(in); got != want {
			t.Errorf("deriveOutDir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValueAsInt(t *testing.T) {
	t.Parallel()
	for _, v := range []any{3, int64(3), uint64(3), float64(3), " 3 "} {
		got, err := valueAsInt(v)
		if err != nil || got != 3 {
			t.Errorf("valueAsInt(%#v) = %d, %v", v, got, err)
		}
	}
	if _, err := valueAsInt(1.5); err == nil {
		t.Errorf("expected error for fractional value")
	}
	if _, err := valueAsInt([]any{}); err == nil {
		t.Errorf("expected error for list")
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
