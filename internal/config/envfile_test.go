package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv_SetsMissingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "FOUNDRY_TEST_FOO=bar\nFOUNDRY_TEST_QUOTED=\"hello world\"\nFOUNDRY_TEST_SINGLE='x y'\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	for _, key := range []string{"FOUNDRY_TEST_FOO", "FOUNDRY_TEST_QUOTED", "FOUNDRY_TEST_SINGLE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}

	if got := os.Getenv("FOUNDRY_TEST_FOO"); got != "bar" {
		t.Fatalf("FOO = %q, want %q", got, "bar")
	}
	if got := os.Getenv("FOUNDRY_TEST_QUOTED"); got != "hello world" {
		t.Fatalf("QUOTED = %q, want %q", got, "hello world")
	}
	if got := os.Getenv("FOUNDRY_TEST_SINGLE"); got != "x y" {
		t.Fatalf("SINGLE = %q, want %q", got, "x y")
	}
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FOUNDRY_TEST_FOO=from_file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("FOUNDRY_TEST_FOO", "from_env")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}
	if got := os.Getenv("FOUNDRY_TEST_FOO"); got != "from_env" {
		t.Fatalf("FOO = %q, want %q", got, "from_env")
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}
