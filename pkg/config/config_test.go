package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name     string `yaml:"name"`
	Port     int    `yaml:"port"`
	applied  bool
	validErr error
}

func (s *sample) ApplyEnv() error {
	s.applied = true
	if v := os.Getenv("SAMPLE_NAME"); v != "" {
		s.Name = v
	}
	return nil
}

func (s *sample) Validate() error { return s.validErr }

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "4242")
	p := writeYAML(t, "name: site\nport: ${SAMPLE_PORT}\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "site" || s.Port != 4242 || !s.applied {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_EnvOverrideWins(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeYAML(t, "name: from-file\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" {
		t.Errorf("name = %q, want from-env", s.Name)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	p := writeYAML(t, "name: x\n")
	s := sample{validErr: errors.New("bad port")}
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "bad port") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefault_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 1}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if s.Name != "default" || s.Port != 1 || !s.applied {
		t.Errorf("defaults = %+v", s)
	}
}
