package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleManifest = `
settings:
  user_agent: vbuild-test
  headers:
    X-Mirror: eu
  prompt_on_existing_mismatch: true
files:
  - url: https://dl.google.com/android/repository/commandlinetools-linux.zip
    len: 1000
    sha256: 36bbe50ed96841d10443bcb670d6554f0a34b761be67ec9c4a8ad2c0c44ca42c
  - url: https://repo1.maven.org/maven2/javax/xml/bind/jaxb-api/2.3.1/jaxb-api-2.3.1.jar
    len: 128
    local: lib/jaxb-api.jar
  - url: s3://toolchains/ndk/r21.zip
    len: 42
    local: /opt/ndk.zip
`

func TestParse_Sample(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Files) != 3 {
		t.Fatalf("got %d files", len(m.Files))
	}
	if m.Files[0].Length != 1000 || m.Files[0].SHA512 != "" {
		t.Errorf("first file = %+v", m.Files[0])
	}
	if !m.Settings.PromptOnExistingMismatch || m.Settings.UserAgent != "vbuild-test" {
		t.Errorf("settings = %+v", m.Settings)
	}
	if !m.NeedsS3() {
		t.Error("NeedsS3 = false")
	}

	cfg := m.Settings.HTTPConfig()
	if !cfg.Insecure {
		t.Error("TLS verification should be off unless the manifest turns it on")
	}
	if cfg.Headers["X-Mirror"] != "eu" {
		t.Errorf("headers = %v", cfg.Headers)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "", "no files"},
		{"unknown_key", "files:\n  - url: https://a/b.zip\n    len: 1\n    size: 2\n", "size"},
		{"missing_url", "files:\n  - len: 1\n", "missing url"},
		{"bad_scheme", "files:\n  - url: ftp://a/b.zip\n    len: 1\n", "unsupported scheme"},
		{"zero_len", "files:\n  - url: https://a/b.zip\n", "len must be positive"},
		{"short_sha256", "files:\n  - url: https://a/b.zip\n    len: 1\n    sha256: abc\n", "sha256"},
		{"bad_sha512", "files:\n  - url: https://a/b.zip\n    len: 1\n    sha512: xyz\n", "sha512"},
		{"no_name", "files:\n  - url: https://a/\n    len: 1\n", "no local name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	files, err := m.Resolve(dest)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{
		filepath.Join(dest, "commandlinetools-linux.zip"),
		filepath.Join(dest, "lib", "jaxb-api.jar"),
		"/opt/ndk.zip",
	}
	for i, w := range want {
		if files[i].Local != w {
			t.Errorf("files[%d].Local = %q, want %q", i, files[i].Local, w)
		}
	}
	if m.Files[0].Local != "" {
		t.Error("Resolve modified the manifest")
	}
}

func TestResolve_DuplicateDestination(t *testing.T) {
	data := "files:\n  - url: https://a/x.zip\n    len: 1\n  - url: https://b/x.zip\n    len: 1\n"
	m, err := Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Resolve(t.TempDir()); err == nil {
		t.Error("expected an error for two files with the same destination")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolchain.yaml")
	os.WriteFile(path, []byte("settings:\n  insecure: false\nfiles:\n  - url: https://a/x.zip\n    len: 1\n"), 0o644)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Settings.InsecureTLS() {
		t.Error("insecure: false was ignored")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
