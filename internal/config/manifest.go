// Package config loads download manifests: a settings block shared by every
// file plus the list of artifacts to fetch.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/volcano-authors/vbuild/internal/fetch"
	"github.com/volcano-authors/vbuild/internal/utils"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	// Insecure disables TLS certificate and hostname checks. Unset means true.
	Insecure                 *bool             `yaml:"insecure,omitempty"`
	Proxy                    string            `yaml:"proxy,omitempty"`
	ProxyUsername            string            `yaml:"proxy_username,omitempty"`
	ProxyPassword            string            `yaml:"proxy_password,omitempty"`
	UserAgent                string            `yaml:"user_agent,omitempty"`
	Headers                  map[string]string `yaml:"headers,omitempty"`
	Token                    string            `yaml:"token,omitempty"`
	S3Profile                string            `yaml:"s3_profile,omitempty"`
	PromptOnExistingMismatch bool              `yaml:"prompt_on_existing_mismatch,omitempty"`
	Dest                     string            `yaml:"dest,omitempty"`
}

type Manifest struct {
	Settings Settings           `yaml:"settings"`
	Files    []fetch.Descriptor `yaml:"files"`
}

var (
	sha256Pattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	sha512Pattern = regexp.MustCompile(`^[0-9a-fA-F]{128}$`)
)

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest, rejecting unknown keys, and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if len(m.Files) == 0 {
		return errors.New("manifest lists no files")
	}
	for i, f := range m.Files {
		if f.URL == "" {
			return fmt.Errorf("files[%d]: missing url", i)
		}
		u, err := url.Parse(f.URL)
		if err != nil {
			return fmt.Errorf("files[%d]: %w", i, err)
		}
		switch u.Scheme {
		case "http", "https", "s3":
		default:
			return fmt.Errorf("files[%d]: unsupported scheme %q", i, u.Scheme)
		}
		if f.Length <= 0 {
			return fmt.Errorf("files[%d]: len must be positive", i)
		}
		if f.SHA256 != "" && !sha256Pattern.MatchString(f.SHA256) {
			return fmt.Errorf("files[%d]: sha256 is not 64 hex characters", i)
		}
		if f.SHA512 != "" && !sha512Pattern.MatchString(f.SHA512) {
			return fmt.Errorf("files[%d]: sha512 is not 128 hex characters", i)
		}
		if f.Local == "" && utils.FileNameFromURL(f.URL) == "" {
			return fmt.Errorf("files[%d]: no local name and none in the url", i)
		}
	}
	return nil
}

// Resolve fills in each file's local path under dest. Absolute local paths are
// kept; two files landing on the same path is an error.
func (m *Manifest) Resolve(dest string) ([]fetch.Descriptor, error) {
	seen := make(map[string]string, len(m.Files))
	out := make([]fetch.Descriptor, 0, len(m.Files))
	for _, f := range m.Files {
		local := f.Local
		if local == "" {
			local = utils.FileNameFromURL(f.URL)
		}
		if !filepath.IsAbs(local) {
			local = filepath.Join(dest, local)
		}
		if prev, ok := seen[local]; ok {
			return nil, fmt.Errorf("%s and %s both download to %s", prev, f.URL, local)
		}
		seen[local] = f.URL
		f.Local = local
		out = append(out, f)
	}
	return out, nil
}

func (m *Manifest) NeedsS3() bool {
	for _, f := range m.Files {
		if u, err := url.Parse(f.URL); err == nil && u.Scheme == "s3" {
			return true
		}
	}
	return false
}

func (s Settings) InsecureTLS() bool {
	return s.Insecure == nil || *s.Insecure
}

func (s Settings) HTTPConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		ProxyURL:      s.Proxy,
		ProxyUsername: s.ProxyUsername,
		ProxyPassword: s.ProxyPassword,
		UserAgent:     s.UserAgent,
		Headers:       s.Headers,
		Insecure:      s.InsecureTLS(),
		Token:         s.Token,
	}
}
