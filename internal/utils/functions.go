package utils

import (
	"fmt"
	u "net/url"
	"path"
	"strings"
)

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// ParseEnvArgs turns KEY=VALUE pairs into a map. Values may contain '='.
func ParseEnvArgs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment override %q, want KEY=VALUE", pair)
		}
		result[key] = value
	}
	return result, nil
}

// FileNameFromURL returns the last path element of a URL, the name an archive
// lands under when the manifest gives no local path.
func FileNameFromURL(rawURL string) string {
	parsed, err := u.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		parts := strings.Split(rawURL, "/")
		return parts[len(parts)-1]
	}
	name := path.Base(parsed.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}
