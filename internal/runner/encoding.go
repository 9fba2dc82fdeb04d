package runner

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ConsoleEncoding returns the encoding named by the locale environment, or
// nil when the console takes UTF-8.
func ConsoleEncoding() encoding.Encoding {
	if runtime.GOOS == "windows" {
		return nil
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return encodingForLocale(v)
		}
	}
	return nil
}

func encodingForLocale(locale string) encoding.Encoding {
	_, charset, ok := strings.Cut(locale, ".")
	if !ok {
		return nil
	}
	charset, _, _ = strings.Cut(charset, "@")
	if strings.EqualFold(strings.ReplaceAll(charset, "-", ""), "utf8") {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil
	}
	return enc
}

// transcoder decodes UTF-8 with invalid sequences replaced by U+FFFD and,
// for a non-UTF-8 console, encodes with unsupported runes replaced.
func transcoder(enc encoding.Encoding) transform.Transformer {
	dec := unicode.UTF8.NewDecoder()
	if enc == nil {
		return dec
	}
	return transform.Chain(dec, encoding.ReplaceUnsupported(enc.NewEncoder()))
}

// decodeOutput turns captured bytes into a string, replacing invalid UTF-8.
func decodeOutput(p []byte) string {
	s, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), p)
	if err != nil {
		return strings.ToValidUTF8(string(p), "\uFFFD")
	}
	return string(s)
}
