// Package fetch downloads toolchain archives with resume support and checks
// them against a pinned length and SHA-256/SHA-512 digests.
package fetch

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Descriptor names one artifact. Empty digests are not checked.
type Descriptor struct {
	URL    string `yaml:"url"`
	Length int64  `yaml:"len"`
	SHA256 string `yaml:"sha256,omitempty"`
	SHA512 string `yaml:"sha512,omitempty"`
	Local  string `yaml:"local,omitempty"`
}

func (d Descriptor) Expected() Digests {
	return Digests{Length: d.Length, SHA256: d.SHA256, SHA512: d.SHA512}
}

func (d Descriptor) label() string {
	if d.Local != "" {
		return filepath.Base(d.Local)
	}
	return d.URL
}

type Digests struct {
	Length int64
	SHA256 string
	SHA512 string
}

func (d Digests) String() string {
	return fmt.Sprintf("len=%d sha256=%s sha512=%s", d.Length, d.SHA256, d.SHA512)
}

// Mismatches lists the fields of d that disagree with want. Digests missing
// from want are skipped.
func (d Digests) Mismatches(want Digests) []string {
	var fields []string
	if d.Length != want.Length {
		fields = append(fields, "len")
	}
	if want.SHA256 != "" && !strings.EqualFold(d.SHA256, want.SHA256) {
		fields = append(fields, "sha256")
	}
	if want.SHA512 != "" && !strings.EqualFold(d.SHA512, want.SHA512) {
		fields = append(fields, "sha512")
	}
	return fields
}

// digestState accumulates both digests and the byte count so a download can
// continue from a partial file.
type digestState struct {
	sha256 hash.Hash
	sha512 hash.Hash
	n      int64
}

func newDigestState() *digestState {
	return &digestState{sha256: sha256.New(), sha512: sha512.New()}
}

func (s *digestState) Write(p []byte) (int, error) {
	s.sha256.Write(p)
	s.sha512.Write(p)
	s.n += int64(len(p))
	return len(p), nil
}

func (s *digestState) Sum() Digests {
	return Digests{
		Length: s.n,
		SHA256: hex.EncodeToString(s.sha256.Sum(nil)),
		SHA512: hex.EncodeToString(s.sha512.Sum(nil)),
	}
}

func hashFile(path string, chunkSize int) (*digestState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	state := newDigestState()
	if _, err := io.CopyBuffer(state, f, make([]byte, chunkSize)); err != nil {
		return nil, fmt.Errorf("error hashing %s: %w", path, err)
	}
	return state, nil
}

// Sum returns the digests of r, for building descriptors.
func Sum(r io.Reader) (Digests, error) {
	state := newDigestState()
	if _, err := io.Copy(state, r); err != nil {
		return Digests{}, err
	}
	return state.Sum(), nil
}

type Outcome int

const (
	// OutcomeFailed accompanies transport and file system errors.
	OutcomeFailed Outcome = iota
	OutcomeDone
	OutcomeResumedAndCompleted
	OutcomeSizeExceedsExpected
	OutcomeMismatchConfirmed
	OutcomeMismatchAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeResumedAndCompleted:
		return "resumed and completed"
	case OutcomeSizeExceedsExpected:
		return "size exceeds expected"
	case OutcomeMismatchConfirmed:
		return "integrity mismatch confirmed by user"
	case OutcomeMismatchAborted:
		return "integrity mismatch aborted"
	default:
		return "failed"
	}
}
