package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/volcano-authors/vbuild/internal/utils"
)

// Progress receives batch-wide byte counts while a download streams.
type Progress interface {
	Update(done, total int64, label string)
	Clear()
}

type Downloader struct {
	Source Source
	// Decide is asked about files that fail verification. nil aborts.
	Decide    Decider
	Progress  Progress
	ChunkSize int
	// PromptOnExistingMismatch sends an already complete file whose digests
	// disagree through Decide. By default such a file is only warned about.
	PromptOnExistingMismatch bool
}

func NewDownloader(src Source) *Downloader {
	return &Downloader{
		Source:    src,
		Decide:    TerminalPrompt(os.Stdin, os.Stderr),
		ChunkSize: utils.DefaultChunkSize,
	}
}

// batchPos places one file inside a batch for progress reporting.
type batchPos struct {
	previous int64
	total    int64
}

// Download fetches d into d.Local, resuming a shorter local file when resume
// is set. Any outcome other than a completed one comes with an error.
func (dl *Downloader) Download(ctx context.Context, d Descriptor, resume bool) (Outcome, error) {
	return dl.download(ctx, d, resume, batchPos{previous: 0, total: d.Length})
}

type BatchResult struct {
	Descriptor Descriptor
	Outcome    Outcome
	Err        error
}

// DownloadBatch downloads ds in order with progress spanning the whole set.
// It stops at the first failure; results cover the files attempted so far.
func (dl *Downloader) DownloadBatch(ctx context.Context, ds []Descriptor, resume bool) ([]BatchResult, error) {
	var total int64
	for _, d := range ds {
		total += d.Length
	}
	results := make([]BatchResult, 0, len(ds))
	var previous int64
	for _, d := range ds {
		outcome, err := dl.download(ctx, d, resume, batchPos{previous: previous, total: total})
		results = append(results, BatchResult{Descriptor: d, Outcome: outcome, Err: err})
		if err != nil {
			return results, err
		}
		previous += d.Length
	}
	return results, nil
}

func (dl *Downloader) download(ctx context.Context, d Descriptor, resume bool, pos batchPos) (Outcome, error) {
	if d.Local == "" {
		return OutcomeFailed, fmt.Errorf("no local path for %s", d.URL)
	}
	chunkSize := dl.ChunkSize
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}
	expected := d.Expected()

	var offset int64
	state := newDigestState()
	flags := os.O_CREATE | os.O_WRONLY
	info, err := os.Stat(d.Local)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return OutcomeFailed, fmt.Errorf("%s exists and is not a regular file", d.Local)
	case err == nil:
		state, err = hashFile(d.Local, chunkSize)
		if err != nil {
			return OutcomeFailed, err
		}
		switch {
		case state.n == d.Length:
			return dl.verifyExisting(d, state.Sum())
		case state.n > d.Length:
			return OutcomeSizeExceedsExpected, &CorruptPartialError{Path: d.Local, Size: state.n, Expected: d.Length}
		case resume && state.n > 0:
			offset = state.n
			flags |= os.O_APPEND
			log.Info().Str("op", "fetch/downloader").Msgf("resume %s at byte %d", d.URL, offset)
		default:
			state = newDigestState()
			flags |= os.O_TRUNC
		}
	case errors.Is(err, os.ErrNotExist):
		flags |= os.O_TRUNC
		if err := os.MkdirAll(filepath.Dir(d.Local), 0o755); err != nil {
			return OutcomeFailed, fmt.Errorf("error creating directory for %s: %w", d.Local, err)
		}
	default:
		return OutcomeFailed, err
	}

	body, start, err := dl.Source.Open(ctx, d.URL, offset)
	if err != nil {
		return OutcomeFailed, err
	}
	defer body.Close()

	out, err := os.OpenFile(d.Local, flags, 0o644)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("error opening output file: %w", err)
	}
	defer out.Close()

	resumed := offset > 0
	if start != offset {
		if start != 0 {
			return OutcomeFailed, &TransportError{URL: d.URL, Err: fmt.Errorf("body starts at %d, requested %d", start, offset)}
		}
		log.Warn().Str("op", "fetch/downloader").Msgf("server does not support resume for %s, restarting download", d.URL)
		if err := out.Truncate(0); err != nil {
			return OutcomeFailed, fmt.Errorf("error truncating %s: %w", d.Local, err)
		}
		state = newDigestState()
		resumed = false
	}

	if err := dl.stream(body, out, state, chunkSize, d, pos); err != nil {
		return OutcomeFailed, err
	}
	if err := out.Sync(); err != nil {
		return OutcomeFailed, fmt.Errorf("error syncing %s: %w", d.Local, err)
	}

	actual := state.Sum()
	if actual.Mismatches(expected) != nil {
		return dl.confirm(d, actual)
	}
	log.Info().Str("op", "fetch/downloader").Msgf("DONE %s", d.URL)
	if resumed {
		return OutcomeResumedAndCompleted, nil
	}
	return OutcomeDone, nil
}

func (dl *Downloader) stream(body io.Reader, out io.Writer, state *digestState, chunkSize int, d Descriptor, pos batchPos) error {
	if dl.Progress != nil {
		defer dl.Progress.Clear()
	}
	buffer := make([]byte, chunkSize)
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err := out.Write(buffer[:n]); err != nil {
				return fmt.Errorf("error writing to output file: %w", err)
			}
			state.Write(buffer[:n])
			if dl.Progress != nil {
				dl.Progress.Update(pos.previous+state.n, pos.total, d.label())
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return &TransportError{URL: d.URL, Err: fmt.Errorf("error reading response body: %w", readErr)}
		}
	}
}

func (dl *Downloader) verifyExisting(d Descriptor, actual Digests) (Outcome, error) {
	fields := actual.Mismatches(d.Expected())
	if fields == nil {
		log.Info().Str("op", "fetch/downloader").Msgf("DONE %s", d.URL)
		return OutcomeDone, nil
	}
	if dl.PromptOnExistingMismatch {
		return dl.confirm(d, actual)
	}
	log.Warn().Str("op", "fetch/downloader").Msgf("WARNING: %s has the expected length but %s differ: sha256=%s sha512=%s",
		d.Local, strings.Join(fields, ", "), actual.SHA256, actual.SHA512)
	return OutcomeDone, nil
}

func (dl *Downloader) confirm(d Descriptor, actual Digests) (Outcome, error) {
	m := Mismatch{URL: d.URL, Path: d.Local, Expected: d.Expected(), Actual: actual}
	if dl.Decide != nil && dl.Decide(m) {
		log.Warn().Str("op", "fetch/downloader").Msgf("keeping %s despite failed verification", d.Local)
		return OutcomeMismatchConfirmed, nil
	}
	return OutcomeMismatchAborted, &IntegrityError{URL: d.URL, Path: d.Local, Expected: m.Expected, Actual: actual}
}
