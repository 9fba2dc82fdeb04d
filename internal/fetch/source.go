package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/volcano-authors/vbuild/internal/utils"
)

// Source opens an artifact for reading from offset. The returned start is the
// offset the body actually begins at: equal to offset when the range was
// honored, 0 when the server sent the whole object instead.
type Source interface {
	Open(ctx context.Context, rawURL string, offset int64) (body io.ReadCloser, start int64, err error)
}

type HTTPSource struct {
	Client utils.HTTPDoer
}

func NewHTTPSource(cfg utils.HTTPClientConfig) *HTTPSource {
	return &HTTPSource{Client: utils.NewVBuildHTTPClient(cfg)}
}

func (s *HTTPSource) Open(ctx context.Context, rawURL string, offset int64) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("error creating GET request: %w", err)}
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	switch {
	case offset > 0 && resp.StatusCode == http.StatusPartialContent:
		start, err := contentRangeStart(resp.Header.Get("Content-Range"))
		if err != nil || start != offset {
			resp.Body.Close()
			return nil, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("unexpected content range %q for offset %d", resp.Header.Get("Content-Range"), offset)}
		}
		return resp.Body, offset, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300 && resp.StatusCode != http.StatusPartialContent:
		if offset > 0 {
			log.Debug().Str("op", "fetch/source").Msgf("server answered range request with status %d", resp.StatusCode)
		}
		return resp.Body, 0, nil
	default:
		resp.Body.Close()
		return nil, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}
}

func contentRangeStart(header string) (int64, error) {
	var start, end int64
	if _, err := fmt.Sscanf(header, "bytes %d-%d", &start, &end); err != nil {
		return 0, fmt.Errorf("invalid content range %q: %w", header, err)
	}
	return start, nil
}

// MultiSource routes each URL to the Source registered for its scheme.
type MultiSource map[string]Source

func (m MultiSource) Open(ctx context.Context, rawURL string, offset int64) (io.ReadCloser, int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, &TransportError{URL: rawURL, Err: err}
	}
	src, ok := m[u.Scheme]
	if !ok {
		return nil, 0, &TransportError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	return src.Open(ctx, rawURL, offset)
}
