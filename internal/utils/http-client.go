package utils

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// socketBufferSize is the receive buffer requested for archive downloads.
const socketBufferSize = 1024 * 1024

type HTTPClientConfig struct {
	Timeout       time.Duration // zero means no overall timeout
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
	// Insecure skips certificate and hostname validation. Toolchain archives
	// come from a fixed vendor URL set and are checked against pinned digests.
	Insecure bool
	Token    string // bearer token for private mirrors
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type VBuildHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewVBuildHTTPClient(cfg HTTPClientConfig) *VBuildHTTPClient {
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Control: func(network, address string, c syscall.RawConn) error {
				return c.Control(func(fd uintptr) {
					setSocketOptions(fd)
				})
			},
		}).DialContext,
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		DisableCompression:  true,
	}
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			log.Error().Str("op", "utils/http-client").Err(err).Msgf("invalid proxy URL %s, proceeding without proxy", cfg.ProxyURL)
		} else {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
			log.Debug().Str("op", "utils/http-client").Msgf("using proxy %s", proxyURL.Redacted())
		}
	}
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
	if cfg.Token != "" {
		client.Transport = &originTokenTransport{
			authed: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
				Base:   transport,
			},
			base: transport,
		}
	}
	return &VBuildHTTPClient{
		client: client,
		config: cfg,
	}
}

// originTokenTransport adds the bearer token only while a redirect chain stays
// on the host of its first request. Mirrors often redirect to a CDN.
type originTokenTransport struct {
	authed http.RoundTripper
	base   http.RoundTripper
}

func (t *originTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origin := req
	for origin.Response != nil && origin.Response.Request != nil {
		origin = origin.Response.Request
	}
	if origin.URL.Host != req.URL.Host {
		log.Debug().Str("op", "utils/http-client").Msgf("dropping token on redirect to %s", req.URL.Host)
		return t.base.RoundTrip(req)
	}
	return t.authed.RoundTrip(req)
}

func (c *VBuildHTTPClient) SetHeader(key, value string) {
	c.config.Headers[key] = value
}

func (c *VBuildHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}
