package helper

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"storefront-checkout/internal/pkg/logger"
)

type HTTPMethodEnum string

const (
	GET    HTTPMethodEnum = http.MethodGet
	POST   HTTPMethodEnum = http.MethodPost
	DELETE HTTPMethodEnum = http.MethodDelete
)

func (e HTTPMethodEnum) ToString() string {
	return string(e)
}

// HTTPClientConfig represents outbound HTTP client configuration
type HTTPClientConfig struct {
	ProxyURL       string
	SkipTLSVerify  bool
	RequestTimeout time.Duration
}

type HTTPClient struct {
	Client *http.Client
	Config *HTTPClientConfig
}

type HTTPRequestPayload struct {
	Method HTTPMethodEnum
	URL    string
	Params map[string]string
	Body   any
}

type HTTPRequestConfig struct {
	Ctx     context.Context
	Headers http.Header
	Bearer  string
}

type HTTPAPIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NewHTTPClient creates an HTTP client with dial/TLS timeouts and an optional proxy.
func NewHTTPClient(cfg *HTTPClientConfig) *HTTPClient {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
	}

	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			logger.Error.Printf("Invalid proxy URL: %v", err)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
			logger.Debug.Printf("Using proxy: %s", cfg.ProxyURL)
		}
	}

	return &HTTPClient{
		Client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		Config: cfg,
	}
}

// Request performs a JSON request and returns the raw response body.
func (h *HTTPClient) Request(payload *HTTPRequestPayload, config *HTTPRequestConfig) (*HTTPAPIResponse, error) {
	body, err := encodeBody(payload.Body)
	if err != nil {
		return nil, err
	}

	ctx := config.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, payload.Method.ToString(), payload.URL, body)
	if err != nil {
		return nil, err
	}

	for key, values := range config.Headers {
		req.Header[key] = append(req.Header[key], values...)
	}
	req.Header.Set("Accept", "application/json")
	if payload.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if config.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+config.Bearer)
	}

	if len(payload.Params) > 0 {
		q := req.URL.Query()
		for key, value := range payload.Params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	logger.Debug.Printf("%s %s", req.Method, req.URL.Path)

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug.Printf("%s %s completed with status: %d", req.Method, req.URL.Path, resp.StatusCode)

	return &HTTPAPIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

func encodeBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := JSONToByte(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
