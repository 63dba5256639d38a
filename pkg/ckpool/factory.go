package ckpool

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout bounds a whole request (connect, response and body).
const DefaultTimeout = 60 * time.Second

// ClientFactory builds HTTPClients from configuration.
type ClientFactory struct {
	timeout   time.Duration
	proxyAddr string
	validator IdentifierValidator
	userAgent string
}

// FactoryOption configures a ClientFactory.
type FactoryOption func(*ClientFactory)

// WithFactoryTimeout sets the end-to-end timeout for created clients.
func WithFactoryTimeout(timeout time.Duration) FactoryOption {
	return func(f *ClientFactory) {
		f.timeout = timeout
	}
}

// WithSOCKS5Proxy routes requests through a SOCKS5 proxy. addr is either
// "host:port" or a "socks5://[user:pass@]host:port" URL. Hostnames are
// resolved by the proxy.
func WithSOCKS5Proxy(addr string) FactoryOption {
	return func(f *ClientFactory) {
		f.proxyAddr = addr
	}
}

// WithFactoryValidator sets the identifier validator for created clients.
func WithFactoryValidator(v IdentifierValidator) FactoryOption {
	return func(f *ClientFactory) {
		f.validator = v
	}
}

// WithFactoryUserAgent sets the User-Agent for created clients.
func WithFactoryUserAgent(ua string) FactoryOption {
	return func(f *ClientFactory) {
		f.userAgent = ua
	}
}

// NewClientFactory creates a new client factory.
func NewClientFactory(opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// NewClient creates a client for the given base URL.
func (f *ClientFactory) NewClient(baseURL string) (*HTTPClient, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	httpClient, err := f.HTTPClient()
	if err != nil {
		return nil, err
	}

	opts := []ClientOption{WithIdentifierValidator(f.validator)}
	if f.userAgent != "" {
		opts = append(opts, WithUserAgent(f.userAgent))
	}

	return NewClient(base, httpClient, opts...), nil
}

// HTTPClient builds the transport described by the factory options.
func (f *ClientFactory) HTTPClient() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if f.proxyAddr != "" {
		dialer, err := socks5Dialer(f.proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to configure proxy %q: %w", f.proxyAddr, err)
		}
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
	}

	return &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
	}, nil
}

func socks5Dialer(addr string) (proxy.ContextDialer, error) {
	host := addr
	var auth *proxy.Auth

	if strings.Contains(addr, "://") {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, err
		}
		if u.Scheme != "socks5" && u.Scheme != "socks5h" {
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
		host = u.Host
		if u.User != nil {
			auth = &proxy.Auth{User: u.User.Username()}
			if p, ok := u.User.Password(); ok {
				auth.Password = p
			}
		}
	}
	if host == "" {
		return nil, errors.New("empty proxy address")
	}

	d, err := proxy.SOCKS5("tcp", host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("proxy dialer does not support contexts")
	}
	return cd, nil
}

// ParseBaseURL validates an http(s) base location.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &EndpointError{Base: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &EndpointError{Base: raw, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &EndpointError{Base: raw, Err: errors.New("missing host")}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, &EndpointError{Base: raw, Err: errors.New("base URL must not carry a query or fragment")}
	}
	return u, nil
}
