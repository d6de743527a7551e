package internal

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// connectionPoolSize matches the number of updates the bot usually works on at once
const connectionPoolSize = 8

// NewHTTPClient builds the client shared by the Telegram, YouTube and LLM
// SDKs. PROXY_URL routes everything through one proxy; proxy_insecure
// turns off certificate checks for proxies that intercept TLS.
func NewHTTPClient(config *Config, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = connectionPoolSize

	if config.ProxyURL != "" {
		proxy, err := url.Parse(config.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parsing proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	if config.ProxyInsecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
