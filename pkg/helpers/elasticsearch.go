package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewESClient creates an Elasticsearch client with optional basic auth.
// Requests are retried on 502/503/504 with a short backoff.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses:     addrs,
		Username:      username,
		Password:      password,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    2,
		RetryBackoff:  func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}
