package customHttpClient

import (
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/ChatDocs/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var pooledClient *http.Client
var once sync.Once

// GetPooledClient returns the process-wide client shared by the provider SDKs.
func GetPooledClient() *http.Client {
	once.Do(func() {
		pooledClient = &http.Client{Transport: customTransport}
	})
	return pooledClient
}

// NewClientWithTimeout reuses the pooled transport with a per-client deadline.
func NewClientWithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
