// Package resolver maps a serial number to its product code.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"logreader/internal/config"
)

var (
	// ErrNotResolved means the service answered but had no product code.
	ErrNotResolved = errors.New("product code not resolved")
	// ErrUnavailable means no endpoint is configured.
	ErrUnavailable = errors.New("product resolver unavailable")
)

// Resolver looks up the product code for a serial number.
type Resolver interface {
	Resolve(ctx context.Context, sn string) (string, error)
}

// Func adapts a function to Resolver.
type Func func(ctx context.Context, sn string) (string, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, sn string) (string, error) { return f(ctx, sn) }

// Static always returns the same product code. It backs --pn.
type Static string

// Resolve returns the static code, or ErrNotResolved when it is empty.
func (s Static) Resolve(context.Context, string) (string, error) {
	if s == "" {
		return "", ErrNotResolved
	}
	return string(s), nil
}

// HTTPResolver posts {"SN": ...} to the product service.
type HTTPResolver struct {
	url    string
	client *http.Client
}

// NewHTTPResolver creates a resolver for the given endpoint URL.
func NewHTTPResolver(url string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FromConfig builds an HTTPResolver. An explicit URL wins; otherwise the
// host is read from the site file. A missing site file yields
// ErrUnavailable.
func FromConfig(cfg config.ResolverConfig) (*HTTPResolver, error) {
	url := cfg.URL
	if url == "" {
		var err error
		url, err = EndpointFromSite(cfg.SiteFile, cfg.EndpointPath)
		if err != nil {
			return nil, err
		}
	}
	return NewHTTPResolver(url, cfg.Timeout), nil
}

// EndpointFromSite reads the service host from siteFile and joins it with path.
func EndpointFromSite(siteFile, path string) (string, error) {
	data, err := os.ReadFile(siteFile)
	if err != nil {
		return "", fmt.Errorf("%w: read site file: %v", ErrUnavailable, err)
	}
	site := strings.TrimSpace(string(data))
	if site == "" {
		return "", fmt.Errorf("%w: site file %s is empty", ErrUnavailable, siteFile)
	}
	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		site = "http://" + site
	}
	return strings.TrimRight(site, "/") + "/" + strings.TrimLeft(path, "/"), nil
}

// URL returns the endpoint.
func (r *HTTPResolver) URL() string { return r.url }

type resolveRequest struct {
	SN string `json:"SN"`
}

// Resolve posts the serial number and extracts the "PN" field.
func (r *HTTPResolver) Resolve(ctx context.Context, sn string) (string, error) {
	body, err := json.Marshal(resolveRequest{SN: sn})
	if err != nil {
		return "", fmt.Errorf("marshal resolve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create resolve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read resolve response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return ParsePN(respBody)
}

// maxNesting bounds how many JSON-in-string layers ParsePN unwraps.
const maxNesting = 4

// ParsePN extracts the first non-empty "PN" string from a JSON document.
// Some deployments wrap the payload as a JSON-encoded string, e.g.
// {"d":"[{\"PN\":\"S123\"}]"}; such strings are decoded and searched too.
func ParsePN(body []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode resolve response: %w", err)
	}
	if pn, ok := findPN(doc, 0); ok {
		return pn, nil
	}
	return "", ErrNotResolved
}

func findPN(v any, depth int) (string, bool) {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t["PN"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
		for _, k := range childKeys(t) {
			if pn, ok := findPN(t[k], depth); ok {
				return pn, true
			}
		}
	case []any:
		for _, child := range t {
			if pn, ok := findPN(child, depth); ok {
				return pn, true
			}
		}
	case string:
		s := strings.TrimSpace(t)
		if depth >= maxNesting || (!strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[")) {
			return "", false
		}
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return "", false
		}
		return findPN(inner, depth+1)
	}
	return "", false
}

// childKeys orders the keys searched below an object: the "d" wrapper
// first, then the rest alphabetically.
func childKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "d" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := m["d"]; ok {
		keys = append([]string{"d"}, keys...)
	}
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
