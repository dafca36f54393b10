package offline

import (
	"io"
	"net/http"
	"strings"

	"nfl-scoreboard-service/internal/logging"
)

type resourceClass int

const (
	classPassthrough resourceClass = iota
	classAPI
	classNavigation
	classStatic
)

func (c resourceClass) String() string {
	switch c {
	case classAPI:
		return "api"
	case classNavigation:
		return "navigation"
	case classStatic:
		return "static"
	default:
		return "passthrough"
	}
}

// Strategy outcomes reported to metrics.
const (
	resultNetwork     = "network"
	resultCache       = "cache"
	resultPlaceholder = "placeholder"
	resultOfflinePage = "offline_page"
	resultMiss        = "miss"
	resultPassthrough = "passthrough"
)

// RoundTrip implements http.RoundTripper.
func (p *Proxy) RoundTrip(req *http.Request) (*http.Response, error) {
	if p.State() != StateActive {
		return p.next.RoundTrip(req)
	}
	class := p.classify(req)
	switch class {
	case classAPI:
		return p.networkFirst(req), nil
	case classNavigation:
		return p.serveShell(req), nil
	case classStatic:
		return p.cacheFirst(req)
	default:
		p.metrics.RecordStrategy(class.String(), resultPassthrough)
		return p.next.RoundTrip(req)
	}
}

func (p *Proxy) classify(req *http.Request) resourceClass {
	if req.Method != http.MethodGet || req.URL == nil {
		return classPassthrough
	}
	if p.opts.isAPI(cacheKey(req)) {
		return classAPI
	}
	if !p.opts.sameOrigin(req.URL) {
		return classPassthrough
	}
	if isNavigation(req) {
		return classNavigation
	}
	return classStatic
}

func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

func cacheKey(req *http.Request) string {
	u := *req.URL
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// networkFirst serves API calls: fresh network data when available, else the cached
// entry for the exact URL, else an offline placeholder with status 200.
func (p *Proxy) networkFirst(req *http.Request) *http.Response {
	ctx := req.Context()
	key := cacheKey(req)
	bucket, bucketErr := p.storage.Open(ctx, p.opts.APIBucket())
	if bucketErr != nil {
		logging.Warn(p.logger, "opening api bucket failed", logging.FieldBucket, p.opts.APIBucket(), "error", bucketErr)
	}

	resp, err := p.next.RoundTrip(req)
	if err == nil {
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		switch {
		case readErr != nil:
			err = readErr
		case !isSuccess(resp.StatusCode):
			err = &HTTPStatusError{URL: key, StatusCode: resp.StatusCode}
		default:
			stored := toStored(resp, body)
			if bucketErr == nil {
				if putErr := bucket.Put(ctx, key, stored); putErr != nil {
					logging.Warn(p.logger, "caching api response failed", logging.FieldURL, key, "error", putErr)
				}
			}
			p.metrics.RecordStrategy(classAPI.String(), resultNetwork)
			return fromStored(req, stored)
		}
	}
	logging.Warn(p.logger, "api network request failed", logging.FieldURL, key, "error", err)

	if bucketErr == nil {
		cached, ok, matchErr := bucket.Match(ctx, key)
		if matchErr != nil {
			logging.Warn(p.logger, "reading api cache failed", logging.FieldURL, key, "error", matchErr)
		}
		if ok {
			p.metrics.RecordStrategy(classAPI.String(), resultCache)
			return fromStored(req, cached)
		}
	}
	p.metrics.RecordStrategy(classAPI.String(), resultPlaceholder)
	return placeholderResponse(req)
}

// serveShell answers navigations with the cached application shell regardless of path.
func (p *Proxy) serveShell(req *http.Request) *http.Response {
	ctx := req.Context()
	shellKey := p.opts.resolve(shellPath)
	rootKey := p.opts.resolve("/")

	bucket, err := p.storage.Open(ctx, p.opts.StaticBucket())
	if err != nil {
		logging.Warn(p.logger, "opening static bucket failed", logging.FieldBucket, p.opts.StaticBucket(), "error", err)
	} else {
		for _, key := range []string{shellKey, rootKey} {
			if cached, ok, _ := bucket.Match(ctx, key); ok {
				p.metrics.RecordStrategy(classNavigation.String(), resultCache)
				return fromStored(req, cached)
			}
		}
	}

	stored, fetchErr := p.fetch(ctx, shellKey)
	if fetchErr != nil {
		logging.Warn(p.logger, "fetching application shell failed", logging.FieldURL, shellKey, "error", fetchErr)
		p.metrics.RecordStrategy(classNavigation.String(), resultOfflinePage)
		return offlinePageResponse(req)
	}
	if bucket != nil {
		for _, key := range []string{rootKey, shellKey} {
			if putErr := bucket.Put(ctx, key, stored); putErr != nil {
				logging.Warn(p.logger, "caching application shell failed", logging.FieldURL, key, "error", putErr)
			}
		}
	}
	p.metrics.RecordStrategy(classNavigation.String(), resultNetwork)
	return fromStored(req, stored)
}

// cacheFirst serves same-origin assets from the static bucket, falling back to the network.
// Only core resources and bundled assets are written back.
func (p *Proxy) cacheFirst(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	key := cacheKey(req)

	bucket, err := p.storage.Open(ctx, p.opts.StaticBucket())
	if err != nil {
		logging.Warn(p.logger, "opening static bucket failed", logging.FieldBucket, p.opts.StaticBucket(), "error", err)
	} else if cached, ok, _ := bucket.Match(ctx, key); ok {
		p.metrics.RecordStrategy(classStatic.String(), resultCache)
		return fromStored(req, cached), nil
	}

	resp, err := p.next.RoundTrip(req)
	if err != nil {
		logging.Warn(p.logger, "static resource unavailable", logging.FieldURL, key, "error", err)
		p.metrics.RecordStrategy(classStatic.String(), resultMiss)
		return notFoundResponse(req), nil
	}
	if !isSuccess(resp.StatusCode) || bucket == nil || !p.opts.cacheable(req.URL.Path) {
		p.metrics.RecordStrategy(classStatic.String(), resultNetwork)
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		p.metrics.RecordStrategy(classStatic.String(), resultMiss)
		return notFoundResponse(req), nil
	}
	stored := toStored(resp, body)
	if putErr := bucket.Put(ctx, key, stored); putErr != nil {
		logging.Warn(p.logger, "caching static resource failed", logging.FieldURL, key, "error", putErr)
	}
	p.metrics.RecordStrategy(classStatic.String(), resultNetwork)
	return fromStored(req, stored), nil
}
