package offline

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"nfl-scoreboard-service/internal/config"
)

const (
	defaultPrefix  = "nfl"
	defaultVersion = "v2"
	shellPath      = "/index.html"
)

// DefaultCoreResources are pre-cached on install and always eligible for the static bucket.
var DefaultCoreResources = []string{
	"/",
	"/favicon.svg",
	"/manifest.json",
	"/team-colors.json",
	"/icons/player-fallback.svg",
}

// DefaultAssetPatterns match bundled assets by path.
var DefaultAssetPatterns = []string{
	`/assets/.*\.(js|css|woff2?|ttf|eot)$`,
	`/icons/.*\.(svg|png|jpg|jpeg|ico)$`,
}

// Options configures a Proxy.
type Options struct {
	// Origin is the application shell origin, e.g. http://localhost:5173.
	Origin        string
	Prefix        string
	Version       string
	CoreResources []string
	AssetPatterns []*regexp.Regexp
	APIPatterns   []*regexp.Regexp
	// SkipWaiting activates as soon as installation completes.
	SkipWaiting bool
}

// APIPatternFor matches endpoint with an optional query string.
func APIPatternFor(endpoint string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(endpoint) + `(\?.*)?$`)
}

// DefaultOptions returns the built-in resource lists for origin and the scoreboard endpoint.
func DefaultOptions(origin, apiEndpoint string) Options {
	opts := Options{
		Origin:        strings.TrimRight(origin, "/"),
		Prefix:        defaultPrefix,
		Version:       defaultVersion,
		CoreResources: append([]string(nil), DefaultCoreResources...),
		SkipWaiting:   true,
	}
	for _, p := range DefaultAssetPatterns {
		opts.AssetPatterns = append(opts.AssetPatterns, regexp.MustCompile(p))
	}
	if apiEndpoint != "" {
		opts.APIPatterns = []*regexp.Regexp{APIPatternFor(apiEndpoint)}
	}
	return opts
}

// OptionsFromConfig merges config and an optional manifest over the defaults.
func OptionsFromConfig(cfg config.OfflineConfig, manifest config.Manifest, apiEndpoint string) (Options, error) {
	if _, err := url.Parse(cfg.OriginURL); err != nil {
		return Options{}, fmt.Errorf("invalid origin url: %w", err)
	}
	opts := DefaultOptions(cfg.OriginURL, apiEndpoint)
	if cfg.Prefix != "" {
		opts.Prefix = cfg.Prefix
	}
	if cfg.Version != "" {
		opts.Version = cfg.Version
	}
	opts.SkipWaiting = cfg.SkipWaiting

	if manifest.Version != "" {
		opts.Version = manifest.Version
	}
	if len(manifest.CoreResources) > 0 {
		opts.CoreResources = append([]string(nil), manifest.CoreResources...)
	}
	if len(manifest.AssetPatterns) > 0 {
		patterns, err := compileAll(manifest.AssetPatterns)
		if err != nil {
			return Options{}, fmt.Errorf("asset patterns: %w", err)
		}
		opts.AssetPatterns = patterns
	}
	if len(manifest.APIPatterns) > 0 {
		patterns, err := compileAll(manifest.APIPatterns)
		if err != nil {
			return Options{}, fmt.Errorf("api patterns: %w", err)
		}
		opts.APIPatterns = patterns
	}
	return opts, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// StaticBucket is the current static-assets bucket name.
func (o Options) StaticBucket() string {
	return o.Prefix + "-static-" + o.Version
}

// APIBucket is the current API-responses bucket name.
func (o Options) APIBucket() string {
	return o.Prefix + "-api-" + o.Version
}

func (o Options) isAPI(rawURL string) bool {
	for _, re := range o.APIPatterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

func (o Options) isAsset(path string) bool {
	for _, re := range o.AssetPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (o Options) isCore(path string) bool {
	for _, p := range o.CoreResources {
		if p == path {
			return true
		}
	}
	return false
}

func (o Options) cacheable(path string) bool {
	return o.isCore(path) || o.isAsset(path)
}

// resolve turns an origin-relative path into the absolute URL used as a cache key.
func (o Options) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return o.Origin + path
}

func (o Options) sameOrigin(u *url.URL) bool {
	origin, err := url.Parse(o.Origin)
	if err != nil || u == nil {
		return false
	}
	return strings.EqualFold(origin.Scheme, u.Scheme) && strings.EqualFold(origin.Host, u.Host)
}
