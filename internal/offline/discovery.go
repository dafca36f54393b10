package offline

import (
	"bytes"
	"context"
	"net/url"

	"golang.org/x/net/html"

	"nfl-scoreboard-service/internal/logging"
)

// discoverAssets fetches the application shell, caches it under both shell keys and
// caches every same-origin asset it references.
func (p *Proxy) discoverAssets(ctx context.Context) {
	bucket, err := p.storage.Open(ctx, p.opts.StaticBucket())
	if err != nil {
		logging.Warn(p.logger, "opening static bucket failed", logging.FieldBucket, p.opts.StaticBucket(), "error", err)
		return
	}
	shellKey := p.opts.resolve(shellPath)
	shell, err := p.fetch(ctx, shellKey)
	if err != nil {
		logging.Warn(p.logger, "asset discovery skipped", logging.FieldURL, shellKey, "error", err)
		return
	}
	for _, key := range []string{p.opts.resolve("/"), shellKey} {
		if err := bucket.Put(ctx, key, shell); err != nil {
			logging.Warn(p.logger, "caching application shell failed", logging.FieldURL, key, "error", err)
		}
	}

	assets := p.assetReferences(shell.Body)
	logging.Info(p.logger, "discovered bundled assets", logging.FieldCount, len(assets))
	p.cacheAll(ctx, bucket, assets)
}

// assetReferences returns absolute same-origin asset URLs referenced by link href and
// script src attributes, in document order without duplicates.
func (p *Proxy) assetReferences(markup []byte) []string {
	base, err := url.Parse(p.opts.Origin + "/")
	if err != nil {
		return nil
	}
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	z := html.NewTokenizer(bytes.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		var attr string
		switch tok.Data {
		case "link":
			attr = "href"
		case "script":
			attr = "src"
		default:
			continue
		}
		for _, a := range tok.Attr {
			if a.Key != attr || a.Val == "" {
				continue
			}
			ref, err := url.Parse(a.Val)
			if err != nil {
				continue
			}
			abs := base.ResolveReference(ref)
			if !p.opts.sameOrigin(abs) || !p.opts.isAsset(abs.Path) {
				continue
			}
			abs.Fragment = ""
			key := abs.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
}
