package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"nfl-scoreboard-service/internal/cachestore"
	"nfl-scoreboard-service/internal/domain/scoreboard"
)

const notAvailableOffline = "Resource not available offline"

const offlinePage = `<!DOCTYPE html>
<html>
<head>
  <title>NFL Scoreboard - Offline</title>
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { font-family: system-ui, sans-serif; text-align: center; padding: 50px 20px; background-color: #f5f5f5; color: #333; margin: 0; }
    .offline-container { max-width: 400px; margin: 0 auto; background: white; padding: 40px; border-radius: 12px; }
    h1 { color: #013369; }
    button { background: #013369; color: white; border: none; padding: 12px 24px; border-radius: 8px; font-size: 16px; cursor: pointer; }
  </style>
</head>
<body>
  <div class="offline-container">
    <h1>You're Offline</h1>
    <p>Please check your internet connection and try again to load fresh NFL scores.</p>
    <button onclick="location.reload()">Try Again</button>
  </div>
</body>
</html>
`

// HTTPStatusError reports a non-2xx upstream status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// fetch GETs rawURL through the underlying transport and buffers a 2xx response.
func (p *Proxy) fetch(ctx context.Context, rawURL string) (cachestore.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return cachestore.Response{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return cachestore.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return cachestore.Response{}, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachestore.Response{}, err
	}
	return toStored(resp, body), nil
}

func toStored(resp *http.Response, body []byte) cachestore.Response {
	header := resp.Header.Clone()
	header.Del("Content-Length")
	return cachestore.Response{
		Status: resp.StatusCode,
		Header: header,
		Body:   body,
	}
}

func fromStored(req *http.Request, stored cachestore.Response) *http.Response {
	return newResponse(req, stored.Status, stored.Header, stored.Body)
}

func newResponse(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	if header == nil {
		header = http.Header{}
	} else {
		header = header.Clone()
	}
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func textResponse(req *http.Request, status int, contentType string, body []byte) *http.Response {
	return newResponse(req, status, http.Header{"Content-Type": []string{contentType}}, body)
}

func placeholderResponse(req *http.Request) *http.Response {
	return textResponse(req, http.StatusOK, "application/json", scoreboard.OfflinePlaceholder())
}

func offlinePageResponse(req *http.Request) *http.Response {
	return textResponse(req, http.StatusOK, "text/html; charset=utf-8", []byte(offlinePage))
}

func notFoundResponse(req *http.Request) *http.Response {
	return textResponse(req, http.StatusNotFound, "text/plain; charset=utf-8", []byte(notAvailableOffline))
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
