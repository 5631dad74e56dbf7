package mavenindex

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	perr "indexcrawler/internal/platform/errors"
)

// DefaultBaseURL is the incremental segment prefix on Maven Central; the segment url is base + N + ".gz"
const DefaultBaseURL = "https://repo1.maven.org/maven2/.index/nexus-maven-repository-index."

// HTTPFetcher probes and downloads segments over HTTP
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewHTTPFetcher builds a fetcher; an empty base selects Maven Central, zero timeout means none
func NewHTTPFetcher(base string, timeout time.Duration) *HTTPFetcher {
	if base == "" {
		base = DefaultBaseURL
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}, BaseURL: base}
}

// URL returns the location of segment n
func (f *HTTPFetcher) URL(n int64) string {
	return f.BaseURL + strconv.FormatInt(n, 10) + ".gz"
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Exists reports whether segment n is published. Any status other than 200 means not yet.
// A transport error returns false and the error
func (f *HTTPFetcher) Exists(ctx context.Context, n int64) (bool, error) {
	url := f.URL(n)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "mavenindex: probe request for %s", url)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeUnavailable, "mavenindex: probe %s", url)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// Download streams segment n into a new temp file under dir ("" = os.TempDir) and returns its path.
// The caller removes the file. Nothing is left behind on error
func (f *HTTPFetcher) Download(ctx context.Context, n int64, dir string) (path string, err error) {
	url := f.URL(n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "mavenindex: download request for %s", url)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "mavenindex: download %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", perr.Unavailablef("mavenindex: unexpected status %d for %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(dir, "nexus-maven-repository-index.*."+strconv.FormatInt(n, 10)+".gz")
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "mavenindex: create temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, resp.Body); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "mavenindex: read body of %s", url)
	}
	if err = tmp.Close(); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "mavenindex: close temp file")
	}
	return tmp.Name(), nil
}

// Open opens a downloaded segment for reading; closing the Reader closes the file
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "mavenindex: open %s", path)
	}
	rd, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return rd, nil
}
