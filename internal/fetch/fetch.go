// Package fetch downloads remote installer scripts (Homebrew, SDKMAN, nvm)
// to temporary files so they can be run with bash instead of being piped
// straight from the network.
package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultTimeout bounds a single script download.
const DefaultTimeout = 2 * time.Minute

// Client fetches scripts over HTTP. The zero value is not usable; construct
// with NewClient.
type Client struct {
	http *http.Client
}

// NewClient returns a Client with the default timeout.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: DefaultTimeout}}
}

// NewClientWithHTTP returns a Client using the given http.Client, for tests.
func NewClientWithHTTP(h *http.Client) *Client {
	return &Client{http: h}
}

// Script downloads url to a temporary file and returns its path together
// with a cleanup function. The file is created with 0700 so bash can run it
// directly.
func (c *Client) Script(ctx context.Context, url string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, errors.Wrap(err, "building request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, errors.Newf("fetching %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "machine-setup-installer-*.sh")
	if err != nil {
		return "", nil, errors.Wrap(err, "creating temp file")
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Chmod(0o700); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, errors.Wrap(err, "setting script permissions")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, "closing script file")
	}

	return tmp.Name(), cleanup, nil
}
