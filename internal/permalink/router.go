// Package permalink builds shareable URLs for comments.
package permalink

import (
	"fmt"
	"net/url"
	"strings"
)

// Router builds comment URLs for a single sandbox.
type Router struct {
	base      *url.URL
	sandboxID string
}

// New creates a router for sandboxID below baseURL. baseURL must be an
// absolute http(s) URL.
func New(baseURL, sandboxID string) (*Router, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}
	if sandboxID == "" {
		return nil, fmt.Errorf("sandbox id is required")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return &Router{base: u, sandboxID: sandboxID}, nil
}

// SandboxURL returns the URL of the sandbox itself.
func (r *Router) SandboxURL() string {
	u := *r.base
	u.Path += "/s/" + r.sandboxID
	return u.String()
}

// CommentURL returns the URL that opens the sandbox with commentID selected.
func (r *Router) CommentURL(commentID string) string {
	u := *r.base
	u.Path += "/s/" + r.sandboxID
	u.RawQuery = url.Values{"comment": []string{commentID}}.Encode()
	return u.String()
}

// ParseCommentURL extracts the sandbox and comment ids from a comment URL.
func ParseCommentURL(raw string) (sandboxID, commentID string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	idx := strings.LastIndex(u.Path, "/s/")
	if idx < 0 {
		return "", "", fmt.Errorf("%q is not a sandbox url", raw)
	}
	sandboxID = strings.Trim(u.Path[idx+len("/s/"):], "/")
	commentID = u.Query().Get("comment")
	if sandboxID == "" || commentID == "" {
		return "", "", fmt.Errorf("%q is not a comment url", raw)
	}
	return sandboxID, commentID, nil
}
