package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Session carries the credentials the authenticated endpoints require.
// Obtain one per logical sync unit; sessions are never cached.
type Session struct {
	CSRFToken string
	Cookie    string
}

// NewSession loads the site root and extracts the CSRF token and cookies.
func (c *Client) NewSession(ctx context.Context) (Session, error) {
	resp, err := c.do(ctx, &Request{Method: http.MethodGet, Path: "/"}, nil)
	if err != nil {
		return Session{}, fmt.Errorf("remote: new session: %w", err)
	}

	token, err := csrfToken(resp.Body)
	if err != nil {
		return Session{}, err
	}

	return Session{
		CSRFToken: token,
		Cookie:    joinCookies(resp.Header.Values("Set-Cookie")),
	}, nil
}

// csrfToken returns the content of <meta name="csrf-token">.
func csrfToken(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("remote: parse site root: %w", err)
	}

	var find func(*html.Node) (string, bool)
	find = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta && attr(n, "name") == "csrf-token" {
			return attr(n, "content"), true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if v, ok := find(child); ok {
				return v, true
			}
		}
		return "", false
	}

	token, ok := find(doc)
	if !ok || token == "" {
		return "", ErrNoCSRFToken
	}
	return token, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// joinCookies keeps the "name=value;" prefix of every Set-Cookie header and
// joins them with a space.
func joinCookies(headers []string) string {
	parts := make([]string, 0, len(headers))
	for _, h := range headers {
		if i := strings.IndexByte(h, ';'); i >= 0 {
			h = h[:i+1]
		}
		parts = append(parts, h)
	}
	return strings.Join(parts, " ")
}
