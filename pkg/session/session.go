package session

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	mirrorerrors "coursemirror/pkg/errors"

	"golang.org/x/net/publicsuffix"
)

// NewClient returns an http.Client with an empty cookie jar. The timeout
// bounds the wait for response headers only, so long downloads are not cut.
func NewClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		transport.ResponseHeaderTimeout = timeout
	}

	return &http.Client{
		Jar:       jar,
		Transport: transport,
	}, nil
}

// FromCookieHeader builds a session from a "name=value; name2=value2" string
// copied from a logged-in browser. The cookies are scoped to baseURL's host.
func FromCookieHeader(baseURL, header string, timeout time.Duration) (*http.Client, error) {
	header = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "Cookie:"))
	if header == "" {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeAuth, baseURL, "cookie header is empty")
	}

	cookies, err := http.ParseCookie(header)
	if err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeAuth, baseURL, "invalid cookie header", err)
	}

	return FromCookies(baseURL, cookies, timeout)
}

// FromCookies builds a session holding the given cookies. Cookies without a
// domain are scoped to baseURL's host; the others keep their own domain.
func FromCookies(baseURL string, cookies []*http.Cookie, timeout time.Duration) (*http.Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeParsing, baseURL, "base URL must be absolute")
	}

	client, err := NewClient(timeout)
	if err != nil {
		return nil, err
	}

	byOrigin := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		origin := base.Scheme + "://" + base.Host + "/"
		if domain := strings.TrimPrefix(c.Domain, "."); domain != "" {
			origin = base.Scheme + "://" + domain + "/"
		}
		byOrigin[origin] = append(byOrigin[origin], c)
	}

	for origin, group := range byOrigin {
		u, err := url.Parse(origin)
		if err != nil {
			continue
		}
		client.Jar.SetCookies(u, group)
	}

	if len(client.Jar.Cookies(base)) == 0 {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeAuth, baseURL, "no cookies apply to the portal")
	}

	return client, nil
}
