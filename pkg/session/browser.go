package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	mirrorerrors "coursemirror/pkg/errors"
	"coursemirror/pkg/logger"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserOptions configures a browser-driven login
type BrowserOptions struct {
	// LoginURL is any portal page that redirects to the login form.
	LoginURL string
	// PortalURL is the portal origin the session is for.
	PortalURL string

	Username string
	Password string

	UsernameField string
	PasswordField string
	SubmitButton  string

	Headless   bool
	ChromePath string
	// Timeout bounds the whole login.
	Timeout time.Duration
	// RequestTimeout is passed to the resulting HTTP client.
	RequestTimeout time.Duration
}

// BrowserLogin signs in through a real Chrome instance and returns an HTTP
// client carrying the resulting cookies.
func BrowserLogin(ctx context.Context, opts BrowserOptions, log logger.Logger) (*http.Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeAuth, opts.LoginURL, "username and password are required")
	}
	portal, err := url.Parse(opts.PortalURL)
	if err != nil || portal.Host == "" {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeParsing, opts.PortalURL, "portal URL must be absolute")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
		defer cancel()
	}

	log.InfoWithFields("opening login page", map[string]interface{}{
		"url":      opts.LoginURL,
		"headless": opts.Headless,
	})

	err = chromedp.Run(browserCtx,
		chromedp.Navigate(opts.LoginURL),
		chromedp.WaitVisible(opts.UsernameField, chromedp.ByQuery),
		chromedp.SendKeys(opts.UsernameField, opts.Username, chromedp.ByQuery),
		chromedp.SendKeys(opts.PasswordField, opts.Password, chromedp.ByQuery),
		chromedp.Click(opts.SubmitButton, chromedp.ByQuery),
	)
	if err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeAuth, opts.LoginURL, "failed to submit login form", err)
	}

	if err := waitForHost(browserCtx, portal.Host); err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeAuth, opts.LoginURL, "login did not return to the portal", err)
	}

	var browserCookies []*network.Cookie
	err = chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		browserCookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeAuth, opts.PortalURL, "failed to read browser cookies", err)
	}

	log.InfoWithFields("login succeeded", map[string]interface{}{
		"cookies": len(browserCookies),
	})

	return FromCookies(opts.PortalURL, convertCookies(browserCookies), opts.RequestTimeout)
}

// waitForHost polls the page location until it is on host
func waitForHost(ctx context.Context, host string) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		var location string
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return err
		}
		if onHost(location, host) {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("still at %s: %w", location, ctx.Err())
		case <-ticker.C:
		}
	}
}

// onHost reports whether location is a page on host. The login form's own
// URL usually carries the portal address in its query, so only the host
// component is compared.
func onHost(location, host string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func convertCookies(in []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, cookie)
	}
	return out
}
