package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coursemirror/pkg/auth"
	"coursemirror/pkg/config"
	mirrorerrors "coursemirror/pkg/errors"
	"coursemirror/pkg/fetcher"
	"coursemirror/pkg/listing"
	"coursemirror/pkg/logger"
	"coursemirror/pkg/mirror"
	"coursemirror/pkg/portal"
	"coursemirror/pkg/ratelimit"
	"coursemirror/pkg/session"
	"coursemirror/pkg/storage"
)

// openSession returns an authenticated HTTP client. A configured cookie
// header wins; otherwise the stored (or named) account logs in through the
// browser.
func openSession(ctx context.Context, cfg *config.Config, accountName string, log logger.Logger) (*http.Client, error) {
	if cfg.Portal.Cookies != "" {
		log.Info("using cookie header session")
		return session.FromCookieHeader(cfg.Portal.BaseURL, cfg.Portal.Cookies, cfg.Portal.RequestTimeout)
	}

	account, err := findAccount(accountName)
	if err != nil {
		return nil, err
	}

	log.WithField("account", account.Username).Info("logging in through the browser")
	return session.BrowserLogin(ctx, session.BrowserOptions{
		LoginURL:       cfg.Portal.LoginURL,
		PortalURL:      cfg.Portal.BaseURL,
		Username:       account.Username,
		Password:       account.Password,
		UsernameField:  cfg.Browser.UsernameField,
		PasswordField:  cfg.Browser.PasswordField,
		SubmitButton:   cfg.Browser.SubmitButton,
		Headless:       cfg.Browser.Headless,
		ChromePath:     cfg.Browser.ChromePath,
		Timeout:        cfg.Browser.LoginTimeout,
		RequestTimeout: cfg.Portal.RequestTimeout,
	}, log)
}

func findAccount(name string) (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if name != "" {
		account, err = manager.Retrieve(name)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeAuth, "",
			"no session: pass --cookies, set "+auth.EnvUsername+"/"+auth.EnvPassword+" or run 'coursemirror auth login'", err)
	}
	return account, err
}

// newPortalClient wraps the session with the configured headers and rate limit
func newPortalClient(cfg *config.Config, httpClient *http.Client, log logger.Logger) *portal.Client {
	client := portal.NewClient(httpClient, ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute), log)
	if cfg.Portal.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Portal.UserAgent)
	}
	return client
}

// newFetcher builds the file fetcher writing below the configured output
func newFetcher(cfg *config.Config, client *portal.Client, log logger.Logger) (*fetcher.Fetcher, error) {
	store, err := storage.NewManager(cfg.Download.BaseDirectory, cfg.Download.ChunkSize)
	if err != nil {
		return nil, err
	}
	return fetcher.New(client, store, cfg.Download.FallbackFilename, log), nil
}

// engineOptions translates the configuration into traversal options
func engineOptions(cfg *config.Config, progress func(mirror.Stats)) mirror.Options {
	return mirror.Options{
		MaxDepth:            cfg.Traversal.MaxDepth,
		MaxPages:            cfg.Traversal.MaxPages,
		VolatileQueryParams: cfg.Traversal.VolatileQueryParams,
		Listing: listing.Options{
			BreadcrumbStyle: cfg.Portal.BreadcrumbStyle,
			FolderIcon:      cfg.Portal.FolderIcon,
			DocumentIcons:   cfg.Portal.DocumentIcons,
		},
		Progress: progress,
	}
}
