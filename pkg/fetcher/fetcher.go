package fetcher

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"coursemirror/pkg/logger"
	"coursemirror/pkg/portal"
	"coursemirror/pkg/storage"

	"golang.org/x/net/html/charset"
)

// DefaultFallbackName is used when no filename can be derived from a response
const DefaultFallbackName = "downloaded_file.pdf"

// Download describes one completed file download
type Download struct {
	URL   string
	Path  string
	Bytes int64
}

// Fetcher downloads single files into a directory
type Fetcher struct {
	client   *portal.Client
	storage  *storage.Manager
	fallback string
	logger   logger.Logger
}

// New creates a new Fetcher. An empty fallback selects DefaultFallbackName.
func New(client *portal.Client, store *storage.Manager, fallback string, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if storage.Sanitize(fallback) == "" {
		fallback = DefaultFallbackName
	}
	return &Fetcher{
		client:   client,
		storage:  store,
		fallback: storage.Sanitize(fallback),
		logger:   log,
	}
}

// Fetch downloads rawURL into dir. A non-empty hint is used as the file name;
// otherwise the name comes from the response headers or the URL. Failed
// downloads leave no file behind. The download is attempted once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir, hint string) (*Download, error) {
	start := time.Now()

	resp, err := f.client.Get(ctx, rawURL)
	if err != nil {
		f.logFailure(rawURL, dir, err)
		return nil, err
	}
	defer resp.Body.Close()

	name := storage.Sanitize(hint)
	if name == "" {
		name = ResolveFilename(resp.Header.Get("Content-Disposition"), rawURL, f.fallback)
	}

	saved, n, err := f.storage.Save(ctx, resp.Body, dir, name)
	if err != nil {
		f.logFailure(rawURL, dir, err)
		return nil, err
	}

	f.logger.InfoWithFields("file downloaded", map[string]interface{}{
		"url":      rawURL,
		"file":     saved,
		"bytes":    n,
		"duration": time.Since(start),
	})

	return &Download{URL: rawURL, Path: saved, Bytes: n}, nil
}

func (f *Fetcher) logFailure(rawURL, dir string, err error) {
	f.logger.ErrorWithFields("download failed", map[string]interface{}{
		"url":   rawURL,
		"dir":   dir,
		"error": err.Error(),
	})
}

var (
	extendedFilename = regexp.MustCompile(`(?i)(?:^|;)\s*filename\*\s*=\s*([^;]*)`)
	plainFilename    = regexp.MustCompile(`(?i)(?:^|;)\s*filename\s*=\s*("[^"]*"|[^;]*)`)
)

// ResolveFilename picks a file name for a download. It prefers the extended
// filename* parameter of the Content-Disposition header, then the plain
// filename parameter, then the last element of the URL path, then fallback.
// The result is always sanitized.
func ResolveFilename(contentDisposition, rawURL, fallback string) string {
	candidates := []func() string{
		func() string { return extendedParam(contentDisposition) },
		func() string { return plainParam(contentDisposition) },
		func() string { return urlBasename(rawURL) },
	}
	for _, candidate := range candidates {
		if name := storage.Sanitize(candidate()); name != "" {
			return name
		}
	}
	if name := storage.Sanitize(fallback); name != "" {
		return name
	}
	return DefaultFallbackName
}

// extendedParam decodes an RFC 5987 value such as UTF-8''L%C3%BCtfen.pdf
func extendedParam(header string) string {
	m := extendedFilename.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	value := strings.Trim(strings.TrimSpace(m[1]), `"`)

	encodingLabel := ""
	if parts := strings.SplitN(value, "'", 3); len(parts) == 3 {
		encodingLabel, value = parts[0], parts[2]
	}

	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}

	switch strings.ToLower(encodingLabel) {
	case "", "utf-8", "utf8", "us-ascii":
		return decoded
	}
	enc, _ := charset.Lookup(encodingLabel)
	if enc == nil {
		return decoded
	}
	converted, err := enc.NewDecoder().String(decoded)
	if err != nil {
		return decoded
	}
	return converted
}

func plainParam(header string) string {
	m := plainFilename.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), `"'`)
}

func urlBasename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
