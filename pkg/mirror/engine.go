package mirror

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	mirrorerrors "coursemirror/pkg/errors"
	"coursemirror/pkg/listing"
	"coursemirror/pkg/logger"
	"coursemirror/pkg/storage"
)

const (
	DefaultMaxDepth = 32
	DefaultMaxPages = 10000

	// defaultFolderName replaces folder labels that sanitize to nothing
	defaultFolderName = "folder"
)

// Options configures a mirror run
type Options struct {
	// MaxDepth is the deepest folder level entered; the start page is depth 0.
	MaxDepth int
	// MaxPages caps the number of distinct pages entered in one run.
	MaxPages int
	// VolatileQueryParams are ignored when deciding whether a page was seen.
	VolatileQueryParams []string
	// Listing configures how pages are read.
	Listing listing.Options
	// Progress, when set, is called with a snapshot after every page and file.
	Progress func(Stats)
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxDepth:            DefaultMaxDepth,
		MaxPages:            DefaultMaxPages,
		VolatileQueryParams: DefaultVolatileParams,
		Listing:             listing.DefaultOptions(),
	}
}

// Stats summarizes a run
type Stats struct {
	PagesVisited    int
	PagesFailed     int
	PagesSkipped    int
	FilesDownloaded int
	FilesFailed     int
	FilesSkipped    int
	Bytes           int64
	Duration        time.Duration
}

// Engine mirrors a course's listing pages into a local directory tree
type Engine struct {
	pages      PageSource
	files      FileFetcher
	normalizer *Normalizer
	opts       Options
	logger     logger.Logger
}

// NewEngine creates a new Engine
func NewEngine(pages PageSource, files FileFetcher, opts Options, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return &Engine{
		pages:      pages,
		files:      files,
		normalizer: NewNormalizer(opts.VolatileQueryParams),
		opts:       opts,
		logger:     log,
	}
}

// Normalize returns the visited-set key the engine uses for rawURL
func (e *Engine) Normalize(rawURL string) string {
	return e.normalizer.Normalize(rawURL)
}

// Run mirrors everything reachable from startURL into root with a fresh
// visited set. Page and file failures are logged and counted in the
// returned Stats; an error is returned only for invalid input or when ctx
// ends the run early.
func (e *Engine) Run(ctx context.Context, startURL, root string) (*Stats, error) {
	return e.Traverse(ctx, startURL, root, NewVisitedSet())
}

// Traverse is Run with a caller-supplied visited set. URLs already in the
// set are not fetched again.
func (e *Engine) Traverse(ctx context.Context, startURL, root string, visited *VisitedSet) (*Stats, error) {
	if err := validateStartURL(startURL); err != nil {
		return nil, err
	}
	if root == "" {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeFilesystem, "", "root directory is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeFilesystem, "", "failed to create root directory", err)
	}
	if visited == nil {
		visited = NewVisitedSet()
	}

	r := &run{
		engine:     e,
		root:       root,
		visited:    visited,
		downloaded: make(map[string]bool),
		stats:      &Stats{},
	}

	start := time.Now()
	e.logger.InfoWithFields("mirror started", map[string]interface{}{
		"url":  startURL,
		"root": root,
	})

	r.traverse(ctx, startURL, root, 0)

	r.stats.Duration = time.Since(start)
	e.logger.InfoWithFields("mirror finished", map[string]interface{}{
		"pages":        r.stats.PagesVisited,
		"pages_failed": r.stats.PagesFailed,
		"files":        r.stats.FilesDownloaded,
		"files_failed": r.stats.FilesFailed,
		"bytes":        r.stats.Bytes,
		"duration":     r.stats.Duration,
	})

	if err := ctx.Err(); err != nil {
		return r.stats, err
	}
	return r.stats, nil
}

func validateStartURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return mirrorerrors.Wrap(mirrorerrors.ErrorTypeParsing, raw, "invalid start URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return mirrorerrors.New(mirrorerrors.ErrorTypeParsing, raw, "start URL must be an absolute http(s) URL")
	}
	return nil
}

// run is the state shared by every step of one traversal
type run struct {
	engine     *Engine
	root       string
	visited    *VisitedSet
	downloaded map[string]bool
	stats      *Stats
}

func (r *run) traverse(ctx context.Context, pageURL, dir string, depth int) {
	e := r.engine
	log := e.logger.WithFields(map[string]interface{}{
		"url":   pageURL,
		"depth": depth,
	})

	if ctx.Err() != nil {
		return
	}
	if depth > e.opts.MaxDepth {
		log.Warn("maximum depth reached, skipping page")
		r.stats.PagesSkipped++
		return
	}
	if r.visited.Len() >= e.opts.MaxPages {
		log.Warn("page limit reached, skipping page")
		r.stats.PagesSkipped++
		return
	}

	// The URL is marked before the request so a failing page is not retried.
	if !r.visited.Add(e.normalizer.Normalize(pageURL)) {
		log.Info("already visited, skipping")
		r.stats.PagesSkipped++
		return
	}

	log.Info("visiting page")
	doc, err := e.pages.GetDocument(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Error("failed to fetch page")
		r.stats.PagesFailed++
		r.report()
		return
	}

	page, err := listing.Parse(doc.Body, doc.URL, e.opts.Listing)
	if err != nil {
		log.WithError(err).Error("failed to parse page")
		r.stats.PagesFailed++
		r.report()
		return
	}
	r.stats.PagesVisited++

	saveDir := dir
	if crumb := page.Breadcrumb(); crumb != "" {
		saveDir = filepath.Join(r.root, crumb)
	}
	if err := os.MkdirAll(saveDir, 0755); err != nil {
		log.WithError(err).WithField("dir", saveDir).Error("failed to create directory")
		r.stats.PagesFailed++
		r.report()
		return
	}
	log.DebugWithFields("saving files", map[string]interface{}{"dir": saveDir})
	r.report()

	for entry := range page.Entries() {
		if ctx.Err() != nil {
			return
		}
		switch entry.Kind {
		case listing.KindFolder:
			name := storage.Sanitize(entry.Label)
			if name == "" {
				name = defaultFolderName
			}
			log.DebugWithFields("found folder", map[string]interface{}{
				"label":  entry.Label,
				"target": entry.URL,
			})
			r.traverse(ctx, entry.URL, filepath.Join(saveDir, name), depth+1)
		case listing.KindDocument:
			r.download(ctx, entry, saveDir)
		default:
			log.DebugWithFields("ignoring entry", map[string]interface{}{
				"label":  entry.Label,
				"target": entry.URL,
			})
		}
	}
}

func (r *run) download(ctx context.Context, entry listing.Entry, dir string) {
	key := r.engine.normalizer.Normalize(entry.URL)
	if r.downloaded[key] {
		r.engine.logger.DebugWithFields("document already downloaded, skipping", map[string]interface{}{
			"url": entry.URL,
			"dir": dir,
		})
		r.stats.FilesSkipped++
		return
	}
	r.downloaded[key] = true

	dl, err := r.engine.files.Fetch(ctx, entry.URL, dir, "")
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.stats.FilesFailed++
		r.report()
		return
	}
	r.stats.FilesDownloaded++
	r.stats.Bytes += dl.Bytes
	r.report()
}

func (r *run) report() {
	if r.engine.opts.Progress != nil {
		r.engine.opts.Progress(*r.stats)
	}
}

// String renders a one-line summary
func (s Stats) String() string {
	return fmt.Sprintf("%d pages (%d failed, %d skipped), %d files (%d failed, %d skipped), %d bytes in %s",
		s.PagesVisited, s.PagesFailed, s.PagesSkipped,
		s.FilesDownloaded, s.FilesFailed, s.FilesSkipped,
		s.Bytes, s.Duration.Round(time.Millisecond))
}
