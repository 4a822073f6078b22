package mirror

import (
	"context"

	"coursemirror/pkg/fetcher"
	"coursemirror/pkg/portal"
)

// PageSource defines how listing pages are fetched
type PageSource interface {
	GetDocument(ctx context.Context, rawURL string) (*portal.Document, error)
}

// FileFetcher defines how documents are downloaded
type FileFetcher interface {
	Fetch(ctx context.Context, rawURL, dir, hint string) (*fetcher.Download, error)
}
