package listing

import (
	"io"
	"iter"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	mirrorerrors "coursemirror/pkg/errors"
	"coursemirror/pkg/storage"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind is the classification of a listing entry
type Kind int

const (
	KindUnknown Kind = iota
	KindFolder
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Entry is one link found on a listing page
type Entry struct {
	// Label is the anchor's visible text with whitespace collapsed.
	Label string
	// URL is the absolute target of the anchor.
	URL  string
	Kind Kind
}

// Options configures how listing pages are recognized
type Options struct {
	// BreadcrumbStyle is the style attribute of the breadcrumb banner div.
	BreadcrumbStyle string
	// FolderIcon is a substring of the icon src that marks a folder.
	FolderIcon string
	// DocumentIcons are substrings of the icon src that mark a downloadable file.
	DocumentIcons []string
}

// DefaultOptions returns the markers used by the Ninova portal
func DefaultOptions() Options {
	return Options{
		BreadcrumbStyle: "background-color: #90D1E7; color: #fff;padding:4px;",
		FolderIcon:      "folder.png",
		DocumentIcons:   []string{"ikon-pdf.png"},
	}
}

// Page is a parsed listing page
type Page struct {
	doc  *html.Node
	base *url.URL
	opts Options
}

// Parse reads an HTML listing page. Relative hrefs are resolved against base.
func Parse(r io.Reader, base *url.URL, opts Options) (*Page, error) {
	if base == nil {
		return nil, mirrorerrors.New(mirrorerrors.ErrorTypeParsing, "", "base URL is required")
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeParsing, base.String(), "failed to parse HTML", err)
	}
	return &Page{doc: doc, base: base, opts: opts}, nil
}

var separators = regexp.MustCompile(`/+`)

// Breadcrumb returns the relative directory announced by the page's
// breadcrumb banner, or "" if the page has none. Every segment is sanitized
// and segments that sanitize to "" are dropped.
func (p *Page) Breadcrumb() string {
	banner := p.findBreadcrumb(p.doc)
	if banner == nil {
		return ""
	}

	var segments []string
	for _, part := range separators.Split(strippedText(banner), -1) {
		if clean := storage.Sanitize(part); clean != "" {
			segments = append(segments, clean)
		}
	}
	if len(segments) == 0 {
		return ""
	}
	return filepath.Join(segments...)
}

func (p *Page) findBreadcrumb(n *html.Node) *html.Node {
	want := normalizeStyle(p.opts.BreadcrumbStyle)
	if want == "" {
		return nil
	}
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Div {
			if style, ok := getAttr(n, "style"); ok && normalizeStyle(style) == want {
				found = n
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(n)
	return found
}

// normalizeStyle makes style attributes comparable regardless of spacing,
// case and a trailing semicolon.
func normalizeStyle(style string) string {
	s := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.TrimRight(s, ";")
}

// Entries yields the page's entries in document order. The sequence can be
// ranged over any number of times.
func (p *Page) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		p.walkEntries(p.doc, yield)
	}
}

// walkEntries returns false once yield asked to stop
func (p *Page) walkEntries(n *html.Node, yield func(Entry) bool) bool {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Td:
			if !hasDescendant(n, atom.Td) {
				return p.walkCell(n, yield)
			}
		case atom.A:
			if img := firstDescendant(n, atom.Img); img != nil {
				if entry, ok := p.entryFor(n, img); ok {
					return yield(entry)
				}
				return true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !p.walkEntries(c, yield) {
			return false
		}
	}
	return true
}

// walkCell handles an innermost table cell. Anchors wrapping their own icon
// are yielded individually; otherwise the cell's first link is paired with
// its first icon.
func (p *Page) walkCell(td *html.Node, yield func(Entry) bool) bool {
	wrapped := false
	for a := range descendants(td, atom.A) {
		img := firstDescendant(a, atom.Img)
		if img == nil {
			continue
		}
		wrapped = true
		if entry, ok := p.entryFor(a, img); ok && !yield(entry) {
			return false
		}
	}
	if wrapped {
		return true
	}

	var anchor *html.Node
	for a := range descendants(td, atom.A) {
		if _, ok := p.resolve(a); ok {
			anchor = a
			break
		}
	}
	img := firstDescendant(td, atom.Img)
	if anchor == nil || img == nil {
		return true
	}
	if entry, ok := p.entryFor(anchor, img); ok {
		return yield(entry)
	}
	return true
}

func (p *Page) entryFor(a, img *html.Node) (Entry, bool) {
	target, ok := p.resolve(a)
	if !ok {
		return Entry{}, false
	}
	src, _ := getAttr(img, "src")
	return Entry{
		Label: strings.Join(strings.Fields(textContent(a)), " "),
		URL:   target,
		Kind:  Classify(src, p.opts),
	}, true
}

// resolve returns the absolute URL of an anchor's href
func (p *Page) resolve(a *html.Node) (string, bool) {
	href, ok := getAttr(a, "href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return p.base.ResolveReference(ref).String(), true
}

// Classify maps an icon src to an entry kind. The folder token is checked
// first, then each document token in order.
func Classify(src string, opts Options) Kind {
	if opts.FolderIcon != "" && strings.Contains(src, opts.FolderIcon) {
		return KindFolder
	}
	for _, token := range opts.DocumentIcons {
		if token != "" && strings.Contains(src, token) {
			return KindDocument
		}
	}
	return KindUnknown
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// descendants yields element descendants of n with the given atom
func descendants(n *html.Node, a atom.Atom) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		var walk func(*html.Node) bool
		walk = func(n *html.Node) bool {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.DataAtom == a && !yield(c) {
					return false
				}
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(n)
	}
}

func firstDescendant(n *html.Node, a atom.Atom) *html.Node {
	for d := range descendants(n, a) {
		return d
	}
	return nil
}

func hasDescendant(n *html.Node, a atom.Atom) bool {
	return firstDescendant(n, a) != nil
}

// textContent concatenates all text below n
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// strippedText concatenates the trimmed text nodes below n
func strippedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
