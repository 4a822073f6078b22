// Package listing reads course listing pages.
//
// A listing page carries a breadcrumb banner, a div recognized only by its
// inline style, and a set of links each paired with an icon. The icon tells
// folders from downloadable documents. Two layouts occur on the portal:
// the anchor wraps its icon, or the icon and anchor are siblings in one cell.
//
//	page, err := listing.Parse(body, pageURL, listing.DefaultOptions())
//	dir := page.Breadcrumb()
//	for entry := range page.Entries() {
//	    switch entry.Kind {
//	    case listing.KindFolder:
//	    case listing.KindDocument:
//	    }
//	}
package listing
