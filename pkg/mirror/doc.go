// Package mirror walks a course's listing pages and reproduces the folder
// hierarchy on disk.
//
// The walk is a sequential depth-first recursion. Each page is entered at most
// once per run: its normalized URL goes into a VisitedSet before the page is
// requested. A page's files are saved under root joined with the path from
// the page's own breadcrumb; when a page has none, the directory derived from
// the parent's folder label is used instead.
//
// Failures of single pages or files are logged and counted in Stats and never
// stop the run. MaxDepth and MaxPages bound runaway hierarchies.
//
//	engine := mirror.NewEngine(client, fetcher, mirror.DefaultOptions(), log)
//	stats, err := engine.Run(ctx, startURL, "downloads")
package mirror
