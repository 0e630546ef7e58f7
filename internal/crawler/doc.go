// Package crawler implements the directory-listing walk: the redirect-aware
// request layer, listing extraction with its containment check, and the
// concurrent size aggregation.
//
// A crawl starts at a directory URL. Each directory is fetched with GET and
// its anchors classified: a trailing slash marks a subdirectory, anything
// else a file. Subdirectories must stay on the same origin and strictly
// below the directory that linked them. Files are sized with HEAD. Every
// child runs in its own goroutine, and a failing child is logged and counts
// as zero without disturbing its siblings.
package crawler
