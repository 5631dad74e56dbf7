// Package mavenindex reads incremental Maven repository index segments
//
// Design choices:
// - Segments are fetched to a temp file first so a crawl never holds a connection open while dispatching.
// - The reader streams documents one at a time; nothing but the current document is kept in memory.
// - Truncation at a document boundary is a clean end, anywhere else it is ErrCorrupt.
// - Field values keep the index's own encoding rules (modified UTF-8); coordinate parsing lives in types.go.
package mavenindex
