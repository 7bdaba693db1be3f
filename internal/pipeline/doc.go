// Package pipeline resolves the source path, routes each file to the image
// or video handler by extension, and reports a batch summary.
//
// Files are handled one at a time on the calling goroutine. A directory is
// listed once, non-recursively, in the order the filesystem returns entries;
// no ordering between files is promised. Cancellation is honored between
// files only, so an interrupted run never leaves a half-written output.
//
// Detection and video I/O come in through [Env] as interfaces, which keeps
// this package free of cgo.
package pipeline
