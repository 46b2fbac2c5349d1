// Package main hosts the vidframes CLI.
//
// The Cobra command tree exposes the frames library from a terminal: probing
// metadata, extracting raw frames to image files, encoding image sequences
// to H.264, and transcoding one video into another through the raw frame
// pipe. Configuration and logging are resolved once per invocation so the
// subcommands only wire flags to the library.
package main
