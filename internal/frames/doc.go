// Package frames streams raw video frames between Go and an ffmpeg subprocess.
//
// A Reader probes a file, derives the decode command and frame geometry once,
// and on the first ReadFrame starts ffmpeg with its stdout piped. Every call
// consumes exactly one frame's worth of bytes and returns it as a Frame of
// float samples on an 8-bit scale (16-bit sources are divided by 257).
//
// A Writer is the inverse: on the first WriteFrame it starts an H.264 encode
// with stdin piped and writes each frame's packed bytes. Close ends the input
// and waits, bounded by a timeout, for ffmpeg to finish the file.
//
// Frame boundaries on the pipe are implicit; the byte length of every frame
// must match the geometry exactly, so short reads and shape mismatches are
// fatal to the session. Sessions are not safe for concurrent use.
package frames
