// Package probecache memoizes ffprobe results in SQLite.
//
// Rows are keyed by absolute path and invalidated when the file's size or
// modification time changes, so repeated extract and probe runs over the same
// library skip the ffprobe subprocess. The raw ffprobe JSON is stored and
// re-parsed on a hit, keeping the metadata rules in one place.
package probecache
