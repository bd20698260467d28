// Package logtail reads the tail of netscope's own log file for the Logs
// tab.
//
// # Reading Log Files
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// O(maxLines) regardless of file size:
//
//  1. Allocate ring buffer of size maxLines
//  2. For each line in file, store it at the current index and wrap
//  3. Return the buffer starting from the oldest retained line
//
// A missing file returns nil, nil; the log may simply not exist yet.
//
// # Parsing
//
// Parse understands the JSON lines zerolog writes when log_format is
// "json" and splits out time, level, component, message and error. Console
// output and anything else becomes a plain message so the view can still
// show it.
package logtail
