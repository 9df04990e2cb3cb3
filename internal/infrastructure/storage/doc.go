// Package storage persists the plan document on local disk.
//
// The whole document lives in one indented UTF-8 JSON file. Load never
// fails: a missing, unreadable or malformed file yields the default
// document. Save replaces the file through a temp file and rename.
// Export renders the same document as a timestamped JSON or YAML download.
package storage
