// Package cache persists scan results keyed by a content fingerprint of
// the scanned tree, so unchanged artifacts are not re-scanned.
//
// The fingerprint covers every regular file's relative path, size, and
// modification time. Touching, adding, or removing any file changes the
// fingerprint and invalidates the cached result. Entries are stored as
// JSON files under a single directory and pruned oldest-first when the
// directory exceeds its capacity.
//
// The cache is advisory. A failed load is reported as a miss and a
// failed store is logged and otherwise ignored by callers, so scans
// always proceed.
package cache
