// Package signature holds the detection rules used by the sigil scanner:
// the built-in rule tables for the five line-oriented phases, and the
// optional externally supplied signatures that are merged over them.
//
// # Rules
//
// A Rule pairs a compiled regular expression with a rule identifier,
// severity, description, and score weight. Install-hook rules
// additionally restrict themselves to well-known filenames (setup.py,
// package.json, Makefile, pyproject.toml); all other rules apply to
// every file.
//
// # External signatures
//
// CloudSignature records are loaded from a JSON file in either of two
// persisted formats (a bare array, or an object wrapping a "signatures"
// array) and merged into a Registry by signature id: a signature whose
// id matches an existing rule replaces it, and all unmatched built-in
// rules are retained. A signature whose pattern does not compile is
// skipped rather than failing the load, so one malformed remote
// signature cannot abort a scan.
//
// All built-in patterns are compiled once at package initialization;
// scans never recompile them.
package signature
