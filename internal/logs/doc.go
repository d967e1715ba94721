// Package logs reads back the recipeforge log file for the CLI.
//
// Tail returns the last N lines, optionally filtered to a single recipe, and
// Follow streams lines appended after a known offset until the context ends.
// Both bound memory use and tolerate a log file that does not exist yet.
package logs
