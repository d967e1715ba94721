// Package workflow runs a recipe through the extract, thumbnail, and
// marketing stages.
//
// The Manager loads the recipe record, executes each stage handler in order,
// and records progress in the record's status after every stage so a later run
// can resume where the previous one stopped. The first stage failure ends the
// run: the manager persists the failed stage and error message, emits a
// notification, and returns the error untouched so callers can classify it with
// errors.Is against the services sentinels.
//
// Concurrent runs for one recipe are not coordinated here unless a lock
// directory is configured; callers such as the CLI opt into per-recipe file
// locks via WithLockDir.
package workflow
