// Package recipes persists recipe records on top of a blobstore.Store.
//
// Each recipe lives under its own id within a partition (default "recipes"):
// info.json holds the Record, original-{n}.jpg the submitted photographs,
// recipe.json the extracted Recipe, and thumbnail.jpg the generated
// thumbnail. Every write is an overwrite of one blob; there are no
// cross-blob transactions.
package recipes
