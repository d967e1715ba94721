// Package prompts supplies the instruction text for each pipeline stage.
//
// Defaults are compiled into the binary. A directory configured under
// prompts.dir may override any of them by file name.
package prompts
