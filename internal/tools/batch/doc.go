// Package batch runs a sequence of console commands and reports a result per
// command.
//
// Tools accept either a single command or an array of commands; the helpers
// here parse both forms, run the items in order and render the aggregated
// outcome, including partial failures, as JSON.
package batch
