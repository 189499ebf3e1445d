// Package history keeps a bounded, in-memory log of recent administrative
// actions performed through the panel.
//
// The log holds at most a fixed number of entries. Once full, appending a new
// entry evicts the oldest one (strict FIFO). Entries are never persisted and
// are lost when the process exits.
//
// # Usage
//
//	log := history.New(history.DefaultCapacity)
//	log.Append(history.Entry{User: "admin@example.com", Command: "list", Result: "There are 0 players online"})
//	for _, e := range log.List() {
//	    fmt.Println(e.Timestamp, e.User, e.Command)
//	}
package history
