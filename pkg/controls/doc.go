// Package controls maps a classified form item plus its current value to the
// input control that edits it, and coerces raw user input back into the
// stored representation for that kind.
package controls
