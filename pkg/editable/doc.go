// Package editable converts persisted mixins value trees into an editing
// representation where every array element carries a synthetic id, and back.
//
// Ids are generated once per element (on wrap or append) and never change
// while the element exists, so removing or reordering one row never shifts
// the identity of its siblings. Ids are stripped before values are persisted.
package editable
