// Package template defines the template engine contract HTML renderers build
// on. The pongo2 implementation lives in the gotemplate subpackage.
package template
