// Package model defines the UI-ready form item tree built from mixins schema
// documents. Classify maps every schema property onto a closed set of field
// kinds (text, integer, decimal, boolean, enum, date, date-time, time,
// localized, object, array, unknown); the loader in pkg/mixins attaches
// localized display names, required/read-only flags and nested children to
// produce FormItem trees, and SortItems fixes the sibling order renderers use.
package model
