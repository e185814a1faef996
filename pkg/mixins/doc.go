// Package mixins loads mixins schema documents from a versioned catalog and
// turns them into model.FormItem trees, and carries the persisted values and
// the persistence contract those forms edit.
//
// Three kinds of schema references feed a load: plain mixin URLs used as-is,
// versioned schema URLs re-fetched by id and version, and versioned reference
// URLs served by a parallel catalog. References are de-duplicated by schema
// id; explicitly supplied references win over ones derived from current
// values, which win over the catalog's default list.
//
// A schema that fails to load is logged, recorded in Result.Failures and left
// out of Result.Forms; it never fails the whole load.
package mixins
