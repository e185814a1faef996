package mixins

import "errors"

var (
	// ErrRefCycle reports a $ref chain that points back at itself.
	ErrRefCycle = errors.New("mixins: $ref cycle")
	// ErrRefDepth reports a $ref chain deeper than the configured limit.
	ErrRefDepth = errors.New("mixins: $ref depth exceeded")
	// ErrNoCatalog reports a loader built without a catalog.
	ErrNoCatalog = errors.New("mixins: catalog is required")
)

// SaveError carries a failed persistence response.
type SaveError struct {
	SchemaKey  string
	StatusCode int
	Body       string
}

func (e *SaveError) Error() string {
	if e.Body == "" {
		return "mixins: save " + e.SchemaKey + ": " + statusText(e.StatusCode)
	}
	return "mixins: save " + e.SchemaKey + ": " + statusText(e.StatusCode) + ": " + e.Body
}
