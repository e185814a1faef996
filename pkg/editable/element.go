package editable

import (
	"encoding/json"
	"fmt"
)

// Element wraps one array entry with a position-independent identifier.
type Element struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// List is an id-keyed array.
type List []Element

// IDs returns the element ids in order.
func (l List) IDs() []string {
	out := make([]string, len(l))
	for i, el := range l {
		out[i] = el.ID
	}
	return out
}

// Index returns the position of the element with id, or -1.
func (l List) Index(id string) int {
	for i, el := range l {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// Has reports whether id is in use.
func (l List) Has(id string) bool {
	return l.Index(id) >= 0
}

// MarshalJSON keeps empty lists as [] instead of null.
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Element(l))
}

func (l List) String() string {
	return fmt.Sprintf("List%v", l.IDs())
}
