package model

import (
	"math"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/schema"
)

// LocalizedRefSuffixes are the reference URL endings that mark an array of
// {language, value} records.
var LocalizedRefSuffixes = []string{
	"/schemata2/languageValue_v1.json",
	"/schemata/languageValue_v1.json",
}

const decimalStep = 0.01

// Classify maps a schema property onto exactly one FieldKind. The checks run
// from most to least specific and their order is part of the contract:
// pattern-bearing nodes are unknown before enum is considered, enum wins over
// every primitive type, and numbers are decimal only with multipleOf 0.01.
func Classify(p *schema.Property) FieldKind {
	if p == nil {
		return KindUnknown
	}
	if p.Pattern != "" || len(p.PatternProperties) > 0 {
		return KindUnknown
	}
	if len(p.Enum) > 0 {
		return KindEnum
	}

	switch p.Type {
	case "boolean":
		return KindBoolean
	case "integer":
		return KindInteger
	case "number":
		if isDecimalStep(p.MultipleOf) {
			return KindDecimal
		}
		return KindInteger
	case "string":
		switch strings.ToLower(p.Format) {
		case "date":
			return KindDate
		case "date-time":
			return KindDateTime
		case "time":
			return KindTime
		}
		return KindText
	case "array":
		if isLocalizedItems(p.Items) {
			return KindLocalized
		}
		return KindArray
	case "object":
		return KindObject
	}

	if p.Ref != "" || len(p.Properties) > 0 {
		return KindObject
	}
	return KindUnknown
}

// ClassifyElement resolves the element kind of an array property by
// classifying its items descriptor with the same precedence as Classify.
func ClassifyElement(p *schema.Property) FieldKind {
	if p == nil || p.Items == nil {
		return KindUnknown
	}
	return Classify(p.Items)
}

// IsLocalizedRef reports whether ref points at the language/value schema.
func IsLocalizedRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	for _, suffix := range LocalizedRefSuffixes {
		if strings.HasSuffix(ref, suffix) {
			return true
		}
	}
	return false
}

func isLocalizedItems(items *schema.Property) bool {
	return items != nil && IsLocalizedRef(items.Ref)
}

func isDecimalStep(step *float64) bool {
	return step != nil && math.Abs(*step-decimalStep) < 1e-9
}
