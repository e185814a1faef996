package controls

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func formatInteger(tag language.Tag, n int64) string {
	return message.NewPrinter(tag).Sprint(number.Decimal(n))
}

func formatDecimal(tag language.Tag, f float64) string {
	return message.NewPrinter(tag).Sprint(number.Decimal(f, number.Scale(decimalDigits)))
}

// separators reports the grouping and decimal separators tag prints numbers
// with.
func separators(tag language.Tag) (group, decimal string) {
	sample := []rune(message.NewPrinter(tag).Sprint(number.Decimal(1234.5, number.Scale(1))))
	group, decimal = ",", "."
	var marks []rune
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			marks = append(marks, r)
		}
	}
	switch len(marks) {
	case 1:
		decimal = string(marks[0])
	case 2:
		group, decimal = string(marks[0]), string(marks[1])
	}
	return group, decimal
}

// normalizeNumber turns locale formatted input such as "1.234,5" into a form
// strconv can parse. Plain "1234.5" is accepted in every locale.
func normalizeNumber(tag language.Tag, s string) string {
	s = strings.TrimSpace(s)
	// Input that already parses is taken literally, so "1.234" in de is
	// 1.234 and not 1234. Only grouped forms like "1.234,5" are rewritten.
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s
	}
	group, decimal := separators(tag)
	s = strings.ReplaceAll(s, group, "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u202f", "")
	if decimal != "." {
		s = strings.ReplaceAll(s, decimal, ".")
	}
	return s
}
