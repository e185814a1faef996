package controls

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/model"
)

// Type names the widget a Control renders as.
type Type string

const (
	TypeText        Type = "text"
	TypeTextArea    Type = "textarea"
	TypeNumber      Type = "number"
	TypeToggle      Type = "toggle"
	TypeSelect      Type = "select"
	TypeDate        Type = "date"
	TypeDateTime    Type = "datetime"
	TypeTime        Type = "time"
	TypeLocalized   Type = "localized"
	TypePlaceholder Type = "placeholder"
)

// TimeMask is the input mask of time controls.
const TimeMask = "HH:MM"

// TimeSentinel is what a time control emits when its input is cleared or
// invalid. It is blank, so it is stripped before persisting.
const TimeSentinel = " "

// ChangeFunc receives the coerced value after every accepted input.
type ChangeFunc func(value any)

// Option is one choice of a select control.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Control is the resolved input for one leaf of the form.
type Control struct {
	Type           Type            `json:"type"`
	Kind           model.FieldKind `json:"kind"`
	Label          string          `json:"label"`
	Description    string          `json:"description,omitempty"`
	Value          any             `json:"value"`
	Display        string          `json:"display"`
	Options        []Option        `json:"options,omitempty"`
	Required       bool            `json:"required,omitempty"`
	Disabled       bool            `json:"disabled,omitempty"`
	FractionDigits int             `json:"fractionDigits,omitempty"`
	Mask           string          `json:"mask,omitempty"`
	// Translations holds the flat language->text view of a localized value.
	Translations map[string]string `json:"translations,omitempty"`

	onChange ChangeFunc
	current  any
	locale   language.Tag
	adapter  *editable.Adapter
}

type config struct {
	locale  language.Tag
	adapter *editable.Adapter
}

// ResolveOption configures Resolve.
type ResolveOption func(*config)

// WithLocale selects the language used for labels and number formatting.
func WithLocale(tag language.Tag) ResolveOption {
	return func(c *config) {
		c.locale = tag
	}
}

// WithAdapter supplies the id generator used when localized input adds a
// language that had no element yet.
func WithAdapter(adapter *editable.Adapter) ResolveOption {
	return func(c *config) {
		if adapter != nil {
			c.adapter = adapter
		}
	}
}

// Resolve builds the control for item bound to value. onChange may be nil.
func Resolve(item model.FormItem, value any, onChange ChangeFunc, options ...ResolveOption) Control {
	cfg := config{locale: language.English}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.adapter == nil {
		cfg.adapter = editable.New()
	}

	lang := strings.ToLower(cfg.locale.String())
	c := Control{
		Kind:        item.Kind,
		Label:       item.DisplayName(lang),
		Description: item.Description,
		Required:    item.Required,
		Disabled:    item.ReadOnly,
		onChange:    onChange,
		current:     value,
		locale:      cfg.locale,
		adapter:     cfg.adapter,
	}

	switch item.Kind {
	case model.KindText:
		c.Type = TypeText
		if item.Editor == "textarea" {
			c.Type = TypeTextArea
		}
		c.Value = stringValue(value)
		c.Display = c.Value.(string)
	case model.KindInteger:
		c.Type = TypeNumber
		if n, err := toInt(value); err == nil {
			c.Value = n
			c.Display = formatInteger(cfg.locale, n)
		}
	case model.KindDecimal:
		c.Type = TypeNumber
		c.FractionDigits = decimalDigits
		if f, err := toDecimal(value); err == nil {
			c.Value = f
			c.Display = formatDecimal(cfg.locale, f)
		}
	case model.KindBoolean:
		c.Type = TypeToggle
		b, _ := value.(bool)
		c.Value = b
		c.Display = fmt.Sprint(b)
	case model.KindEnum:
		c.Type = TypeSelect
		c.Options = enumOptions(item.Options)
		if match, ok := matchOption(item.Options, value); ok {
			c.Value = match
			c.Display = fmt.Sprint(match)
		}
	case model.KindDate, model.KindDateTime:
		c.Type = TypeDate
		if item.Kind == model.KindDateTime {
			c.Type = TypeDateTime
		}
		if ts, err := parseTimestamp(value, item.Kind); err == nil {
			c.Value = formatTimestamp(ts)
			c.Display = displayTimestamp(ts, item.Kind)
		}
	case model.KindTime:
		c.Type = TypeTime
		c.Mask = TimeMask
		s := stringValue(value)
		c.Value = s
		c.Display = strings.TrimSpace(s)
	case model.KindLocalized:
		c.Type = TypeLocalized
		c.Translations = LocalizedMap(value)
		c.Value = value
	default:
		c.Type = TypePlaceholder
		c.Disabled = true
		c.Value = value
		if value != nil {
			c.Display = fmt.Sprint(value)
		}
	}
	return c
}

// Input coerces raw into the stored representation of the control's kind,
// notifies onChange and returns the new value. Blank input clears the value
// (nil) for every kind except time, which keeps the partial text, and
// localized, which drops the affected languages.
func (c Control) Input(raw any) (any, error) {
	if c.Disabled {
		return nil, ErrDisabled
	}
	value, err := c.coerce(raw)
	if err != nil {
		return nil, err
	}
	c.emit(value)
	return value, nil
}

// Blur finishes editing. Time controls revert anything that is not a complete
// HH:MM value to TimeSentinel; other kinds behave like Input.
func (c Control) Blur(raw any) (any, error) {
	if c.Kind != model.KindTime {
		return c.Input(raw)
	}
	if c.Disabled {
		return nil, ErrDisabled
	}
	value := TimeSentinel
	if s, ok := raw.(string); ok && validTime(s) {
		value = s
	}
	c.emit(value)
	return value, nil
}

func (c Control) emit(value any) {
	if c.onChange != nil {
		c.onChange(value)
	}
}

func (c Control) coerce(raw any) (any, error) {
	if isBlank(raw) {
		switch c.Kind {
		case model.KindTime:
			return TimeSentinel, nil
		case model.KindLocalized:
			return LocalizedList(c.adapter, c.current, nil), nil
		case model.KindBoolean:
			return false, nil
		default:
			return nil, nil
		}
	}

	switch c.Kind {
	case model.KindText:
		return stringValue(raw), nil
	case model.KindInteger:
		if s, ok := raw.(string); ok {
			raw = normalizeNumber(c.locale, s)
		}
		n, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return n, nil
	case model.KindDecimal:
		if s, ok := raw.(string); ok {
			raw = normalizeNumber(c.locale, s)
		}
		f, err := toDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return f, nil
	case model.KindBoolean:
		b, err := toBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return b, nil
	case model.KindEnum:
		match, ok := matchOption(optionValues(c.Options), raw)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not an option", ErrInvalidInput, raw)
		}
		return match, nil
	case model.KindDate, model.KindDateTime:
		ts, err := parseTimestamp(raw, c.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return formatTimestamp(ts), nil
	case model.KindTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: time expects text, got %T", ErrInvalidInput, raw)
		}
		return maskTime(s), nil
	case model.KindLocalized:
		translations, err := toTranslations(raw)
		if err != nil {
			return nil, err
		}
		return LocalizedList(c.adapter, c.current, translations), nil
	default:
		return nil, ErrDisabled
	}
}

func enumOptions(values []any) []Option {
	if len(values) == 0 {
		return nil
	}
	out := make([]Option, len(values))
	for i, value := range values {
		out[i] = Option{Value: value, Label: fmt.Sprint(value)}
	}
	return out
}

func optionValues(options []Option) []any {
	out := make([]any, len(options))
	for i, opt := range options {
		out[i] = opt.Value
	}
	return out
}

// matchOption compares by printed form so that a select's string value
// matches numeric enum members.
func matchOption(options []any, value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	want := fmt.Sprint(value)
	for _, opt := range options {
		if fmt.Sprint(opt) == want {
			return opt, true
		}
	}
	return nil, false
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

func isBlank(raw any) bool {
	switch typed := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	default:
		return false
	}
}
