package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the session.
type RenderOptions struct {
	// Locale selects chrome translations (buttons, headings). Node labels are
	// already localized by Build.
	Locale string
	// Action is the URL the rendered form submits to.
	Action string
	// Method overrides the submit method. Defaults to POST.
	Method string
	// Hidden adds hidden inputs to the rendered form.
	Hidden []HiddenField
	// FormErrors are messages that do not belong to a single node.
	FormErrors []string
	// Translator resolves chrome strings. Optional.
	Translator Translator
	// OnMissing customises missing translation fallbacks.
	OnMissing MissingTranslationHandler
}
