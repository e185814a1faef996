package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/render"
)

const noneOption = "(none)"

// Renderer edits a render.Session through terminal prompts. As a
// render.Renderer it prints a read-only outline of a view.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	persister         mixins.Persister
	translator        render.Translator
	logger            *slog.Logger
	theme             Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the type of the outline produced by Render.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// OutputContentType reports the serialization format used by Edit.
func (r *Renderer) OutputContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prints an indented outline of view.
func (r *Renderer) Render(ctx context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chrome := render.Chrome(opts)

	var b strings.Builder
	title := view.Title
	if title == "" {
		title = view.SchemaID
	}
	b.WriteString(title)
	if view.Dirty {
		fmt.Fprintf(&b, " (%s)", chrome["mixins.unsaved"])
	}
	b.WriteByte('\n')
	writeOutline(&b, view.Nodes, 1, chrome)
	for _, msg := range opts.FormErrors {
		fmt.Fprintf(&b, "%s%s\n", r.theme.ErrorPrefix, msg)
	}
	return []byte(b.String()), nil
}

func writeOutline(b *strings.Builder, nodes []render.Node, depth int, chrome map[string]string) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		label := node.Label
		if node.Required {
			label += "*"
		}
		switch {
		case node.Control != nil:
			prefix := ""
			if node.Kind == render.NodeEntry {
				prefix = "- "
			}
			fmt.Fprintf(b, "%s%s%s: %s\n", indent, prefix, label, controlSummary(node.Control))
		case node.Kind == render.NodeList && len(node.Children) == 0:
			fmt.Fprintf(b, "%s%s: (%s)\n", indent, label, chrome["mixins.empty"])
		default:
			fmt.Fprintf(b, "%s%s\n", indent, label)
			writeOutline(b, node.Children, depth+1, chrome)
		}
		for _, msg := range node.Errors {
			fmt.Fprintf(b, "%s  ! %s\n", indent, msg)
		}
	}
}

func controlSummary(control *controls.Control) string {
	if control.Type != controls.TypeLocalized {
		return control.Display
	}
	langs := sortedKeys(control.Translations)
	parts := make([]string, 0, len(langs))
	for _, lang := range langs {
		parts = append(parts, lang+"="+control.Translations[lang])
	}
	return strings.Join(parts, ", ")
}

// Edit walks the form of session, prompting for every editable control,
// then returns the cleaned value serialized in the configured format. A
// dirty session is offered for saving when a persister is configured.
func (r *Renderer) Edit(ctx context.Context, session *render.Session, opts render.Options) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	lang := strings.ToLower(strings.TrimSpace(opts.Language))
	if lang == "" {
		lang = "en"
	}
	run := &editRun{
		Renderer: r,
		session:  session,
		opts:     opts,
		lang:     lang,
		chrome:   render.Chrome(render.RenderOptions{Locale: lang, Translator: r.translator}),
	}

	form := session.Form()
	if form.Title != "" {
		if err := run.info(ctx, form.Title); err != nil {
			return nil, err
		}
	}
	if err := run.nodes(ctx, session.Nodes(opts)); err != nil {
		return nil, err
	}

	if r.persister != nil && session.Dirty() {
		save, err := run.confirm(ctx, Prompt{Message: run.chrome["mixins.save"] + "?", Yes: true})
		if err != nil {
			return nil, err
		}
		if save {
			if err := session.Save(ctx, r.persister); err != nil {
				return nil, fmt.Errorf("tui: save %s: %w", form.SchemaID, err)
			}
			if err := run.info(ctx, run.chrome["mixins.saved"]); err != nil {
				return nil, err
			}
		}
	}

	values := session.Value()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

type editRun struct {
	*Renderer
	session *render.Session
	opts    render.Options
	lang    string
	chrome  map[string]string
}

func (e *editRun) nodes(ctx context.Context, nodes []render.Node) error {
	for _, node := range nodes {
		var err error
		switch node.Kind {
		case render.NodeSection:
			if err = e.info(ctx, node.Label); err == nil {
				err = e.nodes(ctx, node.Children)
			}
		case render.NodeList:
			err = e.list(ctx, node.Path)
		default:
			err = e.entry(ctx, node)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *editRun) entry(ctx context.Context, node render.Node) error {
	if node.Control != nil {
		return e.control(ctx, node)
	}
	if len(node.Children) > 0 {
		if err := e.info(ctx, node.Label); err != nil {
			return err
		}
	}
	return e.nodes(ctx, node.Children)
}

// list re-reads the node at path so removals and appends always work on the
// current tree.
func (e *editRun) list(ctx context.Context, path string) error {
	node, ok := e.lookup(path)
	if !ok {
		return fmt.Errorf("tui: %s: %w", path, editable.ErrUnknownPath)
	}
	if err := e.info(ctx, node.Label); err != nil {
		return err
	}
	if node.ReadOnly {
		return nil
	}

	if len(node.Children) > 0 {
		options := make([]string, len(node.Children))
		for i, entry := range node.Children {
			options[i] = entry.Label
			if entry.Control != nil {
				options[i] += ": " + controlSummary(entry.Control)
			}
		}
		answer, err := e.driver.Ask(ctx, Prompt{
			Kind:    PromptChoices,
			Message: e.chrome["mixins.remove"] + " " + node.Label,
			Options: options,
		})
		if err != nil {
			return err
		}
		picked := answer.Picked
		sort.Sort(sort.Reverse(sort.IntSlice(picked)))
		for _, idx := range picked {
			if err := e.session.Remove(path, idx); err != nil {
				return err
			}
		}
		if len(picked) > 0 {
			node, _ = e.lookup(path)
		}
	}

	for _, entry := range node.Children {
		if err := e.entry(ctx, entry); err != nil {
			return err
		}
	}

	for {
		more, err := e.confirm(ctx, Prompt{
			Message: fmt.Sprintf("%s %s?", e.chrome["mixins.add"], node.Label),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		id, err := e.session.Append(path)
		if err != nil {
			return err
		}
		entry, ok := e.lookup(editable.JoinPath(path, id))
		if !ok {
			return fmt.Errorf("tui: appended entry %s not found", id)
		}
		if err := e.entry(ctx, entry); err != nil {
			return err
		}
	}
}

func (e *editRun) control(ctx context.Context, node render.Node) error {
	control := node.Control
	if control.Disabled || node.ReadOnly {
		return e.info(ctx, fmt.Sprintf("%s: %s", node.Label, controlSummary(control)))
	}
	for _, msg := range node.Errors {
		if err := e.errorf(ctx, "%s: %s", node.Label, msg); err != nil {
			return err
		}
	}

	for {
		raw, err := e.ask(ctx, node)
		if errors.Is(err, errNoSelection) {
			if err := e.errorf(ctx, "Invalid %s selection", node.Label); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if control.Required && blank(raw) {
			if err := e.errorf(ctx, "%s: %s", node.Label, e.chrome["mixins.required"]); err != nil {
				return err
			}
			continue
		}

		var value any
		if control.Type == controls.TypeTime {
			value, err = e.session.Blur(node.Path, raw)
		} else {
			value, err = e.session.Input(node.Path, raw)
		}
		if errors.Is(err, controls.ErrInvalidInput) {
			e.logger.Debug("tui: input rejected", "path", node.Path, "error", err)
			if err := e.errorf(ctx, "Invalid %s: %v", node.Label, err); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if control.Type == controls.TypeTime && value == controls.TimeSentinel && !blank(raw) {
			if err := e.errorf(ctx, "Invalid %s: expected %s", node.Label, controls.TimeMask); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

func (e *editRun) ask(ctx context.Context, node render.Node) (any, error) {
	control := node.Control
	switch control.Type {
	case controls.TypeToggle:
		current, _ := control.Value.(bool)
		return e.confirm(ctx, Prompt{Message: node.Label, Help: node.Description, Yes: current})
	case controls.TypeSelect:
		return e.selectOption(ctx, node)
	case controls.TypeTextArea:
		return e.text(ctx, Prompt{Kind: PromptMultiline, Message: node.Label, Help: node.Description, Default: control.Display})
	case controls.TypeLocalized:
		return e.translations(ctx, node)
	}

	help := node.Description
	if hint := inputHint(control); hint != "" {
		help = strings.TrimSpace(help + " (" + hint + ")")
	}
	return e.text(ctx, Prompt{Message: node.Label, Help: help, Default: control.Display})
}

func (e *editRun) selectOption(ctx context.Context, node render.Node) (any, error) {
	control := node.Control
	offset := 0
	var options []string
	if !control.Required {
		options = append(options, noneOption)
		offset = 1
	}
	defaultIdx := 0
	for i, opt := range control.Options {
		options = append(options, opt.Label)
		if control.Value != nil && fmt.Sprint(opt.Value) == control.Display {
			defaultIdx = i + offset
		}
	}

	answer, err := e.driver.Ask(ctx, Prompt{
		Kind:    PromptChoice,
		Message: node.Label,
		Help:    node.Description,
		Options: options,
		Picked:  []int{defaultIdx},
	})
	if err != nil {
		return nil, err
	}
	idx := -1
	if len(answer.Picked) == 1 {
		idx = answer.Picked[0]
	}
	switch {
	case idx < 0 || idx >= len(options):
		return nil, errNoSelection
	case idx < offset:
		return nil, nil
	default:
		return control.Options[idx-offset].Value, nil
	}
}

// translations asks once per known language plus the edit language.
func (e *editRun) translations(ctx context.Context, node render.Node) (any, error) {
	current := node.Control.Translations
	langs := sortedKeys(current)
	if _, ok := current[e.lang]; !ok {
		langs = append(langs, e.lang)
		sort.Strings(langs)
	}
	out := make(map[string]string, len(langs))
	for _, lang := range langs {
		text, err := e.text(ctx, Prompt{
			Message: fmt.Sprintf("%s (%s)", node.Label, lang),
			Help:    node.Description,
			Default: current[lang],
		})
		if err != nil {
			return nil, err
		}
		out[lang] = text
	}
	return out, nil
}

func (e *editRun) lookup(path string) (render.Node, bool) {
	return findNode(e.session.Nodes(e.opts), path)
}

func (e *editRun) text(ctx context.Context, p Prompt) (string, error) {
	if p.Kind == "" {
		p.Kind = PromptText
	}
	answer, err := e.driver.Ask(ctx, p)
	return answer.Text, err
}

func (e *editRun) confirm(ctx context.Context, p Prompt) (bool, error) {
	p.Kind = PromptConfirm
	answer, err := e.driver.Ask(ctx, p)
	return answer.Yes, err
}

func (e *editRun) info(ctx context.Context, msg string) error {
	return e.driver.Info(ctx, e.theme.InfoPrefix+msg)
}

func (e *editRun) errorf(ctx context.Context, format string, args ...any) error {
	return e.driver.Info(ctx, e.theme.ErrorPrefix+fmt.Sprintf(format, args...))
}

func findNode(nodes []render.Node, path string) (render.Node, bool) {
	for _, node := range nodes {
		if node.Path == path {
			return node, true
		}
		if strings.HasPrefix(path, node.Path+".") {
			if found, ok := findNode(node.Children, path); ok {
				return found, true
			}
		}
	}
	return render.Node{}, false
}

func inputHint(control *controls.Control) string {
	switch control.Type {
	case controls.TypeDate:
		return "YYYY-MM-DD"
	case controls.TypeDateTime:
		return "YYYY-MM-DDTHH:MM"
	case controls.TypeTime:
		return control.Mask
	default:
		return ""
	}
}

func blank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]string:
		for _, text := range v {
			if strings.TrimSpace(text) != "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(editable.JoinPath(prefix, key), val, out)
		}
	case []any:
		for idx, val := range v {
			flatten(fmt.Sprintf("%s[%d]", prefix, idx), val, out)
		}
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			writePretty(b, editable.JoinPath(prefix, key), v[key])
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}
