package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/render"
)

type formSummary struct {
	SchemaID  string         `json:"schemaId"`
	SchemaURL string         `json:"schemaUrl"`
	Version   int            `json:"version,omitempty"`
	Kind      mixins.RefKind `json:"kind,omitempty"`
	Title     string         `json:"title,omitempty"`
	Dirty     bool           `json:"dirty"`
}

type inputRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
	Blur  bool   `json:"blur,omitempty"`
}

type listRequest struct {
	Path  string `json:"path"`
	Index int    `json:"index"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "forms": len(s.formIDs())})
}

func (s *Server) handleRenderers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"renderers": s.registry.List()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Load(r.Context()); err != nil {
		s.logger.Error("server: reload failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "RELOAD_FAILED", err.Error())
		return
	}
	s.handleListForms(w, r)
}

func (s *Server) handleListForms(w http.ResponseWriter, _ *http.Request) {
	ids := s.formIDs()
	forms := make([]formSummary, 0, len(ids))
	for _, id := range ids {
		state, err := s.form(id)
		if err != nil {
			continue
		}
		form := state.session.Form()
		forms = append(forms, formSummary{
			SchemaID:  form.SchemaID,
			SchemaURL: form.SchemaURL,
			Version:   form.Version,
			Kind:      form.Kind,
			Title:     form.Title,
			Dirty:     state.session.Dirty(),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"forms":    forms,
		"failures": s.failureList(),
	})
}

func (s *Server) handleRenderForm(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()

	var (
		renderer render.Renderer
		err      error
	)
	if format := strings.TrimSpace(query.Get("format")); format != "" {
		renderer, err = s.registry.Get(format)
	} else {
		renderer, err = s.registry.Negotiate(r.Header.Get("Accept"), s.fallback)
	}
	if err != nil {
		s.writeError(w, http.StatusNotAcceptable, "NOT_ACCEPTABLE", err.Error())
		return
	}

	lang := s.requestLanguage(r)
	state.mu.Lock()
	mapping := state.errors
	state.mu.Unlock()

	opts := render.Options{Language: lang, Errors: mapping.Fields}
	view := state.session.View(opts)
	if subset := render.ParseSubset(query.Get("fields")); !subset.Empty() {
		view.Nodes = render.Build(render.ApplySubset(state.session.Form().Items, subset), state.session.Tree(), opts)
	}

	out, err := renderer.Render(r.Context(), view, render.RenderOptions{
		Locale:     lang,
		Action:     r.URL.Path,
		Hidden:     []render.HiddenField{render.Hidden("_lang", lang)},
		FormErrors: mapping.Form,
	})
	if err != nil {
		s.logger.Error("server: render failed", "schema", view.SchemaID, "renderer", renderer.Name(), "error", err)
		s.writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "render failed")
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleFormItems(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, state.session.Form())
}

func (s *Server) handleFormValue(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	s.writeValue(w, http.StatusOK, state)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	value, err := s.apply(state, req.Path, normalizeJSONValue(req.Value), req.Blur, s.requestLanguage(r))
	if err != nil {
		s.sessionErrorToHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"path":  req.Path,
		"value": value,
		"dirty": state.session.Dirty(),
	})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	id, err := state.session.Append(req.Path)
	if err != nil {
		s.sessionErrorToHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"path":  editable.JoinPath(req.Path, id),
		"id":    id,
		"dirty": state.session.Dirty(),
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := state.session.Remove(req.Path, req.Index); err != nil {
		if errors.Is(err, editable.ErrIndexOutOfRange) {
			s.writeError(w, http.StatusBadRequest, "INDEX_OUT_OF_RANGE", err.Error())
			return
		}
		s.sessionErrorToHTTP(w, err)
		return
	}
	s.writeValue(w, http.StatusOK, state)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	if s.persister == nil {
		s.writeError(w, http.StatusNotImplemented, "NO_PERSISTER", "saving is not configured")
		return
	}
	if err := s.save(r.Context(), state); err != nil {
		s.writeSaveError(w, state, err)
		return
	}
	s.writeValue(w, http.StatusOK, state)
}

// handleSubmitForm accepts the HTML renderer's form post: field values by
// node path (localized fields as path[lang]), plus one of the _append,
// _remove or _save actions. It answers with a redirect to the form so a
// reload does not repeat the post.
func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	state, ok := s.formParam(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	lang := strings.TrimSpace(r.PostForm.Get("_lang"))
	if lang == "" {
		lang = s.requestLanguage(r)
	}
	fields := make(map[string][]string)
	var formErrors []string

	scalars, localized := splitPostedFields(r.PostForm)
	for _, path := range sortedKeys(scalars) {
		s.applyPosted(state, path, scalars[path], lang, fields)
	}
	for _, path := range sortedKeys(localized) {
		s.applyPosted(state, path, localized[path], lang, fields)
	}

	switch {
	case r.PostForm.Has("_append"):
		if _, err := state.session.Append(r.PostForm.Get("_append")); err != nil {
			formErrors = append(formErrors, err.Error())
		}
	case r.PostForm.Has("_remove"):
		if err := s.removePosted(state, r.PostForm.Get("_remove")); err != nil {
			formErrors = append(formErrors, err.Error())
		}
	case r.PostForm.Has("_save") && len(fields) == 0:
		if s.persister == nil {
			formErrors = append(formErrors, "saving is not configured")
			break
		}
		if err := s.save(r.Context(), state); err != nil {
			mapping := saveErrorMapping(state, err)
			for path, messages := range mapping.Fields {
				fields[path] = append(fields[path], messages...)
			}
			formErrors = append(formErrors, mapping.Form...)
		}
	}

	state.mu.Lock()
	state.errors = render.ErrorMapping{Fields: fields, Form: render.MergeFormErrors(nil, formErrors...)}
	if len(fields) == 0 {
		state.errors.Fields = nil
	}
	state.mu.Unlock()

	target := r.URL.Path
	if lang != "" {
		target += "?lang=" + lang
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) applyPosted(state *formState, path string, raw any, lang string, fields map[string][]string) {
	if _, err := s.apply(state, path, raw, true, lang); err != nil {
		switch {
		case errors.Is(err, controls.ErrInvalidInput):
			fields[path] = append(fields[path], err.Error())
		default:
			s.logger.Debug("server: posted field ignored", "path", path, "error", err)
		}
	}
}

func (s *Server) removePosted(state *formState, raw string) error {
	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return errors.New("server: remove expects path:index")
	}
	index, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		return errors.New("server: remove expects path:index")
	}
	return state.session.Remove(raw[:idx], index)
}

// apply routes input through Session.Blur or Session.Input with the request
// locale and clears stale errors of path on success.
func (s *Server) apply(state *formState, path string, raw any, blur bool, lang string) (any, error) {
	opts := []controls.ResolveOption{controls.WithLocale(parseLanguage(lang))}
	var (
		value any
		err   error
	)
	if blur {
		value, err = state.session.Blur(path, raw, opts...)
	} else {
		value, err = state.session.Input(path, raw, opts...)
	}
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	delete(state.errors.Fields, path)
	state.mu.Unlock()
	return value, nil
}

func (s *Server) save(ctx context.Context, state *formState) error {
	if err := state.session.Save(ctx, s.persister); err != nil {
		return err
	}
	state.mu.Lock()
	state.errors = render.ErrorMapping{}
	state.mu.Unlock()
	return nil
}

func (s *Server) writeSaveError(w http.ResponseWriter, state *formState, err error) {
	mapping := saveErrorMapping(state, err)
	state.mu.Lock()
	state.errors = mapping
	state.mu.Unlock()

	status, code := http.StatusBadGateway, "SAVE_FAILED"
	var saveErr *mixins.SaveError
	if errors.As(err, &saveErr) && saveErr.StatusCode >= 400 && saveErr.StatusCode < 500 {
		status, code = http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	}
	s.writeJSON(w, status, errorJSON{
		Error:      err.Error(),
		Code:       code,
		Fields:     mapping.Fields,
		FormErrors: mapping.Form,
	})
}

// saveErrorMapping maps a persistence validation payload onto node paths.
// Payloads that are not a JSON object of message lists become one form-level
// message.
func saveErrorMapping(state *formState, err error) render.ErrorMapping {
	var saveErr *mixins.SaveError
	if errors.As(err, &saveErr) && saveErr.Body != "" {
		var payload map[string][]string
		if json.Unmarshal([]byte(saveErr.Body), &payload) == nil && len(payload) > 0 {
			return render.MapErrorPayload(state.session.Form().Items, state.session.Tree(), payload)
		}
	}
	return render.ErrorMapping{Form: []string{err.Error()}}
}

func (s *Server) writeValue(w http.ResponseWriter, status int, state *formState) {
	form := state.session.Form()
	s.writeJSON(w, status, map[string]any{
		"schemaId":  form.SchemaID,
		"schemaUrl": form.SchemaURL,
		"value":     state.session.Value(),
		"dirty":     state.session.Dirty(),
	})
}

func (s *Server) requestLanguage(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return lang
	}
	return s.language
}

func parseLanguage(raw string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return language.English
	}
	return tag
}

// splitPostedFields separates plain field values from localized path[lang]
// inputs. Names starting with "_" and the schema hidden fields are control
// fields, not values. The last value of a repeated name wins, which turns
// the hidden "false" plus checked "true" pair of a toggle into true.
func splitPostedFields(form map[string][]string) (map[string]any, map[string]any) {
	scalars := make(map[string]any)
	localized := make(map[string]map[string]string)
	for name, values := range form {
		if len(values) == 0 || strings.HasPrefix(name, "_") || name == "schemaKey" || name == "schemaUrl" {
			continue
		}
		last := values[len(values)-1]
		if open := strings.Index(name, "["); open > 0 && strings.HasSuffix(name, "]") {
			path, lang := name[:open], name[open+1:len(name)-1]
			if localized[path] == nil {
				localized[path] = make(map[string]string)
			}
			localized[path][lang] = last
			continue
		}
		scalars[name] = last
	}
	out := make(map[string]any, len(localized))
	for path, translations := range localized {
		out[path] = translations
	}
	return scalars, out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
