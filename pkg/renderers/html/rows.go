package html

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/render"
)

const (
	eventOpen    = "open"
	eventClose   = "close"
	eventControl = "control"
)

// row is one step of the flattened node tree. Sections, lists and entries
// produce an open and a close row around their children so templates can
// iterate without recursion.
type row struct {
	Event     string        `json:"event"`
	Node      render.Node   `json:"node"`
	ListPath  string        `json:"listPath,omitempty"`
	Empty     bool          `json:"empty,omitempty"`
	Languages []translation `json:"languages,omitempty"`
	Choices   []choice      `json:"choices,omitempty"`
}

type translation struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
}

type choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

func flatten(nodes []render.Node, listPath, locale string) []row {
	var rows []row
	for _, node := range nodes {
		children := node.Children
		node.Children = nil

		if node.Control != nil {
			wrapped := node.Kind == render.NodeEntry
			if wrapped {
				shell := node
				shell.Errors = nil
				rows = append(rows, row{Event: eventOpen, Node: shell, ListPath: listPath})
			}
			rows = append(rows, row{
				Event:     eventControl,
				Node:      node,
				ListPath:  listPath,
				Languages: languages(node.Control, locale),
				Choices:   choices(node.Control),
			})
			if wrapped {
				rows = append(rows, row{Event: eventClose, Node: node, ListPath: listPath})
			}
			continue
		}

		rows = append(rows, row{
			Event:    eventOpen,
			Node:     node,
			ListPath: listPath,
			Empty:    len(children) == 0,
		})
		childList := listPath
		if node.Kind == render.NodeList {
			childList = node.Path
		}
		rows = append(rows, flatten(children, childList, locale)...)
		rows = append(rows, row{Event: eventClose, Node: node, ListPath: listPath})
	}
	return rows
}

// languages lists the inputs of a localized control: every language with a
// translation plus the render locale.
func languages(control *controls.Control, locale string) []translation {
	if control.Type != controls.TypeLocalized {
		return nil
	}
	langs := make([]string, 0, len(control.Translations)+1)
	for lang := range control.Translations {
		langs = append(langs, lang)
	}
	if _, ok := control.Translations[locale]; !ok && locale != "" {
		langs = append(langs, locale)
	}
	sort.Strings(langs)

	out := make([]translation, 0, len(langs))
	for _, lang := range langs {
		out = append(out, translation{Lang: lang, Text: control.Translations[lang]})
	}
	return out
}

func choices(control *controls.Control) []choice {
	if control.Type != controls.TypeSelect {
		return nil
	}
	out := make([]choice, 0, len(control.Options))
	for _, opt := range control.Options {
		value := fmt.Sprint(opt.Value)
		out = append(out, choice{
			Value:    value,
			Label:    opt.Label,
			Selected: control.Value != nil && value == control.Display,
		})
	}
	return out
}

// chromeLabels strips the message key namespace so templates can use
// labels.add instead of indexing dotted keys.
func chromeLabels(opts render.RenderOptions) map[string]string {
	chrome := render.Chrome(opts)
	out := make(map[string]string, len(chrome))
	for key, label := range chrome {
		out[strings.TrimPrefix(key, "mixins.")] = label
	}
	return out
}
