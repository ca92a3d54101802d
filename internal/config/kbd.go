package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"layerd/internal/input/action"
	"layerd/internal/input/key"
	"layerd/internal/input/layout"
)

// Comment syntax: ";;" to end of line, "#| ... |#" blocks.
var (
	blockCommentRe = regexp.MustCompile(`(?s)#\|.*?\|#`)
	lineCommentRe  = regexp.MustCompile(`(?m);;.*$`)
)

// ParseLayoutFile reads and compiles a layout file into a validated
// layer table. Any failure is a ConfigError naming the file.
func ParseLayoutFile(path string) (*layout.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	t, err := ParseLayout(string(data))
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return t, nil
}

// ParseLayout compiles layout source text. The file consists of
// top-level s-expressions:
//
//	(defsrc esc 1 2 ...)          physical key positions, in order
//	(defalias nav (layer-toggle U_NAV) ...)
//	(deflayer U_BASE a s d ...)   first deflayer is the base layer
//
// Layer forms are "_" (transparent), "XX" (blocked), key or chord names,
// "@alias" references, and the compound forms (tap-hold ms tap hold),
// (layer-toggle n), (layer-switch n), (around mod inner), (macro k ...),
// and (script name).
func ParseLayout(content string) (*layout.Table, error) {
	content = blockCommentRe.ReplaceAllString(content, "")
	content = lineCommentRe.ReplaceAllString(content, "")

	var (
		defsrc  []string
		raws    []rawLayer
		aliases = map[string]string{}
	)

	i := 0
	for {
		for i < len(content) && isSpace(content[i]) {
			i++
		}
		if i >= len(content) {
			break
		}
		if content[i] != '(' {
			return nil, fmt.Errorf("unexpected %q at top level", content[i])
		}
		form, next, err := scanForm(content, i)
		if err != nil {
			return nil, err
		}
		i = next

		inner := strings.TrimSpace(form[1 : len(form)-1])
		head, rest := cutToken(inner)

		switch head {
		case "defsrc":
			if defsrc != nil {
				return nil, fmt.Errorf("duplicate defsrc block")
			}
			defsrc, err = splitForms(rest)
			if err != nil {
				return nil, err
			}
		case "deflayer":
			name, body := cutToken(rest)
			if name == "" {
				return nil, fmt.Errorf("deflayer needs a name")
			}
			forms, err := splitForms(body)
			if err != nil {
				return nil, fmt.Errorf("layer %s: %w", name, err)
			}
			raws = append(raws, rawLayer{name: name, forms: forms})
		case "defalias":
			if err := parseAliases(rest, aliases); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown block %q", head)
		}
	}

	if defsrc == nil {
		return nil, fmt.Errorf("layout has no defsrc block")
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("layout has no deflayer blocks")
	}

	catalog, err := key.NewCatalogFromNames(defsrc)
	if err != nil {
		return nil, err
	}

	layers := make([]*layout.Layer, 0, len(raws))
	for _, raw := range raws {
		if len(raw.forms) != len(defsrc) {
			return nil, fmt.Errorf("layer %s has %d forms, defsrc has %d keys",
				raw.name, len(raw.forms), len(defsrc))
		}
		bindings := make([]action.Action, len(raw.forms))
		for pos, form := range raw.forms {
			a, err := parseForm(form, aliases, 0)
			if err != nil {
				return nil, fmt.Errorf("layer %s position %d (%s): %w",
					raw.name, pos, defsrc[pos], err)
			}
			bindings[pos] = a
		}
		l, err := layout.NewLayer(raw.name, bindings)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}

	return layout.NewTable(catalog, layers)
}

type rawLayer struct {
	name  string
	forms []string
}

// maxAliasDepth bounds @alias chains so reference cycles fail instead
// of recursing forever.
const maxAliasDepth = 16

func parseAliases(body string, aliases map[string]string) error {
	forms, err := splitForms(body)
	if err != nil {
		return err
	}
	if len(forms)%2 != 0 {
		return fmt.Errorf("defalias needs name/expression pairs")
	}
	for i := 0; i < len(forms); i += 2 {
		name := forms[i]
		if strings.HasPrefix(name, "(") {
			return fmt.Errorf("alias name may not be an expression: %s", name)
		}
		if _, dup := aliases[name]; dup {
			return fmt.Errorf("duplicate alias %q", name)
		}
		aliases[name] = forms[i+1]
	}
	return nil
}

// parseForm compiles one layer form into an action.
func parseForm(form string, aliases map[string]string, depth int) (action.Action, error) {
	if depth > maxAliasDepth {
		return action.Action{}, fmt.Errorf("alias expansion too deep (cycle?)")
	}

	switch {
	case form == "_":
		return action.Pass(), nil
	case form == "XX":
		return action.Block(), nil
	case strings.HasPrefix(form, "@"):
		expansion, ok := aliases[form[1:]]
		if !ok {
			return action.Action{}, fmt.Errorf("unknown alias %s", form)
		}
		return parseForm(expansion, aliases, depth+1)
	case strings.HasPrefix(form, "("):
		return parseCompound(form, aliases, depth)
	default:
		chord, err := key.ParseChord(form)
		if err != nil {
			return action.Action{}, err
		}
		return action.Emit(chord), nil
	}
}

func parseCompound(form string, aliases map[string]string, depth int) (action.Action, error) {
	inner := strings.TrimSpace(form[1 : len(form)-1])
	parts, err := splitForms(inner)
	if err != nil {
		return action.Action{}, err
	}
	if len(parts) == 0 {
		return action.Action{}, fmt.Errorf("empty expression")
	}

	head, args := parts[0], parts[1:]
	switch head {
	case "tap-hold":
		if len(args) != 3 {
			return action.Action{}, fmt.Errorf("tap-hold needs (tap-hold ms tap hold)")
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil || ms <= 0 {
			return action.Action{}, fmt.Errorf("tap-hold timeout %q is not a positive integer", args[0])
		}
		tap, err := parseForm(args[1], aliases, depth+1)
		if err != nil {
			return action.Action{}, err
		}
		hold, err := parseForm(args[2], aliases, depth+1)
		if err != nil {
			return action.Action{}, err
		}
		a := action.TapHold(tap, hold, time.Duration(ms)*time.Millisecond)
		return a, a.Validate()

	case "layer-toggle":
		if len(args) != 1 {
			return action.Action{}, fmt.Errorf("layer-toggle needs a layer name")
		}
		return action.LayerToggle(args[0]), nil

	case "layer-switch":
		if len(args) != 1 {
			return action.Action{}, fmt.Errorf("layer-switch needs a layer name")
		}
		return action.LayerSwitch(args[0]), nil

	case "around":
		if len(args) != 2 {
			return action.Action{}, fmt.Errorf("around needs (around mod inner)")
		}
		mod := key.ModifierFromName(args[0])
		if mod == key.ModNone {
			return action.Action{}, fmt.Errorf("around: %q is not a modifier", args[0])
		}
		innerAct, err := parseForm(args[1], aliases, depth+1)
		if err != nil {
			return action.Action{}, err
		}
		if innerAct.Kind != action.KindEmit {
			return action.Action{}, fmt.Errorf("around wraps key output, got %s", innerAct.Kind)
		}
		return action.Emit(innerAct.Chord.WithMods(mod)), nil

	case "macro":
		if len(args) == 0 {
			return action.Action{}, fmt.Errorf("macro needs at least one chord")
		}
		seq := make([]key.Chord, len(args))
		for i, a := range args {
			c, err := key.ParseChord(a)
			if err != nil {
				return action.Action{}, fmt.Errorf("macro element %d: %w", i, err)
			}
			seq[i] = c
		}
		return action.Macro(seq), nil

	case "script":
		if len(args) != 1 {
			return action.Action{}, fmt.Errorf("script needs a function name")
		}
		return action.Script(args[0]), nil

	default:
		return action.Action{}, fmt.Errorf("unknown form %q", head)
	}
}

// scanForm returns the balanced s-expression starting at content[start],
// which must be '(', and the index just past it.
func scanForm(content string, start int) (string, int, error) {
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return content[start : i+1], i + 1, nil
			}
			if depth < 0 {
				return "", 0, fmt.Errorf("unmatched ')' at offset %d", i)
			}
		}
	}
	return "", 0, fmt.Errorf("unmatched '(' at offset %d", start)
}

// splitForms splits a block body into top-level forms: bare tokens and
// balanced s-expressions.
func splitForms(body string) ([]string, error) {
	var forms []string
	i := 0
	for i < len(body) {
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) {
			break
		}
		if body[i] == '(' {
			form, next, err := scanForm(body, i)
			if err != nil {
				return nil, err
			}
			forms = append(forms, form)
			i = next
			continue
		}
		start := i
		for i < len(body) && !isSpace(body[i]) {
			i++
		}
		forms = append(forms, body[start:i])
	}
	return forms, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// cutToken splits off the first whitespace-delimited token and returns
// it with the trimmed remainder.
func cutToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			return s[:i], strings.TrimSpace(s[i+1:])
		}
	}
	return s, ""
}
