package render

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Default Context
// =============================================================================

// Documented placeholder values merged under every caller-supplied context.
const (
	DefaultUser      = "anonymous"
	DefaultEnv       = "development"
	DefaultTimestamp = ""
)

// BuildContext merges the default variable set with caller-supplied
// parameters. Caller values take precedence key-by-key.
func BuildContext(params map[string]any) map[string]any {
	ctx := map[string]any{
		"user":      DefaultUser,
		"env":       DefaultEnv,
		"timestamp": DefaultTimestamp,
	}
	for key, value := range params {
		ctx[key] = value
	}
	return ctx
}

// =============================================================================
// Filters
// =============================================================================

func init() {
	// Rendered output is configuration text, not HTML.
	pongo2.SetAutoescape(false)

	// Filter registration is process-wide in pongo2; this package is
	// initialized exactly once, so duplicates cannot occur.
	_ = pongo2.RegisterFilter("toyaml", filterToYAML)
	_ = pongo2.RegisterFilter("fromyaml", filterFromYAML)
	_ = pongo2.RegisterFilter("tojson", filterToJSON)
	_ = pongo2.RegisterFilter("fromjson", filterFromJSON)
}

// filterToYAML serializes any value to its canonical YAML text.
func filterToYAML(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	b, err := yaml.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:toyaml", OrigError: err}
	}
	return pongo2.AsValue(strings.TrimRight(string(b), "\n")), nil
}

// filterFromYAML parses YAML text back into a value. Failures are tolerated
// by handing back the original string unchanged.
func filterFromYAML(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var v any
	if err := yaml.Unmarshal([]byte(in.String()), &v); err != nil {
		return in, nil
	}
	return pongo2.AsValue(v), nil
}

// filterToJSON serializes any value to JSON text.
func filterToJSON(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	b, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsValue(string(b)), nil
}

// filterFromJSON parses JSON text back into a value, tolerating failure the
// same way fromyaml does.
func filterFromJSON(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var v any
	if err := json.Unmarshal([]byte(in.String()), &v); err != nil {
		return in, nil
	}
	return pongo2.AsValue(v), nil
}

// =============================================================================
// Renderer
// =============================================================================

// Renderer evaluates stored documents as templates. Construct once with
// NewRenderer and inject where rendering is needed.
type Renderer struct{}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render treats doc as a template: the document is serialized to its
// canonical YAML text, evaluated against ctx, and the rendered text is
// parsed back into a document.
//
// Failure modes:
//   - ErrTemplateSyntax (wrapped) when the template cannot be parsed
//   - ErrTemplateExecute (wrapped) when evaluation fails
//   - ErrRenderedInvalid (wrapped) when the rendered text is no longer a
//     valid document (a substituted value broke quoting or structure)
func (r *Renderer) Render(doc map[string]any, ctx map[string]any) (map[string]any, error) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, NewTemplateError(err.Error(), ErrRenderedInvalid)
	}

	tpl, err := pongo2.FromString(string(raw))
	if err != nil {
		return nil, NewTemplateError(err.Error(), ErrTemplateSyntax)
	}

	out, err := tpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return nil, NewTemplateError(err.Error(), ErrTemplateExecute)
	}

	var rendered map[string]any
	if err := yaml.Unmarshal([]byte(out), &rendered); err != nil {
		return nil, NewTemplateError(err.Error(), ErrRenderedInvalid)
	}
	if rendered == nil {
		return nil, NewTemplateError("rendered text is empty", ErrRenderedInvalid)
	}

	return rendered, nil
}

// HasTemplateSyntax reports whether the document's canonical text contains
// template markers. This is a cheap textual probe, not a parser-level
// guarantee; it degrades to false on serialization failure.
func (r *Renderer) HasTemplateSyntax(doc map[string]any) bool {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return false
	}
	text := string(raw)
	return strings.Contains(text, "{{") || strings.Contains(text, "{%")
}

// Variable reference patterns. pongo2 exposes no undeclared-variable
// introspection, so referenced names are scanned out of the template text:
// expression heads, condition operands, and for-loop sources count as
// references; for-loop targets and set assignments are template-local.
var (
	exprVarRegex = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_]*)`)
	condVarRegex = regexp.MustCompile(`\{%-?\s*(?:if|elif)\s+(?:not\s+)?([A-Za-z_][A-Za-z0-9_]*)`)
	forVarRegex  = regexp.MustCompile(`\{%-?\s*for\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s*,\s*([A-Za-z_][A-Za-z0-9_]*))?\s+in\s+([A-Za-z_][A-Za-z0-9_]*)`)
	setVarRegex  = regexp.MustCompile(`\{%-?\s*set\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// ExtractVariables returns the sorted set of variable names the document's
// template references but does not bind itself. Best-effort and
// non-authoritative: any failure yields an empty set rather than an error.
func (r *Renderer) ExtractVariables(doc map[string]any) []string {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil
	}
	text := string(raw)

	// Confirm the text is a parseable template before scanning it.
	if _, err := pongo2.FromString(text); err != nil {
		return nil
	}

	bound := make(map[string]bool)
	for _, m := range forVarRegex.FindAllStringSubmatch(text, -1) {
		bound[m[1]] = true
		if m[2] != "" {
			bound[m[2]] = true
		}
	}
	for _, m := range setVarRegex.FindAllStringSubmatch(text, -1) {
		bound[m[1]] = true
	}

	seen := make(map[string]bool)
	collect := func(matches [][]string, group int) {
		for _, m := range matches {
			if name := m[group]; name != "" && !bound[name] {
				seen[name] = true
			}
		}
	}
	collect(exprVarRegex.FindAllStringSubmatch(text, -1), 1)
	collect(condVarRegex.FindAllStringSubmatch(text, -1), 1)
	collect(forVarRegex.FindAllStringSubmatch(text, -1), 3)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
