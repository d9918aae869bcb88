// Package prompt renders instruction templates with named placeholder
// substitution. Placeholders use the {{$name}} form; every placeholder in a
// template must be supplied at render time.
package prompt

import (
	"fmt"
	"regexp"
)

// GroundedAnswer is the instruction template for answering a question from a
// single retrieved record. The model must answer strictly from the supplied
// context and admit when the context is insufficient.
const GroundedAnswer = `You are an assistant that answers questions using only the provided context.

Consider only the Context below to answer the Question.
If the Context does not contain the answer, reply exactly: I don't know.

History:
{{$history}}

Context:
{{$db_record}}

Question: {{$query_term}}

Answer: `

// MissingVariableError reports a placeholder that was declared in the
// template but not supplied at render time.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt: missing template variable %q", e.Name)
}

var placeholderRe = regexp.MustCompile(`\{\{\$([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// Render substitutes the named placeholders of template with the supplied
// variables. It fails with a MissingVariableError when the template declares
// a placeholder that variables does not cover; supplied variables without a
// matching placeholder are ignored.
func Render(template string, variables map[string]string) (string, error) {
	var missing *MissingVariableError
	rendered := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := variables[name]
		if !ok {
			if missing == nil {
				missing = &MissingVariableError{Name: name}
			}
			return match
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return rendered, nil
}

// Variables lists the distinct placeholder names declared in a template, in
// order of first appearance.
func Variables(template string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, match := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
