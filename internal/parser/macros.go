package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/markup"
)

// MacroClassifier decides which elements are macros and which of their
// descendants carry macro parameters.
type MacroClassifier interface {
	Classify(n markup.Node) (name string, ok bool)
	ParameterName(n markup.Node) (name string, ok bool)
}

// MacroRule matches a macro element. Every non-empty field must match.
type MacroRule struct {
	Tag           string `yaml:"tag"`
	Attribute     string `yaml:"attribute"`
	ClassSuffix   string `yaml:"classSuffix"`
	NameAttribute string `yaml:"nameAttribute"`
}

// ParamRule matches a parameter element; the parameter name is read from
// Attribute.
type ParamRule struct {
	Tag       string `yaml:"tag"`
	Attribute string `yaml:"attribute"`
}

// RuleClassifier is a MacroClassifier driven by ordered rules.
type RuleClassifier struct {
	Macros     []MacroRule `yaml:"macros"`
	Parameters []ParamRule `yaml:"parameters"`
}

// DefaultMacroRules covers rendered wiki markup (data-macro-name,
// *-macro classes) and storage format (<ac:structured-macro>).
func DefaultMacroRules() *RuleClassifier {
	return &RuleClassifier{
		Macros: []MacroRule{
			{Attribute: "data-macro-name"},
			{Tag: "ac:structured-macro", NameAttribute: "ac:name"},
			{Tag: "ac:macro", NameAttribute: "ac:name"},
			{ClassSuffix: "-macro"},
		},
		Parameters: []ParamRule{
			{Attribute: "data-parameter-name"},
			{Tag: "ac:parameter", Attribute: "ac:name"},
		},
	}
}

// LoadMacroRules reads a YAML rule file.
func LoadMacroRules(path string) (*RuleClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read macro rules: %w", err)
	}
	var rc RuleClassifier
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("parse macro rules: %w", err)
	}
	if len(rc.Macros) == 0 {
		return nil, fmt.Errorf("macro rules %s: no macro rules defined", path)
	}
	for i, r := range rc.Macros {
		if r.Tag == "" && r.Attribute == "" && r.ClassSuffix == "" {
			return nil, fmt.Errorf("macro rule %d: needs tag, attribute or classSuffix", i)
		}
	}
	return &rc, nil
}

func (rc *RuleClassifier) Classify(n markup.Node) (string, bool) {
	for _, r := range rc.Macros {
		if name, ok := r.match(n); ok {
			return name, true
		}
	}
	return "", false
}

func (rc *RuleClassifier) ParameterName(n markup.Node) (string, bool) {
	for _, r := range rc.Parameters {
		if r.Tag != "" && n.Tag() != r.Tag {
			continue
		}
		if v, ok := n.Attr(r.Attribute); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (r MacroRule) match(n markup.Node) (string, bool) {
	if r.Tag != "" && n.Tag() != r.Tag {
		return "", false
	}
	var name string
	if r.Attribute != "" {
		v, ok := n.Attr(r.Attribute)
		if !ok {
			return "", false
		}
		name = v
	}
	if r.ClassSuffix != "" {
		token := classWithSuffix(n, r.ClassSuffix)
		if token == "" {
			return "", false
		}
		if name == "" {
			name = strings.TrimSuffix(strings.TrimPrefix(token, "confluence-"), r.ClassSuffix)
		}
	}
	if r.NameAttribute != "" {
		if v, ok := n.Attr(r.NameAttribute); ok && v != "" {
			name = v
		}
	}
	if name == "" {
		name = n.Tag()
	}
	return name, true
}

func classWithSuffix(n markup.Node, suffix string) string {
	for _, c := range markup.Classes(n) {
		if strings.HasSuffix(c, suffix) && len(c) > len(suffix) {
			return c
		}
	}
	return ""
}

func (p *Parser) extractMacros(root markup.Node) []doctree.Macro {
	var macros []doctree.Macro
	markup.Walk(root, func(n markup.Node) bool {
		name, ok := p.macros.Classify(n)
		if !ok {
			return true
		}
		macros = append(macros, doctree.Macro{
			Name:       name,
			Parameters: p.macroParameters(n),
			HTML:       n.HTML(),
			Content:    n.Text(),
		})
		return true
	})
	return macros
}

func (p *Parser) macroParameters(n markup.Node) map[string]string {
	params := make(map[string]string)
	markup.Walk(n, func(c markup.Node) bool {
		if name, ok := p.macros.ParameterName(c); ok {
			params[name] = c.Text()
		}
		return true
	})
	return params
}
