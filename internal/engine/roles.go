package engine

import "deprecdoc/internal/rst"

// docutilsRoles are the generic interpreted-text roles, including aliases.
var docutilsRoles = []string{
	"abbreviation", "ab", "acronym", "ac", "code", "emphasis", "literal",
	"math", "pep-reference", "pep", "rfc-reference", "rfc", "strong",
	"subscript", "sub", "superscript", "sup", "title-reference", "title",
	"t", "raw",
}

// sphinxRoles are the roles registered outside any domain.
var sphinxRoles = []string{
	"abbr", "command", "dfn", "file", "guilabel", "kbd", "mailheader",
	"makevar", "manpage", "menuselection", "mimetype", "newsgroup",
	"program", "regexp", "samp", "index", "download", "any", "eq",
}

var domainRoles = map[string][]string{
	"std": {"doc", "ref", "numref", "keyword", "option", "envvar", "token", "term"},
	"py":  {"data", "exc", "func", "class", "const", "attr", "type", "meth", "mod", "obj"},
	"c": {
		"member", "data", "var", "func", "macro", "struct", "union",
		"enum", "enumerator", "type", "expr", "texpr",
	},
	"math": {"numref"},
	"rst":  {"dir", "role"},
}

func standardRoles() *rst.RoleSet {
	roles := rst.NewRoleSet(docutilsRoles...)
	roles.Add(sphinxRoles...)
	for domain, names := range domainRoles {
		roles.AddDomain(domain, names...)
	}
	return roles
}

// registerStandard installs every directive the engine understands.
func (e *Engine) registerStandard(r *rst.Registry) {
	e.registerDocutils(r)
	e.registerSphinx(r)
	e.registerPython(r)
	e.registerDomains(r)
}
