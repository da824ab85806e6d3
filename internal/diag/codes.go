package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Блочная разметка
	BlkUnexpectedIndentation Code = 1001
	BlkBlockQuoteEnd         Code = 1002
	BlkListEnd               Code = 1003
	BlkExplicitMarkupEnd     Code = 1004
	BlkDefinitionListEnd     Code = 1005
	BlkLiteralBlockExpected  Code = 1006
	BlkMalformedTable        Code = 1007
	BlkEnumerationSequence   Code = 1008
	BlkFieldListEnd          Code = 1009
	BlkInconsistentLiteral   Code = 1010

	// Заголовки секций
	SecTitleLevelInconsistent Code = 2001
	SecUnderlineTooShort      Code = 2002
	SecUnexpectedTitle        Code = 2003
	SecOverlineMismatch       Code = 2004
	SecIncompleteTitle        Code = 2005

	// Директивы
	DirUnknown       Code = 3001
	DirError         Code = 3002
	DirIncludeFailed Code = 3003
	DirNoContent     Code = 3004

	// Роли
	RoleUnknown Code = 4001

	// Окружение
	EnvIOError Code = 5002
)

var codeNames = map[Code]string{
	UnknownCode:               "UNKNOWN",
	BlkUnexpectedIndentation:  "unexpected-indentation",
	BlkBlockQuoteEnd:          "block-quote-end",
	BlkListEnd:                "list-end",
	BlkExplicitMarkupEnd:      "explicit-markup-end",
	BlkDefinitionListEnd:      "definition-list-end",
	BlkLiteralBlockExpected:   "literal-block-expected",
	BlkMalformedTable:         "malformed-table",
	BlkEnumerationSequence:    "enumeration-sequence",
	BlkFieldListEnd:           "field-list-end",
	BlkInconsistentLiteral:    "inconsistent-literal",
	SecTitleLevelInconsistent: "title-level-inconsistent",
	SecUnderlineTooShort:      "underline-too-short",
	SecUnexpectedTitle:        "unexpected-section-title",
	SecOverlineMismatch:       "overline-mismatch",
	SecIncompleteTitle:        "incomplete-title",
	DirUnknown:                "unknown-directive",
	DirError:                  "directive-error",
	DirIncludeFailed:          "include-failed",
	DirNoContent:              "directive-no-content",
	RoleUnknown:               "unknown-role",
	EnvIOError:                "io-error",
}

// ID returns the stable short identifier, e.g. "RST3001".
func (c Code) ID() string {
	return fmt.Sprintf("RST%04d", uint16(c))
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return c.ID()
}
