package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

type parseState uint8

const (
	stateIdle parseState = iota
	stateName
	stateOnKeyword
	stateOnType
	stateHeader
)

// parser reads top-level definitions line by line. Bodies are only checked for
// balanced braces.
type parser struct {
	doc      Document
	state    parseState
	depth    int
	openLine int
	extend   bool
	inBlock  bool
	lineNo   int
}

// Parse reads the top-level definitions of a document.
func Parse(path, content string) (Document, error) {
	p := &parser{doc: Document{Path: path}}
	for i, line := range strings.Split(content, "\n") {
		if err := p.line(i+1, line); err != nil {
			return Document{}, err
		}
	}
	if err := p.finish(); err != nil {
		return Document{}, err
	}
	return p.doc, nil
}

func (p *parser) line(n int, text string) error {
	p.lineNo = n

	// Block strings are descriptions and may span lines.
	quotes := strings.Count(text, `"""`)
	if p.inBlock {
		if quotes%2 == 1 {
			p.inBlock = false
		}
		return nil
	}
	if quotes%2 == 1 {
		p.inBlock = true
		text = text[:strings.Index(text, `"""`)]
	}

	for _, tok := range tokenize(text) {
		if err := p.token(tok); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) token(tok string) error {
	switch tok {
	case "{":
		if p.depth == 0 {
			if err := p.openBody(); err != nil {
				return err
			}
			p.openLine = p.lineNo
		}
		p.depth++
		return nil
	case "}":
		if p.depth == 0 {
			return p.fail(`unexpected "}"`)
		}
		p.depth--
		return nil
	}

	if p.depth > 0 {
		return nil
	}
	return p.header(tok)
}

func (p *parser) openBody() error {
	switch p.state {
	case stateIdle:
		if p.extend {
			return p.fail(`expected a definition after "extend"`)
		}
		// Shorthand query.
		p.start(KindQuery)
	case stateName:
		if kind := p.current().Kind; !kind.IsOperation() {
			return p.fail(fmt.Sprintf("expected a name after %q", kind))
		}
	case stateOnKeyword, stateOnType:
		return p.fail(`expected "on <Type>" in fragment`)
	}
	p.state = stateIdle
	return nil
}

func (p *parser) header(tok string) error {
	switch p.state {
	case stateIdle, stateHeader:
		if tok == "extend" && !p.extend {
			p.extend = true
			p.state = stateIdle
			return nil
		}
		kind, ok := kinds[tok]
		if !ok {
			if p.state == stateHeader {
				return nil
			}
			return p.fail(fmt.Sprintf("unexpected %q", tok))
		}
		p.start(kind)
	case stateName:
		if tok == "@" {
			return nil
		}
		if !isName(tok) {
			if p.current().Kind.IsOperation() {
				p.state = stateHeader
				return nil
			}
			return p.fail(fmt.Sprintf("expected a name, found %q", tok))
		}
		p.current().Name = tok
		if p.current().Kind == KindFragment {
			p.state = stateOnKeyword
		} else {
			p.state = stateHeader
		}
	case stateOnKeyword:
		if tok != "on" {
			return p.fail(fmt.Sprintf(`expected "on", found %q`, tok))
		}
		p.state = stateOnType
	case stateOnType:
		if !isName(tok) {
			return p.fail(fmt.Sprintf("expected a type name, found %q", tok))
		}
		p.current().On = tok
		p.state = stateHeader
	}
	return nil
}

func (p *parser) start(kind Kind) {
	p.doc.Definitions = append(p.doc.Definitions, Definition{
		Kind:      kind,
		Line:      p.lineNo,
		Extension: p.extend,
	})
	p.extend = false
	if kind == KindSchema {
		p.state = stateHeader
		return
	}
	p.state = stateName
}

func (p *parser) current() *Definition {
	return &p.doc.Definitions[len(p.doc.Definitions)-1]
}

func (p *parser) finish() error {
	switch {
	case p.depth > 0:
		return &ParseError{Line: p.openLine, Message: `unclosed "{"`}
	case p.inBlock:
		return p.fail("unterminated block string")
	case p.extend, p.state == stateName, p.state == stateOnKeyword, p.state == stateOnType:
		return p.fail("unexpected end of document")
	}
	return nil
}

func (p *parser) fail(msg string) error {
	return &ParseError{Line: p.lineNo, Message: msg}
}

// tokenize splits a line into words and punctuation, dropping comments and
// string literals.
func tokenize(line string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	inString := false
	for _, r := range line {
		switch {
		case inString:
			if r == '"' {
				inString = false
			}
		case r == '"':
			flush()
			inString = true
		case r == '#':
			flush()
			return tokens
		case unicode.IsSpace(r) || r == ',':
			flush()
		case strings.ContainsRune("{}()[]:=|@!&$", r):
			flush()
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isName(tok string) bool {
	for i, r := range tok {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return tok != ""
}
