// Package yangtext parses YANG text into statement trees that replay into
// the reactor one phase at a time.
package yangtext

import (
	"fmt"
	"io"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/source"
)

// Parse reads one module or submodule. The returned tree is identified by
// the module name and its first revision.
func Parse(path string, data []byte) (*source.Tree, error) {
	p := &parser{lex: newLexer(path, string(data))}
	if err := p.lex.checkEncoding(); err != nil {
		return nil, err
	}
	root, err := p.statement()
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenEOF {
		return nil, p.lex.errorf(tok.line, tok.column, "unexpected %s after %s statement", tok.kind, root.Keyword)
	}
	if root.Keyword != "module" && root.Keyword != "submodule" {
		return nil, yangerrors.NewSourceError(yangerrors.ErrSyntax, path, root.Ref.Line, root.Ref.Column,
			"top-level statement is %s, want module or submodule", root.Keyword)
	}
	return &source.Tree{ID: Identifier(root), Root: root}, nil
}

// ParseReader reads r fully and parses it.
func ParseReader(path string, r io.Reader) (*source.Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Identifier derives the source identifier of a parsed root.
func Identifier(root *source.Statement) source.Identifier {
	id := source.Identifier{Name: root.Argument}
	for _, sub := range root.Substatements {
		if sub.Keyword == "revision" {
			id.Revision = sub.Argument
			break
		}
	}
	return id
}

type parser struct {
	lex *lexer
}

func (p *parser) statement() (*source.Statement, error) {
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	return p.statementFrom(tok)
}

func (p *parser) statementFrom(kw token) (*source.Statement, error) {
	if kw.kind != tokenString || kw.quoted {
		return nil, p.lex.errorf(kw.line, kw.column, "expected keyword, found %s", describe(kw))
	}
	if !isKeyword(kw.text) {
		return nil, p.lex.errorf(kw.line, kw.column, "invalid keyword %q", kw.text)
	}
	stmt := &source.Statement{
		Keyword: kw.text,
		Ref:     source.Ref{Path: p.lex.path, Line: kw.line, Column: kw.column},
	}

	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokenString {
		stmt.Argument = tok.text
		if tok, err = p.lex.next(); err != nil {
			return nil, err
		}
	}

	switch tok.kind {
	case tokenSemicolon:
		return stmt, nil
	case tokenOpenBrace:
	default:
		return nil, p.lex.errorf(tok.line, tok.column, "expected ';' or '{' after %s, found %s", stmt.Keyword, describe(tok))
	}
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenCloseBrace:
			return stmt, nil
		case tokenEOF:
			return nil, p.lex.errorf(stmt.Ref.Line, stmt.Ref.Column, "unterminated %s block", stmt.Keyword)
		}
		sub, err := p.statementFrom(tok)
		if err != nil {
			return nil, err
		}
		stmt.Substatements = append(stmt.Substatements, sub)
	}
}

func isKeyword(s string) bool {
	prefix, local, ok, err := qname.SplitPrefixed(s)
	if err != nil {
		return false
	}
	if ok {
		return qname.IsIdentifier(prefix) && qname.IsIdentifier(local)
	}
	return qname.IsIdentifier(local)
}

func describe(tok token) string {
	if tok.kind == tokenString {
		return fmt.Sprintf("%q", tok.text)
	}
	return tok.kind.String()
}
