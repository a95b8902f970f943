// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser is a recursive-descent, one-token-lookahead parser over
// lexer.Token producing an ast.Statement, ported in idiom (not line by line)
// from original_source/src/sql/parser/mod.rs, which is a complete, working
// parser including its whitespace-insensitivity, missing-semicolon,
// duplicate-SET-column, and WHERE-equality test cases.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"kvsql/internal/errs"
	"kvsql/internal/sql/ast"
	"kvsql/internal/sql/lexer"
	"kvsql/internal/table"
)

// Parser consumes a Lexer's token stream with one token of lookahead.
type Parser struct {
	lex     *lexer.Lexer
	lookhd  *lexer.Token
	hasLook bool
}

// New builds a Parser over sql.
func New(sql string) *Parser {
	return &Parser{lex: lexer.New(sql)}
}

// Parse parses exactly one statement, terminated by a semicolon, with no
// trailing tokens afterward.
func (p *Parser) Parse() (ast.Statement, error) {
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Token{Kind: lexer.TSemicolon}); err != nil {
		return nil, err
	}
	tok, ok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, errs.Parserf("unexpected token after statement: %s", describe(tok))
	}
	return stmt, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok, ok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Parserf("unexpected end of input")
	}
	if tok.Kind != lexer.TKeyword {
		return nil, errs.Parserf("unexpected token %s", describe(tok))
	}
	switch tok.Keyword {
	case lexer.Create:
		return p.parseCreateTable()
	case lexer.Select:
		return p.parseSelect()
	case lexer.Insert:
		return p.parseInsert()
	case lexer.Update:
		return p.parseUpdate()
	case lexer.Delete:
		return p.parseDelete()
	default:
		return nil, errs.Parserf("unexpected token %s", describe(tok))
	}
}

func (p *Parser) parseCreateTable() (ast.Statement, error) {
	if err := p.expectKeyword(lexer.Create); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.Table); err != nil {
		return nil, err
	}
	name, err := p.nextIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Token{Kind: lexer.TOpenParen}); err != nil {
		return nil, err
	}

	var columns []ast.Column
	for {
		col, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		if !p.acceptKind(lexer.TComma) {
			break
		}
	}
	if err := p.expect(lexer.Token{Kind: lexer.TCloseParen}); err != nil {
		return nil, err
	}
	return ast.CreateTable{Name: name, Columns: columns}, nil
}

func (p *Parser) parseColumn() (ast.Column, error) {
	name, err := p.nextIdent()
	if err != nil {
		return ast.Column{}, err
	}
	dataType, err := p.parseDataType()
	if err != nil {
		return ast.Column{}, err
	}
	col := ast.Column{Name: name, DataType: dataType}

	for {
		tok, ok, err := p.peek()
		if err != nil {
			return ast.Column{}, err
		}
		if !ok || tok.Kind != lexer.TKeyword {
			break
		}
		switch tok.Keyword {
		case lexer.Null:
			p.consume()
			t := true
			col.Nullable = &t
		case lexer.Not:
			p.consume()
			if err := p.expectKeyword(lexer.Null); err != nil {
				return ast.Column{}, err
			}
			f := false
			col.Nullable = &f
		case lexer.Default:
			p.consume()
			expr, err := p.parseExpression()
			if err != nil {
				return ast.Column{}, err
			}
			col.Default = expr
		case lexer.Primary:
			p.consume()
			if err := p.expectKeyword(lexer.Key); err != nil {
				return ast.Column{}, err
			}
			col.PrimaryKey = true
		default:
			return ast.Column{}, errs.Parserf("unexpected column constraint %s", describe(tok))
		}
	}
	return col, nil
}

func (p *Parser) parseDataType() (table.DataType, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != lexer.TKeyword {
		return 0, errs.Parserf("unexpected token %s, expected a data type", describe(tok))
	}
	switch tok.Keyword {
	case lexer.Int, lexer.Integer:
		return table.Int, nil
	case lexer.String, lexer.Text, lexer.Varchar:
		return table.String, nil
	case lexer.Float, lexer.Double:
		return table.Float, nil
	case lexer.Boolean, lexer.Bool:
		return table.Bool, nil
	default:
		return 0, errs.Parserf("unexpected token %s, expected a data type", describe(tok))
	}
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case lexer.TNumber:
		if !strings.Contains(tok.Text, ".") {
			i, err := strconv.ParseInt(tok.Text, 10, 64)
			if err != nil {
				return nil, errs.Parserf("invalid integer literal %q: %v", tok.Text, err)
			}
			return ast.IntLiteral(i), nil
		}
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, errs.Parserf("invalid float literal %q: %v", tok.Text, err)
		}
		return ast.FloatLiteral(f), nil
	case lexer.TString:
		return ast.StringLiteral(tok.Text), nil
	case lexer.TKeyword:
		switch tok.Keyword {
		case lexer.True:
			return ast.BoolLiteral(true), nil
		case lexer.False:
			return ast.BoolLiteral(false), nil
		case lexer.Null:
			return ast.NullLiteral{}, nil
		}
	}
	return nil, errs.Parserf("unexpected expression token %s", describe(tok))
}

func (p *Parser) parseSelect() (ast.Statement, error) {
	if err := p.expectKeyword(lexer.Select); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Token{Kind: lexer.TAsterisk}); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.From); err != nil {
		return nil, err
	}
	tableName, err := p.nextIdent()
	if err != nil {
		return nil, err
	}

	whereCol, whereVal, err := p.parseWhereClause()
	if err != nil {
		return nil, err
	}

	sel := ast.Select{TableName: tableName, WhereColumn: whereCol, WhereValue: whereVal}

	if p.acceptKeyword(lexer.OrderBy) {
		if err := p.expectKeyword(lexer.By); err != nil {
			return nil, err
		}
		for {
			col, err := p.nextIdent()
			if err != nil {
				return nil, err
			}
			dir := ast.Asc
			if p.acceptKeyword(lexer.Asc) {
				dir = ast.Asc
			} else if p.acceptKeyword(lexer.Desc) {
				dir = ast.Desc
			}
			sel.OrderBy = append(sel.OrderBy, ast.OrderTerm{Column: col, Direction: dir})
			if !p.acceptKind(lexer.TComma) {
				break
			}
		}
	}

	if p.acceptKeyword(lexer.Limit) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		sel.Limit = expr
	}

	if p.acceptKeyword(lexer.Offset) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		sel.Offset = expr
	}

	return sel, nil
}

func (p *Parser) parseInsert() (ast.Statement, error) {
	if err := p.expectKeyword(lexer.Insert); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.Into); err != nil {
		return nil, err
	}
	tableName, err := p.nextIdent()
	if err != nil {
		return nil, err
	}

	var columns []string
	if p.acceptKind(lexer.TOpenParen) {
		columns, err = p.parseInsertColumns()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword(lexer.Values); err != nil {
		return nil, err
	}
	values, err := p.parseValues()
	if err != nil {
		return nil, err
	}
	return ast.Insert{TableName: tableName, Columns: columns, Values: values}, nil
}

func (p *Parser) parseInsertColumns() ([]string, error) {
	var columns []string
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case lexer.TIdent:
			columns = append(columns, tok.Text)
		case lexer.TComma:
			continue
		case lexer.TCloseParen:
			return columns, nil
		default:
			return nil, errs.Parserf("unexpected token %s", describe(tok))
		}
	}
}

func (p *Parser) parseValues() ([][]ast.Expression, error) {
	var rows [][]ast.Expression
	for {
		if err := p.expect(lexer.Token{Kind: lexer.TOpenParen}); err != nil {
			return nil, err
		}
		var row []ast.Expression
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			row = append(row, expr)
			tok, err := p.next()
			if err != nil {
				return nil, err
			}
			if tok.Kind == lexer.TCloseParen {
				break
			}
			if tok.Kind != lexer.TComma {
				return nil, errs.Parserf("unexpected token %s", describe(tok))
			}
		}
		rows = append(rows, row)
		if !p.acceptKind(lexer.TComma) {
			break
		}
	}
	return rows, nil
}

func (p *Parser) parseUpdate() (ast.Statement, error) {
	if err := p.expectKeyword(lexer.Update); err != nil {
		return nil, err
	}
	tableName, err := p.nextIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.Set); err != nil {
		return nil, err
	}

	columns := make(map[string]ast.Expression)
	var order []string
	for {
		col, err := p.nextIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.Token{Kind: lexer.TEqual}); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, dup := columns[col]; dup {
			return nil, errs.Parserf("duplicate column name %s", col)
		}
		columns[col] = expr
		order = append(order, col)
		if !p.acceptKind(lexer.TComma) {
			break
		}
	}

	whereCol, whereVal, err := p.parseWhereClause()
	if err != nil {
		return nil, err
	}
	return ast.Update{TableName: tableName, Columns: columns, ColumnOrder: order, WhereColumn: whereCol, WhereValue: whereVal}, nil
}

func (p *Parser) parseDelete() (ast.Statement, error) {
	if err := p.expectKeyword(lexer.Delete); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.From); err != nil {
		return nil, err
	}
	tableName, err := p.nextIdent()
	if err != nil {
		return nil, err
	}
	whereCol, whereVal, err := p.parseWhereClause()
	if err != nil {
		return nil, err
	}
	return ast.Delete{TableName: tableName, WhereColumn: whereCol, WhereValue: whereVal}, nil
}

func (p *Parser) parseWhereClause() (column string, value ast.Expression, err error) {
	if !p.acceptKeyword(lexer.Where) {
		return "", nil, nil
	}
	column, err = p.nextIdent()
	if err != nil {
		return "", nil, err
	}
	if err := p.expect(lexer.Token{Kind: lexer.TEqual}); err != nil {
		return "", nil, err
	}
	value, err = p.parseExpression()
	if err != nil {
		return "", nil, err
	}
	return column, value, nil
}

// --- token-stream plumbing ---

func (p *Parser) fill() error {
	if p.hasLook {
		return nil
	}
	tok, ok, err := p.lex.Scan()
	if err != nil {
		return errs.Parserf("%v", err)
	}
	if ok {
		p.lookhd = &tok
	} else {
		p.lookhd = nil
	}
	p.hasLook = true
	return nil
}

func (p *Parser) peek() (lexer.Token, bool, error) {
	if err := p.fill(); err != nil {
		return lexer.Token{}, false, err
	}
	if p.lookhd == nil {
		return lexer.Token{}, false, nil
	}
	return *p.lookhd, true, nil
}

func (p *Parser) consume() {
	p.hasLook = false
	p.lookhd = nil
}

func (p *Parser) next() (lexer.Token, error) {
	tok, ok, err := p.peek()
	if err != nil {
		return lexer.Token{}, err
	}
	if !ok {
		return lexer.Token{}, errs.Parserf("unexpected end of input")
	}
	p.consume()
	return tok, nil
}

func (p *Parser) nextIdent() (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	if tok.Kind != lexer.TIdent {
		return "", errs.Parserf("expected identifier, got %s", describe(tok))
	}
	return tok.Text, nil
}

func (p *Parser) expect(expected lexer.Token) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if !tokenEqual(tok, expected) {
		return errs.Parserf("expected %s, got %s", describe(expected), describe(tok))
	}
	return nil
}

func (p *Parser) expectKeyword(k lexer.Keyword) error {
	return p.expect(lexer.Token{Kind: lexer.TKeyword, Keyword: k})
}

func (p *Parser) acceptKind(k lexer.TokenKind) bool {
	tok, ok, err := p.peek()
	if err != nil || !ok || tok.Kind != k {
		return false
	}
	p.consume()
	return true
}

func (p *Parser) acceptKeyword(k lexer.Keyword) bool {
	tok, ok, err := p.peek()
	if err != nil || !ok || tok.Kind != lexer.TKeyword || tok.Keyword != k {
		return false
	}
	p.consume()
	return true
}

func tokenEqual(a, b lexer.Token) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == lexer.TKeyword {
		return a.Keyword == b.Keyword
	}
	return true
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TKeyword:
		return fmt.Sprintf("keyword(%d)", tok.Keyword)
	case lexer.TIdent:
		return fmt.Sprintf("identifier %q", tok.Text)
	case lexer.TString:
		return fmt.Sprintf("string %q", tok.Text)
	case lexer.TNumber:
		return fmt.Sprintf("number %q", tok.Text)
	case lexer.TOpenParen:
		return "'('"
	case lexer.TCloseParen:
		return "')'"
	case lexer.TComma:
		return "','"
	case lexer.TSemicolon:
		return "';'"
	case lexer.TAsterisk:
		return "'*'"
	case lexer.TEqual:
		return "'='"
	default:
		return "token"
	}
}
