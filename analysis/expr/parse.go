// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse parses the syntax printed by the String methods of expressions:
//
//	iff     := implies ("<=>" implies)*
//	implies := or ("=>" implies)?
//	or      := and ("||" and)*
//	and     := unary ("&&" unary)*
//	unary   := "!" unary | "true" | "false" | symbol | "(" iff ")"
//
// Symbols are made of letters, digits and the characters _#$%@.:
func Parse(s string) (Expr, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("invalid UTF-8 in %q", s)
	}
	p := &parser{input: s}
	p.next()
	e, err := p.parseIff()
	if err != nil {
		return nil, err
	}
	if p.tok != "" {
		return nil, fmt.Errorf("unexpected %q at offset %d in %q", p.tok, p.pos, s)
	}
	return e, nil
}

// MustParse is like Parse but panics on errors. Used for literals in tests and testdata.
func MustParse(s string) Expr {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

func isSymbolRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_#$%@.:", r)
}

type parser struct {
	input string
	pos   int    // offset of the current token
	end   int    // offset after the current token
	tok   string // current token, empty at the end of the input
}

func (p *parser) next() {
	i := p.end
	for i < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	p.pos = i
	if i >= len(p.input) {
		p.tok, p.end = "", i
		return
	}
	for _, op := range []string{"<=>", "=>", "&&", "||", "!", "(", ")"} {
		if strings.HasPrefix(p.input[i:], op) {
			p.tok, p.end = op, i+len(op)
			return
		}
	}
	j := i
	for j < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[j:])
		if !isSymbolRune(r) {
			if j == i {
				j += size // invalid character, reported by the caller
			}
			break
		}
		j += size
	}
	p.tok, p.end = p.input[i:j], j
}

func (p *parser) parseIff() (Expr, error) {
	lhs, err := p.parseImplies()
	if err != nil {
		return nil, err
	}
	for p.tok == "<=>" {
		p.next()
		rhs, err := p.parseImplies()
		if err != nil {
			return nil, err
		}
		lhs = Iff(lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) parseImplies() (Expr, error) {
	lhs, err := p.parseNary(OR)
	if err != nil {
		return nil, err
	}
	if p.tok != "=>" {
		return lhs, nil
	}
	p.next()
	rhs, err := p.parseImplies()
	if err != nil {
		return nil, err
	}
	return Implies(lhs, rhs), nil
}

func (p *parser) parseNary(op NaryOp) (Expr, error) {
	sub := func() (Expr, error) {
		if op == OR {
			return p.parseNary(AND)
		}
		return p.parseUnary()
	}
	first, err := sub()
	if err != nil {
		return nil, err
	}
	args := []Expr{first}
	for p.tok == op.String() {
		p.next()
		arg, err := sub()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 1 {
		return first, nil
	}
	return &NaryExpr{Op: op, Args: args}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	switch tok := p.tok; tok {
	case "":
		return nil, fmt.Errorf("unexpected end of expression in %q", p.input)
	case "!":
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not(x), nil
	case "(":
		p.next()
		x, err := p.parseIff()
		if err != nil {
			return nil, err
		}
		if p.tok != ")" {
			return nil, fmt.Errorf("expected ) at offset %d in %q", p.pos, p.input)
		}
		p.next()
		return x, nil
	case "true":
		p.next()
		return True, nil
	case "false":
		p.next()
		return False, nil
	default:
		if r, _ := utf8.DecodeRuneInString(tok); !isSymbolRune(r) {
			return nil, fmt.Errorf("unexpected %q at offset %d in %q", tok, p.pos, p.input)
		}
		p.next()
		return Sym(tok), nil
	}
}
