package typing

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cottand/typeinfer/types"
	"github.com/pkg/errors"
)

var scalarNames = map[string]types.Type{
	"int64":        types.Int64,
	"int32":        types.Int32,
	"uint64":       types.Uint64,
	"float64":      types.Float64,
	"float32":      types.Float32,
	"bool":         types.Bool,
	"none":         types.None,
	"str":          types.Unicode,
	"unicode":      types.Unicode,
	"unicode_type": types.Unicode,
	"undefined":    types.Undefined,
}

// ParseType parses the textual form of a type, mostly as types print themselves:
//
//	int64, float64, bool, none, unicode
//	list(int64), set(unicode), optional(float64)
//	array(float64, 2d, C), readonly array(int64, 1d, A)
//	UniTuple(int64 x 3), Tuple(int64, float64)
func ParseType(src string) (types.Type, error) {
	p := &typeParser{src: src}
	t, err := p.parseType()
	if err == nil && p.skipSpace() < len(p.src) {
		err = errors.Errorf("unexpected %q at offset %d", p.src[p.pos:], p.pos)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "invalid type %q", src)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() int {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	return p.pos
}

func (p *typeParser) ident() string {
	start := p.skipSpace()
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) expect(token string) error {
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], token) {
		return errors.Errorf("expected %q at offset %d", token, p.pos)
	}
	p.pos += len(token)
	return nil
}

func (p *typeParser) peek(token string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], token)
}

// parenthesised parses '(' f ')'
func (p *typeParser) parenthesised(f func() error) error {
	if err := p.expect("("); err != nil {
		return err
	}
	if err := f(); err != nil {
		return err
	}
	return p.expect(")")
}

func (p *typeParser) parseType() (types.Type, error) {
	name := p.ident()
	if scalar, ok := scalarNames[name]; ok {
		return scalar, nil
	}
	var parsed types.Type
	var err error
	switch name {
	case "readonly":
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		arr, ok := inner.(types.Array)
		if !ok {
			return nil, errors.Errorf("only arrays can be readonly, not %s", inner)
		}
		return arr.WithReadonly(), nil
	case "list", "set", "optional", "OptionalType":
		var inner types.Type
		err = p.parenthesised(func() (err error) {
			inner, err = p.parseType()
			return err
		})
		switch name {
		case "list":
			parsed = types.List{Elem: inner}
		case "set":
			parsed = types.Set{Elem: inner}
		default:
			parsed = types.Optional{Inner: inner}
		}
	case "array":
		arr := types.Array{Layout: "A"}
		err = p.parenthesised(func() (err error) {
			if arr.DType, err = p.parseType(); err != nil {
				return err
			}
			if err = p.expect(","); err != nil {
				return err
			}
			dims := p.ident()
			if arr.NDim, err = strconv.Atoi(strings.TrimSuffix(dims, "d")); err != nil {
				return errors.Errorf("invalid number of dimensions %q", dims)
			}
			if p.peek(",") {
				_ = p.expect(",")
				arr.Layout = p.ident()
			}
			return nil
		})
		parsed = arr
	case "UniTuple":
		tuple := types.UniTuple{}
		err = p.parenthesised(func() (err error) {
			if tuple.Elem, err = p.parseType(); err != nil {
				return err
			}
			if p.ident() != "x" {
				return errors.New("expected 'x' in UniTuple")
			}
			count := p.ident()
			tuple.Count, err = strconv.Atoi(count)
			return errors.Wrapf(err, "invalid tuple length %q", count)
		})
		parsed = tuple
	case "Tuple":
		var elems []types.Type
		err = p.parenthesised(func() error {
			for !p.peek(")") {
				if len(elems) > 0 {
					if err := p.expect(","); err != nil {
						return err
					}
				}
				elem, err := p.parseType()
				if err != nil {
					return err
				}
				elems = append(elems, elem)
			}
			return nil
		})
		parsed = types.MakeTuple(elems)
	case "":
		return nil, errors.Errorf("expected a type at offset %d", p.pos)
	default:
		return nil, errors.Errorf("unknown type %q", name)
	}
	if err != nil {
		return nil, err
	}
	return parsed, nil
}
