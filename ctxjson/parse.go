package ctxjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SyntaxError reports malformed JSON input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json: line %d: %s", e.Line, e.Msg)
}

type parser struct {
	src []byte
	dec *json.Decoder
}

// Parse reads one JSON value from r. Trailing whitespace is allowed;
// anything else after the value is an error. Objects keep their key order.
func Parse(r io.Reader) (Obj, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, dec: json.NewDecoder(bytes.NewReader(src))}
	p.dec.UseNumber()

	o, err := p.value()
	if err != nil {
		return nil, err
	}
	if _, err := p.dec.Token(); err != io.EOF {
		if err != nil {
			return nil, p.fail(err)
		}
		return nil, p.errorf("unexpected data after value")
	}
	return o, nil
}

// ParseString is Parse on a string.
func ParseString(s string) (Obj, error) {
	return Parse(strings.NewReader(s))
}

// line is the 1-based line of the decoder's current input offset.
func (p *parser) line() int {
	off := int(p.dec.InputOffset())
	if off > len(p.src) {
		off = len(p.src)
	}
	return 1 + bytes.Count(p.src[:off], []byte{'\n'})
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: p.line(), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) fail(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	var serr *json.SyntaxError
	if errors.As(err, &serr) {
		return p.errorf("%s", serr.Error())
	}
	return p.errorf("%v", err)
}

func (p *parser) value() (Obj, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.fail(err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object()
		case '[':
			return p.array()
		}
		return nil, p.errorf("unexpected %q", rune(t))
	case json.Number:
		return p.number(t)
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, p.errorf("unexpected token %v", tok)
}

func (p *parser) number(n json.Number) (Obj, error) {
	if strings.ContainsAny(string(n), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return nil, p.errorf("bad number %s", n)
		}
		return Float(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil, p.errorf("bad number %s", n)
	}
	return Number(i), nil
}

func (p *parser) object() (Obj, error) {
	m := NewMap()
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.fail(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.errorf("expected object key, got %v", tok)
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	return m, p.closing('}')
}

func (p *parser) array() (Obj, error) {
	vec := Vector{}
	for p.dec.More() {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		vec = append(vec, v)
	}
	return vec, p.closing(']')
}

func (p *parser) closing(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		return p.fail(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return p.errorf("expected %q, got %v", rune(want), tok)
	}
	return nil
}
