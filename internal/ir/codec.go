package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Delimiter separates the name and arguments of an encoded command.
// Encode escapes ';' inside fields, so the delimiter never appears in
// argument text.
const Delimiter = "<;>"

// DecodeError reports an encoded command whose arguments do not fit the
// named command's signature.
type DecodeError struct {
	Command string
	Arg     int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Arg < 0 {
		return fmt.Sprintf("decode %s: %s", e.Command, e.Message)
	}
	return fmt.Sprintf("decode %s: arg %d: %s", e.Command, e.Arg, e.Message)
}

// Encode serializes c as name and arguments joined by Delimiter. It is
// lossless: Decode(Encode(c)) equals c for every decodable command.
func Encode(c Command) string {
	args := c.Args()
	fields := make([]string, 0, len(args)+1)
	fields = append(fields, escapeField(c.Name()))
	for _, a := range args {
		fields = append(fields, escapeField(a))
	}
	return strings.Join(fields, Delimiter)
}

// Normalize returns c with its text arguments in NFC form. Commands are
// normalized once, when they are recorded, so the executed command and
// its journaled encoding carry the same bytes.
func Normalize(c Command) Command {
	switch v := c.(type) {
	case CreateRectangle:
		v.Text = norm.NFC.String(v.Text)
		return v
	case CreateLabel:
		v.Text = norm.NFC.String(v.Text)
		return v
	case CreateHighlightCircle:
		v.Color = norm.NFC.String(v.Color)
		return v
	case SetText:
		v.Text = norm.NFC.String(v.Text)
		return v
	case SetForegroundColor:
		v.Color = norm.NFC.String(v.Color)
		return v
	case Internal:
		v.Params = nfcAll(v.Params)
		return v
	case Unknown:
		v.Params = nfcAll(v.Params)
		return v
	}
	return c
}

func nfcAll(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = norm.NFC.String(s)
	}
	return out
}

// EncodeAll encodes every command in cmds.
func EncodeAll(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = Encode(c)
	}
	return out
}

// Decode parses an encoded command. A name outside the vocabulary yields
// Unknown and a nil error; malformed arguments yield a *DecodeError.
func Decode(s string) (Command, error) {
	parts := strings.Split(s, Delimiter)
	for i, p := range parts {
		parts[i] = unescapeField(p)
	}
	return build(parts[0], parts[1:])
}

// DecodeAll decodes a list of encoded commands, stopping at the first error.
func DecodeAll(encoded []string) ([]Command, error) {
	out := make([]Command, 0, len(encoded))
	for i, s := range encoded {
		c, err := Decode(s)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Parse builds a command from a name and loosely typed arguments. Text is
// NFC normalized. It never fails: arguments that do not fit produce Unknown
// with a Reason, which the engine reports when the command executes.
func Parse(name string, args ...any) Command {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = norm.NFC.String(stringify(a))
	}
	c, err := build(name, strs)
	if err != nil {
		return Unknown{Command: name, Params: strs, Reason: err.Error()}
	}
	return c
}

func build(name string, args []string) (Command, error) {
	p := argParser{name: name, args: args}
	switch name {
	case NameCreateRectangle:
		c := CreateRectangle{ID: p.id(0), Text: p.str(1), Width: p.num(2), Height: p.num(3), X: p.num(4), Y: p.num(5)}
		return c, p.err
	case NameCreateLabel:
		c := CreateLabel{ID: p.id(0), Text: p.str(1), X: p.num(2), Y: p.num(3)}
		return c, p.err
	case NameCreateHighlightCircle:
		c := CreateHighlightCircle{ID: p.id(0), Color: p.str(1), X: p.num(2), Y: p.num(3)}
		return c, p.err
	case NameMove:
		c := Move{ID: p.id(0), X: p.num(1), Y: p.num(2)}
		return c, p.err
	case NameSetText:
		c := SetText{ID: p.id(0), Text: p.str(1)}
		return c, p.err
	case NameSetHighlight:
		c := SetHighlight{ID: p.id(0), On: p.flag(1)}
		return c, p.err
	case NameSetForegroundColor:
		c := SetForegroundColor{ID: p.id(0), Color: p.str(1)}
		return c, p.err
	case NameSetLayer:
		c := SetLayer{ID: p.id(0), Layer: p.num(1)}
		return c, p.err
	case NameAlignRight:
		c := AlignRight{ID: p.id(0), Ref: p.id(1)}
		return c, p.err
	case NameSetAlpha:
		c := SetAlpha{ID: p.id(0), Alpha: p.real(1)}
		return c, p.err
	case NameDelete:
		c := Delete{ID: p.id(0)}
		return c, p.err
	case NameInternal:
		if len(args) == 0 || args[0] == "" {
			return nil, &DecodeError{Command: name, Arg: 0, Message: "missing handler name"}
		}
		return Internal{Handler: args[0], Params: append([]string(nil), args[1:]...)}, nil
	case NameStep:
		return Step{}, nil
	default:
		return Unknown{Command: name, Params: append([]string(nil), args...), Reason: "unknown command"}, nil
	}
}

// argParser accumulates the first conversion error so each case in build
// stays a single expression.
type argParser struct {
	name string
	args []string
	err  error
}

func (p *argParser) raw(i int) (string, bool) {
	if p.err != nil {
		return "", false
	}
	if i >= len(p.args) {
		p.err = &DecodeError{Command: p.name, Arg: i, Message: "missing argument"}
		return "", false
	}
	return p.args[i], true
}

func (p *argParser) str(i int) string {
	// Trailing text arguments may be omitted; they default to "".
	if i >= len(p.args) {
		return ""
	}
	return p.args[i]
}

func (p *argParser) num(i int) int {
	s, ok := p.raw(i)
	if !ok {
		return 0
	}
	v, err := parseIntLoose(s)
	if err != nil {
		p.err = &DecodeError{Command: p.name, Arg: i, Message: err.Error()}
		return 0
	}
	return v
}

func (p *argParser) id(i int) ID {
	return ID(p.num(i))
}

func (p *argParser) flag(i int) bool {
	s, ok := p.raw(i)
	if !ok {
		return false
	}
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true":
		return true
	case "0", "false", "":
		return false
	}
	p.err = &DecodeError{Command: p.name, Arg: i, Message: fmt.Sprintf("invalid flag %q", s)}
	return false
}

func (p *argParser) real(i int) float64 {
	s, ok := p.raw(i)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = &DecodeError{Command: p.name, Arg: i, Message: fmt.Sprintf("invalid number %q", s)}
		return 0
	}
	return v
}

// parseIntLoose accepts integers and decimal numbers, truncating the latter
// toward zero. Producers compute positions like x + w/2, which may carry a
// fractional part.
func parseIntLoose(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

func stringify(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case ID:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func escapeField(s string) string {
	if !strings.ContainsAny(s, `\;`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r == '\\' || r == ';' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
