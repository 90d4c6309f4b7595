package yaml

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	serde "github.com/Bithero-Agency/serde-go"
)

// style records how a scalar was written, which decides whether plain
// special forms (null, booleans, numbers) may apply.
type style uint8

const (
	stylePlain style = iota
	styleSingle
	styleDouble
	styleLiteral // |
	styleFolded  // >
)

// scalar is one parsed scalar node.
type scalar struct {
	text  string
	style style
}

func (sc scalar) plain() bool { return sc.style == stylePlain }

// readScalar parses one scalar in the active context, resolving the
// style from the first indicator character. A leading tag is parsed
// and recorded but not applied.
func (r *reader) readScalar() (scalar, error) {
	r.skipSpace()
	if err := r.maybeTag(); err != nil {
		return scalar{}, err
	}
	c, ok := r.buf.Peek()
	if !ok {
		return scalar{style: stylePlain}, nil
	}
	switch c {
	case '"':
		s, err := r.doubleQuoted()
		return scalar{text: s, style: styleDouble}, err
	case '\'':
		s, err := r.singleQuoted()
		return scalar{text: s, style: styleSingle}, err
	case '|':
		s, err := r.blockScalar(false)
		return scalar{text: s, style: styleLiteral}, err
	case '>':
		s, err := r.blockScalar(true)
		return scalar{text: s, style: styleFolded}, err
	default:
		return scalar{text: r.plainScalar(), style: stylePlain}, nil
	}
}

// plainScalar consumes an unquoted scalar. Which characters end it
// depends on the active context: a key context stops at ": ", flow
// contexts additionally stop at the flow indicators.
func (r *reader) plainScalar() string {
	var out []rune
	flow := r.ctx == ctxFlowIn || r.ctx == ctxFlowOut || r.ctx == ctxFlowKey
	key := r.ctx == ctxBlockKey || r.ctx == ctxFlowKey
	for {
		c, ok := r.buf.Peek()
		if !ok || c == '\n' {
			break
		}
		if flow && (c == ',' || c == '[' || c == ']' || c == '{' || c == '}') {
			break
		}
		if c == '#' && len(out) > 0 && out[len(out)-1] == ' ' {
			break
		}
		if c == ':' {
			next, more := r.buf.PeekAt(1)
			boundary := !more || next == ' ' || next == '\n'
			if flow && (next == ',' || next == ']' || next == '}') {
				boundary = true
			}
			if key && boundary {
				break
			}
			if boundary && !key {
				// a ": " at value position would open a mapping;
				// stop so the caller can decide
				break
			}
		}
		r.buf.Pop()
		out = append(out, c)
	}
	return strings.TrimRight(string(out), " ")
}

// doubleQuoted parses a double-quoted scalar using the same
// backslash-escape table as the JSON codec. \u escapes only cover the
// Basic Latin range: the high byte must be 00.
func (r *reader) doubleQuoted() (string, error) {
	r.buf.Pop() // opening quote
	var sb strings.Builder
	for {
		c, ok := r.buf.Pop()
		if !ok {
			return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside double-quoted scalar")
		}
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			e, ok := r.buf.Pop()
			if !ok {
				return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside escape sequence")
			}
			switch e {
			case '"', '\\', '/':
				sb.WriteRune(e)
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			case 'u':
				var digits [4]rune
				for i := range digits {
					d, ok := r.buf.Pop()
					if !ok {
						return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside unicode escape")
					}
					digits[i] = d
				}
				if digits[0] != '0' || digits[1] != '0' {
					return "", serde.NewTypeError(`\u escape with 00 high byte`, string(digits[:]))
				}
				v, err := strconv.ParseUint(string(digits[2:4]), 16, 8)
				if err != nil {
					return "", serde.NewTypeError("hex digits", string(digits[:]))
				}
				sb.WriteRune(rune(v))
			default:
				return "", r.syntaxErr("escape sequence")
			}
		default:
			sb.WriteRune(c)
		}
	}
}

// singleQuoted parses a single-quoted scalar; no escape processing is
// applied.
func (r *reader) singleQuoted() (string, error) {
	r.buf.Pop() // opening quote
	var sb strings.Builder
	for {
		c, ok := r.buf.Pop()
		if !ok {
			return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside single-quoted scalar")
		}
		if c == '\'' {
			return sb.String(), nil
		}
		sb.WriteRune(c)
	}
}

type chomping uint8

const (
	chompClip chomping = iota
	chompStrip
	chompKeep
)

// blockScalar parses a literal (|) or folded (>) block scalar. The
// indicator has not been consumed yet.
func (r *reader) blockScalar(folded bool) (string, error) {
	r.buf.Pop() // | or >

	chomp := chompClip
	explicit := 0
	for {
		c, ok := r.buf.Peek()
		if !ok || c == '\n' {
			break
		}
		switch {
		case c == '-':
			chomp = chompStrip
			r.buf.Pop()
		case c == '+':
			chomp = chompKeep
			r.buf.Pop()
		case c >= '1' && c <= '9':
			explicit = int(c - '0')
			r.buf.Pop()
		case c == ' ':
			r.buf.Pop()
		case c == '#':
			r.buf.SkipWhile(func(c rune) bool { return c != '\n' })
		default:
			return "", r.syntaxErr("block scalar header")
		}
	}
	if _, ok := r.buf.Pop(); !ok { // header newline
		return "", nil
	}

	contentIndent := -1
	if explicit > 0 {
		contentIndent = r.lvl + explicit
		if r.lvl < 0 {
			contentIndent = explicit
		}
	}

	var lines []string
	endedWithNewline := false
	for {
		// measure the next line's indent without consuming, so a
		// dedented line stays available to the enclosing block
		spaces := 0
		for {
			c, ok := r.buf.PeekAt(spaces)
			if !ok || c != ' ' {
				break
			}
			spaces++
		}
		c, ok := r.buf.PeekAt(spaces)
		if !ok {
			break
		}
		if c == '\n' {
			// blank line, part of the scalar
			r.buf.Skip(spaces + 1)
			lines = append(lines, "")
			endedWithNewline = true
			continue
		}
		if contentIndent < 0 {
			contentIndent = spaces
			if contentIndent <= r.lvl {
				// first content line dedented past the parent:
				// empty scalar
				break
			}
		}
		if spaces < contentIndent {
			break
		}
		r.buf.Skip(contentIndent)
		line := r.buf.TakeWhile(func(c rune) bool { return c != '\n' })
		lines = append(lines, line)
		if _, ok := r.buf.Pop(); !ok {
			endedWithNewline = false
			break
		}
		endedWithNewline = true
	}

	// leading blank lines recorded before the indent was known belong
	// to the content as empty lines
	raw := strings.Join(lines, "\n")
	if endedWithNewline {
		raw += "\n"
	}

	trailing := len(raw) - len(strings.TrimRight(raw, "\n"))
	body := raw[:len(raw)-trailing]
	if folded {
		body = foldBody(body)
	}
	switch chomp {
	case chompStrip:
		trailing = 0
	case chompClip:
		if trailing > 1 {
			trailing = 1
		}
	}
	return body + strings.Repeat("\n", trailing), nil
}

// foldBody applies line folding to the interior of a folded scalar: a
// single break becomes a space, a run of n breaks becomes n-1.
func foldBody(body string) string {
	var sb strings.Builder
	run := 0
	for _, c := range body {
		if c == '\n' {
			run++
			continue
		}
		switch {
		case run == 1:
			sb.WriteByte(' ')
		case run > 1:
			sb.WriteString(strings.Repeat("\n", run-1))
		}
		run = 0
		sb.WriteRune(c)
	}
	if run == 1 {
		sb.WriteByte(' ')
	} else if run > 1 {
		sb.WriteString(strings.Repeat("\n", run-1))
	}
	return sb.String()
}

// parseBool interprets a plain scalar as a boolean. yes/no and
// true/false are accepted in any case.
func parseBool(text string) (bool, bool) {
	switch strings.ToLower(text) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

// isNullText reports whether a plain scalar spells null.
func isNullText(text string) bool {
	return text == "" || text == "~" || strings.ToLower(text) == "null"
}

// parseFloat interprets a plain scalar as a float, handling the YAML
// special forms before generic parsing.
func parseFloat(text string, bits int) (float64, bool) {
	switch text {
	case ".inf", "+.inf", ".Inf", "+.Inf":
		return math.Inf(1), true
	case "-.inf", "-.Inf":
		return math.Inf(-1), true
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(text, bits)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseInt interprets a plain scalar as an integer; base 0 gives the
// 0x/0o/0b prefixes on top of decimal.
func parseInt(text string, bits int) (int64, error) {
	return strconv.ParseInt(text, 0, bits)
}

func parseUint(text string, bits int) (uint64, error) {
	return strconv.ParseUint(text, 0, bits)
}

// classify maps a parsed scalar to the data model: quoted and block
// styles are always strings, plain scalars get the special forms.
func classify(sc scalar) serde.AnyValue {
	if !sc.plain() {
		return serde.Str(sc.text)
	}
	if isNullText(sc.text) {
		return serde.Null()
	}
	if b, ok := parseBool(sc.text); ok {
		return serde.Bool(b)
	}
	if i, err := parseInt(sc.text, 64); err == nil {
		switch {
		case serde.FitsSigned(i, serde.Width1):
			return serde.Signed(i, serde.Width1)
		case serde.FitsSigned(i, serde.Width2):
			return serde.Signed(i, serde.Width2)
		case serde.FitsSigned(i, serde.Width4):
			return serde.Signed(i, serde.Width4)
		default:
			return serde.Signed(i, serde.Width8)
		}
	}
	if u, err := parseUint(sc.text, 64); err == nil {
		return serde.Unsigned(u, serde.Width8)
	}
	if f, ok := parseFloat(sc.text, 64); ok {
		return serde.Float(f, serde.Width8)
	}
	return serde.Str(sc.text)
}
