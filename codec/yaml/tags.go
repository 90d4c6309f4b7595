package yaml

import (
	"github.com/pkg/errors"

	serde "github.com/Bithero-Agency/serde-go"
)

// secondaryPrefix is what the !! handle resolves against unless a
// handle registration overrides it.
const secondaryPrefix = "tag:yaml.org,2002:"

// maybeTag parses a node tag if one is present and records it on the
// reader. Tags are accepted in all four forms (verbatim, secondary,
// named handle, shorthand) but never consulted during decoding.
func (r *reader) maybeTag() error {
	c, ok := r.buf.Peek()
	if !ok || c != '!' {
		return nil
	}
	tag, err := r.parseTag()
	if err != nil {
		return err
	}
	r.lastTag = tag
	r.skipSpace()
	return nil
}

func isTagChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '/' || c == ':' ||
		c == '#' || c == '%' || c == '+' || c == ',':
		return true
	}
	return false
}

func (r *reader) parseTag() (string, error) {
	r.buf.Pop() // leading '!'

	c, ok := r.buf.Peek()
	if !ok {
		return "!", nil
	}

	switch c {
	case '<':
		// verbatim: !<tag:example.com,2000:app/foo>
		r.buf.Pop()
		uri := r.buf.TakeWhile(func(c rune) bool { return c != '>' && c != '\n' })
		if got, ok := r.buf.Pop(); !ok || got != '>' {
			return "", errors.Wrap(serde.ErrUnexpectedEnd, "inside verbatim tag")
		}
		return uri, nil
	case '!':
		// secondary: !!str
		r.buf.Pop()
		name := r.buf.TakeWhile(isTagChar)
		if prefix, ok := r.handles["!!"]; ok {
			return prefix + name, nil
		}
		return secondaryPrefix + name, nil
	}

	name := r.buf.TakeWhile(isTagChar)
	if c, ok := r.buf.Peek(); ok && c == '!' {
		// named handle: !h!name
		r.buf.Pop()
		rest := r.buf.TakeWhile(isTagChar)
		prefix, ok := r.handles["!"+name+"!"]
		if !ok {
			return "", &serde.SyntaxError{
				Expected: "registered tag handle",
				Found:    "!" + name + "!",
				Line:     r.buf.Line(),
				Column:   r.buf.Column(),
			}
		}
		return prefix + rest, nil
	}

	// shorthand: !name
	return "!" + name, nil
}
