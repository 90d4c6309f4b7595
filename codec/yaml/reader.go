package yaml

import (
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"

	serde "github.com/Bithero-Agency/serde-go"
	"github.com/Bithero-Agency/serde-go/internal/readbuf"
)

// ctxKind is the active parsing context. It decides which characters
// are safe inside a plain scalar and how collections terminate.
type ctxKind uint8

const (
	ctxBlockOut ctxKind = iota
	ctxBlockIn
	ctxBlockKey
	ctxFlowOut
	ctxFlowIn
	ctxFlowKey
)

// reader implements serde.Deserializer over the YAML grammar subset:
// block and flow collections, four scalar styles plus the two block
// scalar styles, tags parsed but not applied.
type reader struct {
	buf *readbuf.Buffer
	ctx ctxKind

	// lvl is the indentation of the entry (key or dash) this value
	// hangs off; nested block content must be indented past it.
	lvl int

	handles map[string]string
	lastTag string
}

func newReader(buf *readbuf.Buffer, handles map[string]string) *reader {
	return &reader{buf: buf, ctx: ctxBlockOut, lvl: -1, handles: handles}
}

func (r *reader) skipSpace() { r.buf.SkipWhile(func(c rune) bool { return c == ' ' }) }

func (r *reader) inFlow() bool {
	return r.ctx == ctxFlowIn || r.ctx == ctxFlowOut || r.ctx == ctxFlowKey
}

// skipFlowWS skips everything insignificant inside flow collections:
// spaces, line breaks and comments.
func (r *reader) skipFlowWS() {
	for {
		r.buf.SkipWhile(func(c rune) bool { return c == ' ' || c == '\t' || c == '\n' })
		if c, ok := r.buf.Peek(); ok && c == '#' {
			r.buf.SkipWhile(func(c rune) bool { return c != '\n' })
			continue
		}
		return
	}
}

func (r *reader) syntaxErr(expected string) error {
	c, ok := r.buf.Peek()
	if !ok {
		if err := r.buf.Err(); err != nil {
			return err
		}
		return errors.Wrapf(serde.ErrUnexpectedEnd, "expected %s", expected)
	}
	return &serde.SyntaxError{
		Expected: expected,
		Found:    strconv.QuoteRune(c),
		Line:     r.buf.Line(),
		Column:   r.buf.Column(),
	}
}

func (r *reader) expect(c rune, what string) error {
	got, ok := r.buf.Peek()
	if !ok || got != c {
		return r.syntaxErr(what)
	}
	r.buf.Pop()
	return nil
}

// peekContent returns the first significant rune ahead without
// consuming anything, looking through spaces, line breaks and
// comments.
func (r *reader) peekContent() (rune, bool) {
	i := 0
	for {
		c, ok := r.buf.PeekAt(i)
		if !ok {
			return 0, false
		}
		switch c {
		case ' ', '\t', '\n':
			i++
		case '#':
			for {
				c, ok = r.buf.PeekAt(i)
				if !ok {
					return 0, false
				}
				if c == '\n' {
					break
				}
				i++
			}
		default:
			return c, true
		}
	}
}

// nextEntry positions the cursor at the start of the next block entry
// (mapping key or sequence dash) and returns its indentation. The
// indentation itself is not consumed, so a dedented line stays intact
// for whichever ancestor owns it. When allowInline is set and content
// remains on the current line (right after a "- "), that position is
// reported with inline=true.
func (r *reader) nextEntry(allowInline bool) (indent int, inline bool, ok bool, err error) {
	r.skipSpace()
	if c, k := r.buf.Peek(); k && c == '#' {
		r.buf.SkipWhile(func(c rune) bool { return c != '\n' })
	}
	c, k := r.buf.Peek()
	if k && c != '\n' && r.buf.Column() > 1 {
		if allowInline {
			return r.buf.Column() - 1, true, true, nil
		}
		return 0, false, false, r.syntaxErr("end of line")
	}
	if k && c == '\n' {
		r.buf.Pop()
	}
	for {
		spaces := 0
		for {
			c, k := r.buf.PeekAt(spaces)
			if !k || c != ' ' {
				break
			}
			spaces++
		}
		c, k := r.buf.PeekAt(spaces)
		if !k {
			return 0, false, false, nil
		}
		if c == '\n' {
			r.buf.Skip(spaces + 1)
			continue
		}
		if c == '#' {
			r.buf.Skip(spaces)
			r.buf.SkipWhile(func(c rune) bool { return c != '\n' })
			if _, k := r.buf.Pop(); !k {
				return 0, false, false, nil
			}
			continue
		}
		if spaces == 0 && r.atDocMarker() {
			// the next document begins here; leave the marker for
			// the decoder
			return 0, false, false, nil
		}
		return spaces, false, true, nil
	}
}

// atDocMarker reports whether the cursor sits on a "---" or "..."
// document marker at column one.
func (r *reader) atDocMarker() bool {
	if !r.buf.HasPrefix("---") && !r.buf.HasPrefix("...") {
		return false
	}
	c, ok := r.buf.PeekAt(3)
	return !ok || c == '\n' || c == ' '
}

// toContent advances to the scalar content of the current value,
// crossing at most one line break when the continuation is indented
// past lvl. It reports false when the value turns out to be absent.
func (r *reader) toContent() bool {
	for {
		r.skipSpace()
		c, ok := r.buf.Peek()
		if !ok {
			return false
		}
		switch c {
		case '#':
			r.buf.SkipWhile(func(c rune) bool { return c != '\n' })
		case '\n':
			spaces := 0
			for {
				cc, k := r.buf.PeekAt(1 + spaces)
				if !k || cc != ' ' {
					break
				}
				spaces++
			}
			cc, k := r.buf.PeekAt(1 + spaces)
			if !k {
				return false
			}
			if cc == '\n' {
				r.buf.Skip(1 + spaces)
				continue
			}
			if spaces <= r.lvl {
				// dedented: this content belongs to an ancestor
				return false
			}
			r.buf.Skip(1 + spaces)
		default:
			return true
		}
	}
}

// scalarNode reads the scalar for the current value position; an
// absent value yields an empty plain scalar, which classifies as
// null.
func (r *reader) scalarNode() (scalar, error) {
	if r.inFlow() {
		r.skipFlowWS()
		return r.readScalar()
	}
	if !r.toContent() {
		return scalar{style: stylePlain}, nil
	}
	return r.readScalar()
}

func (r *reader) ReadBool() (bool, error) {
	sc, err := r.scalarNode()
	if err != nil {
		return false, err
	}
	if v, ok := parseBool(sc.text); ok {
		return v, nil
	}
	return false, serde.NewTypeError("boolean", strconv.Quote(sc.text))
}

func (r *reader) ReadSigned(width serde.Width) (int64, error) {
	sc, err := r.scalarNode()
	if err != nil {
		return 0, err
	}
	v, perr := parseInt(sc.text, width.Bits())
	if perr != nil {
		if errors.Is(perr, strconv.ErrRange) {
			return 0, serde.NewTypeError("cannot fit integer into "+strconv.Itoa(width.Bits())+" bits", sc.text)
		}
		return 0, serde.NewTypeError("integer", strconv.Quote(sc.text))
	}
	return v, nil
}

func (r *reader) ReadUnsigned(width serde.Width) (uint64, error) {
	sc, err := r.scalarNode()
	if err != nil {
		return 0, err
	}
	v, perr := parseUint(sc.text, width.Bits())
	if perr != nil {
		if errors.Is(perr, strconv.ErrRange) {
			return 0, serde.NewTypeError("cannot fit integer into "+strconv.Itoa(width.Bits())+" bits", sc.text)
		}
		return 0, serde.NewTypeError("unsigned integer", strconv.Quote(sc.text))
	}
	return v, nil
}

func (r *reader) ReadFloat(width serde.Width) (float64, error) {
	sc, err := r.scalarNode()
	if err != nil {
		return 0, err
	}
	if v, ok := parseFloat(sc.text, width.Bits()); ok {
		return v, nil
	}
	return 0, serde.NewTypeError("float", strconv.Quote(sc.text))
}

func (r *reader) ReadReal() (float64, error) { return r.ReadFloat(serde.Width8) }

func (r *reader) ReadChar() (rune, error) {
	s, err := r.ReadString()
	if err != nil {
		return 0, err
	}
	c, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, serde.NewTypeError("single character string", strconv.Quote(s))
	}
	return c, nil
}

func (r *reader) ReadString() (string, error) {
	sc, err := r.scalarNode()
	if err != nil {
		return "", err
	}
	return sc.text, nil
}

func (r *reader) ReadEnum(members []string) (uint32, error) {
	sc, err := r.scalarNode()
	if err != nil {
		return 0, err
	}
	return serde.ResolveEnum(classify(sc), members)
}

// boundary reports whether the rune n positions ahead ends a plain
// token.
func (r *reader) boundary(n int) bool {
	c, ok := r.buf.PeekAt(n)
	if !ok {
		return true
	}
	if c == ' ' || c == '\n' {
		return true
	}
	if r.inFlow() && (c == ',' || c == ']' || c == '}') {
		return true
	}
	return false
}

func (r *reader) ReadOptional() (serde.Deserializer, bool, error) {
	if r.inFlow() {
		r.skipFlowWS()
	} else if !r.toContent() {
		return nil, false, nil
	}
	c, ok := r.buf.Peek()
	if !ok {
		return nil, false, nil
	}
	switch {
	case r.inFlow() && (c == ',' || c == ']' || c == '}'):
		return nil, false, nil
	case c == '~' && r.boundary(1):
		r.buf.Pop()
		return nil, false, nil
	case r.buf.HasPrefix("null") && r.boundary(4):
		r.buf.Skip(4)
		return nil, false, nil
	}
	return r, true, nil
}

// ReadIgnore parses one value of unknown shape and drops it.
func (r *reader) ReadIgnore() error {
	_, err := r.ReadAny()
	return err
}

func (r *reader) ReadAny() (serde.AnyValue, error) {
	if r.inFlow() {
		r.skipFlowWS()
	} else if !r.toContent() {
		return serde.Null(), nil
	}
	if err := r.maybeTag(); err != nil {
		return serde.AnyValue{}, err
	}
	c, ok := r.buf.Peek()
	if !ok {
		return serde.Null(), nil
	}

	switch c {
	case '[', '{':
		return r.readAnyFlow()
	case '-':
		if r.boundary(1) && !r.inFlow() {
			sa := &blockSeqAccess{r: r, itemIndent: r.buf.Column() - 1, parentLvl: r.lvl, primed: true}
			return readAnySeq(sa)
		}
	case '|':
		if !r.inFlow() {
			s, err := r.blockScalar(false)
			return serde.Str(s), err
		}
	case '>':
		if !r.inFlow() {
			s, err := r.blockScalar(true)
			return serde.Str(s), err
		}
	}

	// scalar, or the first key of a block mapping
	startCol := r.buf.Column()
	sc, err := r.readScalar()
	if err != nil {
		return serde.AnyValue{}, err
	}
	r.skipSpace()
	if c, ok := r.buf.Peek(); ok && c == ':' && r.boundary(1) && !r.inFlow() {
		r.buf.Pop()
		key := keyValue(sc)
		ma := &blockMapAccess{
			r:         r,
			keyIndent: startCol - 1,
			parentLvl: r.lvl,
			firstKey:  &key,
			pending:   true,
		}
		return readAnyMap(ma)
	}
	return classify(sc), nil
}

func (r *reader) readAnyFlow() (serde.AnyValue, error) {
	c, _ := r.buf.Peek()
	if c == '[' {
		sa, err := r.StartSeq()
		if err != nil {
			return serde.AnyValue{}, err
		}
		return readAnySeq(sa)
	}
	ma, err := r.StartMap()
	if err != nil {
		return serde.AnyValue{}, err
	}
	return readAnyMap(ma)
}

func readAnySeq(sa serde.SeqAccess) (serde.AnyValue, error) {
	var items []serde.AnyValue
	for {
		ed, ok, err := sa.Element()
		if err != nil {
			return serde.AnyValue{}, err
		}
		if !ok {
			break
		}
		v, err := ed.ReadAny()
		if err != nil {
			return serde.AnyValue{}, err
		}
		items = append(items, v)
	}
	if err := sa.End(); err != nil {
		return serde.AnyValue{}, err
	}
	return serde.Seq(items...), nil
}

func readAnyMap(ma serde.MapAccess) (serde.AnyValue, error) {
	m := serde.NewAnyMap()
	var key serde.AnyValue
	for {
		ok, err := ma.Key(&key)
		if err != nil {
			return serde.AnyValue{}, err
		}
		if !ok {
			break
		}
		vd, err := ma.Value()
		if err != nil {
			return serde.AnyValue{}, err
		}
		v, err := vd.ReadAny()
		if err != nil {
			return serde.AnyValue{}, err
		}
		m.Set(key, v)
	}
	if err := ma.End(); err != nil {
		return serde.AnyValue{}, err
	}
	return serde.Map(m), nil
}

// keyValue classifies a mapping key: plain integers become integer
// keys, everything else stays a string.
func keyValue(sc scalar) serde.AnyValue {
	if sc.plain() {
		if i, err := parseInt(sc.text, 64); err == nil {
			return serde.Signed(i, serde.Width8)
		}
	}
	return serde.Str(sc.text)
}

func (r *reader) StartSeq() (serde.SeqAccess, error) {
	c, ok := r.peekContent()
	if !ok {
		return &blockSeqAccess{r: r, closed: true, parentLvl: r.lvl}, nil
	}
	if c == '[' {
		if r.inFlow() {
			r.skipFlowWS()
		} else if !r.toContent() {
			return &blockSeqAccess{r: r, closed: true, parentLvl: r.lvl}, nil
		}
		r.buf.Pop()
		return &flowSeqAccess{r: r, first: true, savedCtx: r.setCtx(ctxFlowIn)}, nil
	}
	return &blockSeqAccess{r: r, itemIndent: -1, parentLvl: r.lvl}, nil
}

func (r *reader) StartTuple(int) (serde.SeqAccess, error) {
	return r.StartSeq()
}

func (r *reader) StartMap() (serde.MapAccess, error) {
	c, ok := r.peekContent()
	if !ok {
		return &blockMapAccess{r: r, closed: true, keyIndent: -1, parentLvl: r.lvl}, nil
	}
	if c == '{' {
		if r.inFlow() {
			r.skipFlowWS()
		} else if !r.toContent() {
			return &blockMapAccess{r: r, closed: true, keyIndent: -1, parentLvl: r.lvl}, nil
		}
		r.buf.Pop()
		return &flowMapAccess{r: r, first: true, savedCtx: r.setCtx(ctxFlowIn)}, nil
	}
	return &blockMapAccess{r: r, keyIndent: -1, parentLvl: r.lvl}, nil
}

func (r *reader) StartStruct(string, []string) (serde.MapAccess, error) {
	return r.StartMap()
}

// setCtx switches the context and returns the previous one.
func (r *reader) setCtx(ctx ctxKind) ctxKind {
	old := r.ctx
	r.ctx = ctx
	return old
}

type blockSeqAccess struct {
	r          *reader
	itemIndent int // -1 until the first item
	parentLvl  int
	closed     bool
	primed     bool // cursor already sits on the dash
}

func (a *blockSeqAccess) SizeHint() int { return -1 }

func (a *blockSeqAccess) Element() (serde.Deserializer, bool, error) {
	if a.closed {
		return nil, false, nil
	}
	if a.primed {
		a.primed = false
		return a.consumeDash()
	}

	indent, inline, ok, err := a.r.nextEntry(a.itemIndent == -1)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		a.close()
		return nil, false, nil
	}
	if a.itemIndent == -1 {
		if !inline && indent < a.parentLvl {
			a.close()
			return nil, false, nil
		}
		a.itemIndent = indent
	} else {
		if indent < a.itemIndent {
			a.close()
			return nil, false, nil
		}
		if indent > a.itemIndent {
			return nil, false, &serde.SyntaxError{
				Expected: "sequence item at indent " + strconv.Itoa(a.itemIndent),
				Found:    "indent " + strconv.Itoa(indent),
				Line:     a.r.buf.Line(),
				Column:   a.r.buf.Column(),
			}
		}
	}

	// the dash decides whether this line is still ours; a sibling
	// mapping key at the same indent ends the sequence
	skip := 0
	if !inline {
		skip = indent
	}
	c, k := a.r.buf.PeekAt(skip)
	if !k || c != '-' || !a.boundaryAt(skip+1) {
		a.close()
		return nil, false, nil
	}
	a.r.buf.Skip(skip)
	return a.consumeDash()
}

func (a *blockSeqAccess) boundaryAt(n int) bool {
	c, ok := a.r.buf.PeekAt(n)
	return !ok || c == ' ' || c == '\n'
}

// consumeDash eats the dash plus one following space and hands the
// reader out for the item value.
func (a *blockSeqAccess) consumeDash() (serde.Deserializer, bool, error) {
	a.r.buf.Pop() // '-'
	if c, ok := a.r.buf.Peek(); ok && c == ' ' {
		a.r.buf.Pop()
	}
	a.r.lvl = a.itemIndent
	a.r.ctx = ctxBlockIn
	return a.r, true, nil
}

func (a *blockSeqAccess) close() {
	a.closed = true
	a.r.lvl = a.parentLvl
}

func (a *blockSeqAccess) End() error {
	a.close()
	return nil
}

type blockMapAccess struct {
	r         *reader
	keyIndent int // -1 until the first key
	parentLvl int
	firstKey  *serde.AnyValue // pre-parsed key (ReadAny sniffing)
	closed    bool
	pending   bool
}

func (a *blockMapAccess) Key(k *serde.AnyValue) (bool, error) {
	if a.closed {
		return false, nil
	}
	if a.firstKey != nil {
		*k = *a.firstKey
		a.firstKey = nil
		a.pending = true
		return true, nil
	}

	indent, inline, ok, err := a.r.nextEntry(a.keyIndent == -1)
	if err != nil {
		return false, err
	}
	if !ok {
		a.close()
		return false, nil
	}
	if a.keyIndent == -1 {
		if !inline && indent <= a.parentLvl {
			a.close()
			return false, nil
		}
		a.keyIndent = indent
	} else {
		if indent < a.keyIndent {
			a.close()
			return false, nil
		}
		if indent > a.keyIndent {
			return false, &serde.SyntaxError{
				Expected: "mapping key at indent " + strconv.Itoa(a.keyIndent),
				Found:    "indent " + strconv.Itoa(indent),
				Line:     a.r.buf.Line(),
				Column:   a.r.buf.Column(),
			}
		}
	}
	if !inline {
		a.r.buf.Skip(indent)
	}

	saved := a.r.setCtx(ctxBlockKey)
	sc, err := a.r.readScalar()
	a.r.ctx = saved
	if err != nil {
		return false, err
	}
	a.r.skipSpace()
	if err := a.r.expect(':', "':' after mapping key"); err != nil {
		return false, err
	}
	*k = keyValue(sc)
	a.pending = true
	return true, nil
}

func (a *blockMapAccess) Value() (serde.Deserializer, error) {
	if !a.pending {
		return nil, serde.NewTypeError("mapping value", "no pending key")
	}
	a.pending = false
	a.r.lvl = a.keyIndent
	a.r.ctx = ctxBlockIn
	return a.r, nil
}

func (a *blockMapAccess) IgnoreValue() error {
	d, err := a.Value()
	if err != nil {
		return err
	}
	return d.ReadIgnore()
}

func (a *blockMapAccess) close() {
	a.closed = true
	a.r.lvl = a.parentLvl
}

func (a *blockMapAccess) End() error {
	a.close()
	return nil
}

type flowSeqAccess struct {
	r        *reader
	first    bool
	closed   bool
	savedCtx ctxKind
}

func (a *flowSeqAccess) SizeHint() int { return -1 }

func (a *flowSeqAccess) Element() (serde.Deserializer, bool, error) {
	if a.closed {
		return nil, false, nil
	}
	a.r.skipFlowWS()
	c, ok := a.r.buf.Peek()
	if !ok {
		return nil, false, errors.Wrap(serde.ErrUnexpectedEnd, "inside flow sequence")
	}
	if c == ']' {
		a.r.buf.Pop()
		a.finish()
		return nil, false, nil
	}
	if !a.first {
		if c != ',' {
			return nil, false, a.r.syntaxErr("',' or ']'")
		}
		a.r.buf.Pop()
		a.r.skipFlowWS()
		if c, ok := a.r.buf.Peek(); ok && c == ']' {
			a.r.buf.Pop()
			a.finish()
			return nil, false, nil
		}
	}
	a.first = false
	a.r.ctx = ctxFlowIn
	return a.r, true, nil
}

func (a *flowSeqAccess) finish() {
	a.closed = true
	a.r.ctx = a.savedCtx
}

func (a *flowSeqAccess) End() error {
	if a.closed {
		return nil
	}
	a.r.skipFlowWS()
	if err := a.r.expect(']', "']'"); err != nil {
		return err
	}
	a.finish()
	return nil
}

type flowMapAccess struct {
	r        *reader
	first    bool
	closed   bool
	pending  bool
	savedCtx ctxKind
}

func (a *flowMapAccess) Key(k *serde.AnyValue) (bool, error) {
	if a.closed {
		return false, nil
	}
	a.r.skipFlowWS()
	c, ok := a.r.buf.Peek()
	if !ok {
		return false, errors.Wrap(serde.ErrUnexpectedEnd, "inside flow mapping")
	}
	if c == '}' {
		a.r.buf.Pop()
		a.finish()
		return false, nil
	}
	if !a.first {
		if c != ',' {
			return false, a.r.syntaxErr("',' or '}'")
		}
		a.r.buf.Pop()
		a.r.skipFlowWS()
		if c, ok := a.r.buf.Peek(); ok && c == '}' {
			a.r.buf.Pop()
			a.finish()
			return false, nil
		}
	}
	a.first = false

	saved := a.r.setCtx(ctxFlowKey)
	sc, err := a.r.readScalar()
	a.r.ctx = saved
	if err != nil {
		return false, err
	}
	a.r.skipFlowWS()
	if err := a.r.expect(':', "':' after flow mapping key"); err != nil {
		return false, err
	}
	*k = keyValue(sc)
	a.pending = true
	return true, nil
}

func (a *flowMapAccess) Value() (serde.Deserializer, error) {
	if !a.pending {
		return nil, serde.NewTypeError("mapping value", "no pending key")
	}
	a.pending = false
	a.r.ctx = ctxFlowIn
	return a.r, nil
}

func (a *flowMapAccess) IgnoreValue() error {
	d, err := a.Value()
	if err != nil {
		return err
	}
	return d.ReadIgnore()
}

func (a *flowMapAccess) finish() {
	a.closed = true
	a.r.ctx = a.savedCtx
}

func (a *flowMapAccess) End() error {
	if a.closed {
		return nil
	}
	a.r.skipFlowWS()
	if err := a.r.expect('}', "'}'"); err != nil {
		return err
	}
	a.finish()
	return nil
}

// used by the codec entry points to detect a clean end of input
func (r *reader) atEnd() bool {
	_, ok := r.peekContent()
	return !ok
}
