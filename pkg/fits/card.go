package fits

import (
	"fmt"
	"strings"

	"github.com/stelladrift/fits/pkg/common"
)

// Card is one fixed-width header record. The concrete variants form a closed
// set dispatched at decode time: RawCard for END, blank and unrecognized
// records, CommentCard for COMMENT/HISTORY free text, and ValueCard for
// keyword-value records.
type Card interface {
	// Keyword returns the upper-cased keyword with trailing spaces removed.
	Keyword() string

	// Modified reports whether the card's backing bytes have been
	// rewritten since it was decoded from disk.
	Modified() bool

	// Bytes returns the exact 80-byte rendering of the card.
	Bytes() []byte

	// String returns the fixed 80-character rendering.
	String() string

	isCard()
}

// DecodeCard builds the concrete card variant for one 80-byte record.
func DecodeCard(record []byte) (Card, error) {
	if len(record) != common.CardSize {
		return nil, fmt.Errorf("card record is %d bytes, want %d", len(record), common.CardSize)
	}

	raw := make([]byte, common.CardSize)
	copy(raw, record)

	keyword := strings.ToUpper(strings.TrimRight(string(raw[:common.KeywordWidth]), " "))

	switch keyword {
	case common.KeywordComment, common.KeywordHistory:
		return &CommentCard{
			keyword: keyword,
			text:    strings.TrimRight(string(raw[common.KeywordWidth:]), " "),
			raw:     raw,
		}, nil
	}

	if string(raw[common.KeywordWidth:common.KeywordWidth+2]) == common.ValueIndicator {
		return decodeValueCard(keyword, raw)
	}

	return &RawCard{keyword: keyword, raw: raw}, nil
}

func normalizeKeyword(keyword string) (string, error) {
	keyword = strings.ToUpper(strings.TrimRight(keyword, " "))
	if len(keyword) > common.KeywordWidth {
		return "", fmt.Errorf("keyword %q exceeds %d characters", keyword, common.KeywordWidth)
	}
	for i := 0; i < len(keyword); i++ {
		if keyword[i] < 0x20 || keyword[i] > 0x7e {
			return "", fmt.Errorf("keyword %q contains a non-printable character", keyword)
		}
	}
	return keyword, nil
}

func padKeyword(keyword string) string {
	return fmt.Sprintf("%-*s", common.KeywordWidth, keyword)
}

// RawCard carries no structured value; everything past the keyword is opaque.
type RawCard struct {
	keyword  string
	raw      []byte
	modified bool
}

// NewRawCard builds a bare-keyword card, END being the usual case.
func NewRawCard(keyword string) (*RawCard, error) {
	keyword, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}

	raw := []byte(fmt.Sprintf("%-*s", common.CardSize, padKeyword(keyword)))
	return &RawCard{keyword: keyword, raw: raw, modified: true}, nil
}

func (c *RawCard) Keyword() string { return c.keyword }
func (c *RawCard) Modified() bool  { return c.modified }
func (c *RawCard) Bytes() []byte   { return c.raw }
func (c *RawCard) String() string  { return string(c.raw) }
func (c *RawCard) isCard()         {}

// CommentCard is a COMMENT or HISTORY record: 72 bytes of free text.
type CommentCard struct {
	keyword  string
	text     string
	raw      []byte
	dirty    bool
	modified bool
}

func NewCommentCard(keyword, text string) (*CommentCard, error) {
	keyword, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}
	if keyword != common.KeywordComment && keyword != common.KeywordHistory {
		return nil, fmt.Errorf("keyword %q is not %s or %s", keyword, common.KeywordComment, common.KeywordHistory)
	}

	return &CommentCard{keyword: keyword, text: text, dirty: true, modified: true}, nil
}

func (c *CommentCard) Keyword() string { return c.keyword }
func (c *CommentCard) Modified() bool  { return c.modified }

func (c *CommentCard) Text() string { return c.text }

func (c *CommentCard) SetText(text string) {
	c.text = text
	c.dirty = true
	c.modified = true
}

func (c *CommentCard) Bytes() []byte {
	if c.dirty || c.raw == nil {
		body := c.text
		if len(body) > common.CardSize-common.KeywordWidth {
			body = body[:common.CardSize-common.KeywordWidth]
		}
		c.raw = []byte(padKeyword(c.keyword) + fmt.Sprintf("%-*s", common.CardSize-common.KeywordWidth, body))
		c.dirty = false
	}
	return c.raw
}

func (c *CommentCard) String() string { return string(c.Bytes()) }
func (c *CommentCard) isCard()        {}

// ValueCard is a keyword = value record with optional units and comment.
// The 80-byte rendering is memoized and recomputed only after a mutation.
type ValueCard struct {
	keyword    string
	value      Value
	units      string
	hasUnits   bool
	comment    string
	hasComment bool
	raw        []byte
	dirty      bool
	modified   bool
}

func NewValueCard(keyword string, value Value) (*ValueCard, error) {
	keyword, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}

	switch value.Kind {
	case ValueBool, ValueInt, ValueFloat, ValueText:
	default:
		return nil, fmt.Errorf("%w: kind %d", common.ErrBadValueType, value.Kind)
	}

	return &ValueCard{keyword: keyword, value: value, dirty: true, modified: true}, nil
}

func decodeValueCard(keyword string, raw []byte) (*ValueCard, error) {
	c := &ValueCard{keyword: keyword, raw: raw}

	field := raw[common.KeywordWidth+len(common.ValueIndicator):]

	var commentary string
	if strings.HasPrefix(strings.TrimLeft(string(field), " "), "'") {
		text, rest, err := scanQuoted(string(field))
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", keyword, err)
		}
		c.value = TextValue(text)
		commentary = rest
	} else {
		fixed := strings.TrimSpace(string(raw[common.KeywordWidth+len(common.ValueIndicator) : common.KeywordWidth+len(common.ValueIndicator)+common.ValueFieldWidth]))
		value, err := parseValueField(fixed)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", keyword, err)
		}
		c.value = value
		commentary = string(raw[common.KeywordWidth+len(common.ValueIndicator)+common.ValueFieldWidth:])
	}

	units, hasUnits, comment, hasComment, err := parseCommentary(commentary)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", keyword, err)
	}
	c.units, c.hasUnits = units, hasUnits
	c.comment, c.hasComment = comment, hasComment

	return c, nil
}

// scanQuoted consumes an apostrophe-delimited value from the 70-byte field.
// A doubled apostrophe inside the quotes is a literal apostrophe. The
// returned rest is everything after the closing quote; only spaces may
// appear there before the commentary slash or the end of the field.
// Trailing spaces inside the quotes are padding and are not part of the
// value.
func scanQuoted(field string) (string, string, error) {
	start := strings.IndexByte(field, '\'')
	if start < 0 {
		return "", "", common.ErrMalformedString
	}

	var content strings.Builder
	i := start + 1
	closed := false
	for i < len(field) {
		if field[i] != '\'' {
			content.WriteByte(field[i])
			i++
			continue
		}
		if i+1 < len(field) && field[i+1] == '\'' {
			content.WriteByte('\'')
			i += 2
			continue
		}
		closed = true
		i++
		break
	}

	if !closed {
		return "", "", common.ErrMalformedString
	}

	rest := field[i:]
	for j := 0; j < len(rest); j++ {
		if rest[j] == '/' {
			break
		}
		if rest[j] != ' ' {
			return "", "", common.ErrMalformedString
		}
	}

	return strings.TrimRight(content.String(), " "), rest, nil
}

// parseCommentary splits the text after the value field into units and
// comment: a leading slash marker, then an optional [units] bracket, then
// the comment proper.
func parseCommentary(s string) (units string, hasUnits bool, comment string, hasComment bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false, "", false, nil
	}

	if strings.HasPrefix(s, "/") {
		s = strings.TrimLeft(s[1:], " ")
	}

	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", false, "", false, common.ErrMalformedUnits
		}
		units = s[1:end]
		hasUnits = true
		s = strings.TrimSpace(s[end+1:])
	}

	if s != "" {
		comment = s
		hasComment = true
	}

	return units, hasUnits, comment, hasComment, nil
}

func (c *ValueCard) Keyword() string { return c.keyword }
func (c *ValueCard) Modified() bool  { return c.modified }

func (c *ValueCard) Value() Value { return c.value }

func (c *ValueCard) Units() (string, bool) {
	return c.units, c.hasUnits
}

func (c *ValueCard) Comment() (string, bool) {
	return c.comment, c.hasComment
}

func (c *ValueCard) SetValue(value Value) error {
	switch value.Kind {
	case ValueBool, ValueInt, ValueFloat, ValueText:
	default:
		return fmt.Errorf("%w: kind %d", common.ErrBadValueType, value.Kind)
	}
	c.value = value
	c.dirty = true
	c.modified = true
	return nil
}

func (c *ValueCard) SetUnits(units string) {
	c.units = units
	c.hasUnits = true
	c.dirty = true
	c.modified = true
}

func (c *ValueCard) ClearUnits() {
	c.units = ""
	c.hasUnits = false
	c.dirty = true
	c.modified = true
}

func (c *ValueCard) SetComment(comment string) {
	c.comment = comment
	c.hasComment = true
	c.dirty = true
	c.modified = true
}

func (c *ValueCard) ClearComment() {
	c.comment = ""
	c.hasComment = false
	c.dirty = true
	c.modified = true
}

// AsInt returns the value as an integer, failing for any other kind.
func (c *ValueCard) AsInt() (int64, error) {
	if c.value.Kind != ValueInt {
		return 0, fmt.Errorf("card %s does not hold an integer value", c.keyword)
	}
	return c.value.Int, nil
}

func (c *ValueCard) Bytes() []byte {
	if c.dirty || c.raw == nil {
		body := formatValue(c.value)
		if c.hasUnits || c.hasComment {
			body += " / "
			if c.hasUnits {
				body += "[" + c.units + "] "
			}
			body += c.comment
		}

		field := common.ValueIndicator + body
		width := common.CardSize - common.KeywordWidth
		if len(field) > width {
			field = field[:width]
		}
		c.raw = []byte(padKeyword(c.keyword) + fmt.Sprintf("%-*s", width, field))
		c.dirty = false
	}
	return c.raw
}

func (c *ValueCard) String() string { return string(c.Bytes()) }
func (c *ValueCard) isCard()        {}
