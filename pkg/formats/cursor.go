package formats

import (
	"bytes"
	"math"

	numconv "github.com/tdewolff/parse/v2/strconv"
)

// Text cursor helpers. Every function takes a buffer and a position and
// never reads at or beyond len(b).

// IsEnd reports whether i is at or past the end of b.
func IsEnd(b []byte, i int) bool {
	return i >= len(b)
}

// IsLineEnd reports whether c terminates a line.
func IsLineEnd(c byte) bool {
	return c == '\n' || c == '\r' || c == '\f' || c == 0
}

// IsSpace reports whether c is a blank inside a line.
func IsSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// IsSpaceOrNewLine reports whether c is a blank or a line terminator.
func IsSpaceOrNewLine(c byte) bool {
	return IsSpace(c) || IsLineEnd(c)
}

// SkipLine advances past the next line terminator, then past any indentation
// of the following line. A "\r\n" pair counts as one terminator. line is
// incremented once per terminator consumed and may be nil.
func SkipLine(b []byte, i int, line *int) int {
	for !IsEnd(b, i) && !IsLineEnd(b[i]) {
		i++
	}
	if !IsEnd(b, i) {
		if b[i] == '\r' && i+1 < len(b) && b[i+1] == '\n' {
			i++
		}
		i++
		if line != nil {
			*line++
		}
	}
	for !IsEnd(b, i) && IsSpace(b[i]) {
		i++
	}
	return i
}

// NextWord returns the position of the next non-blank byte on the current
// line. It stops at a line terminator.
func NextWord(b []byte, i int) int {
	for !IsEnd(b, i) && IsSpace(b[i]) {
		i++
	}
	return i
}

// NextToken skips the token at i and the blanks following it.
func NextToken(b []byte, i int) int {
	i = WordEnd(b, i)
	return NextWord(b, i)
}

// WordEnd returns the position just after the run of non-blank bytes at i.
func WordEnd(b []byte, i int) int {
	for !IsEnd(b, i) && !IsSpaceOrNewLine(b[i]) {
		i++
	}
	return i
}

// CopyWord copies the next word into dst, truncating it to len(dst).
// It returns the number of bytes written and the position after the word.
func CopyWord(dst, b []byte, i int) (n, next int) {
	i = NextWord(b, i)
	end := WordEnd(b, i)
	n = copy(dst, b[i:end])
	return n, end
}

// CopyLine copies the rest of the current line into dst, truncating it to
// len(dst). A backslash directly before a line break joins the next line,
// emitting a single space in place of the break. The returned position is
// at the terminator that ended the line (or len(b)).
func CopyLine(dst, b []byte, i int) (n, next int) {
	continuation := false
	for ; !IsEnd(b, i); i++ {
		c := b[i]
		if c == '\\' {
			continuation = true
			continue
		}
		if c == '\n' || c == '\r' {
			if !continuation {
				break
			}
			if c == '\r' && i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			continuation = false
			c = ' '
		} else if continuation {
			// a backslash not followed by a break is kept verbatim
			if n < len(dst) {
				dst[n] = '\\'
				n++
			}
			continuation = false
		}
		if n < len(dst) {
			dst[n] = c
			n++
		}
	}
	return n, i
}

// GetName reads the remainder of the line at i as a name. Leading and
// trailing blanks are dropped; blanks inside the name are kept.
func GetName(b []byte, i int) (name string, next int) {
	i = NextWord(b, i)
	start := i
	for !IsEnd(b, i) && !IsLineEnd(b[i]) {
		i++
	}
	end := i
	for end > start && IsSpace(b[end-1]) {
		end--
	}
	return string(b[start:end]), i
}

// StripContinuations removes backslash line continuations, replacing each
// backslash + line break with a single space.
func StripContinuations(b []byte) []byte {
	var out []byte
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) && (b[i+1] == '\n' || b[i+1] == '\r') {
			if out == nil {
				out = make([]byte, 0, len(b))
				out = append(out, b[:i]...)
			}
			i++
			if b[i] == '\r' && i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			out = append(out, ' ')
			continue
		}
		if out != nil {
			out = append(out, b[i])
		}
	}
	if out == nil {
		return b
	}
	return out
}

// ParseFloat parses a real number literal at the start of b and returns it
// with the number of bytes consumed (0 on failure). It does not depend on
// the process locale and accepts nan and inf spellings.
func ParseFloat(b []byte) (float64, int) {
	if f, n := parseSpecialFloat(b); n > 0 {
		return f, n
	}
	return numconv.ParseFloat(b)
}

// ParseInt parses a signed decimal integer at the start of b and returns it
// with the number of bytes consumed (0 on failure).
func ParseInt(b []byte) (int64, int) {
	return numconv.ParseInt(b)
}

// ReadFloat parses the next word on the line at i as a float. Missing or
// malformed words yield 0.
func ReadFloat(b []byte, i int) (float32, int) {
	i = NextWord(b, i)
	end := WordEnd(b, i)
	f, _ := ParseFloat(b[i:end])
	return float32(f), end
}

func parseSpecialFloat(b []byte) (float64, int) {
	i := 0
	sign := 1.0
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		if b[i] == '-' {
			sign = -1
		}
		i++
	}
	switch {
	case hasPrefixFold(b[i:], "nan"):
		return math.NaN(), i + 3
	case hasPrefixFold(b[i:], "infinity"):
		return math.Inf(int(sign)), i + 8
	case hasPrefixFold(b[i:], "inf"):
		return math.Inf(int(sign)), i + 3
	}
	return 0, 0
}

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}
