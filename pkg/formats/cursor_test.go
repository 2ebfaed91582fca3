package formats

import (
	"math"
	"testing"
)

func TestSkipLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		start    int
		wantPos  int
		wantLine int
	}{
		{"lf", "v 1\nv 2", 0, 4, 1},
		{"crlf counts once", "v 1\r\nv 2", 0, 5, 1},
		{"skips indentation", "a\n \t b", 0, 5, 1},
		{"last line", "abc", 0, 3, 0},
		{"at end", "abc", 3, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := 0
			got := SkipLine([]byte(tt.input), tt.start, &line)
			if got != tt.wantPos {
				t.Errorf("SkipLine() pos = %d, want %d", got, tt.wantPos)
			}
			if line != tt.wantLine {
				t.Errorf("SkipLine() line = %d, want %d", line, tt.wantLine)
			}
		})
	}
}

func TestSkipLine_NilCounter(t *testing.T) {
	if got := SkipLine([]byte("x\ny"), 0, nil); got != 2 {
		t.Errorf("SkipLine() = %d, want 2", got)
	}
}

func TestNextWordAndToken(t *testing.T) {
	b := []byte("  usemtl  red\nnext")

	i := NextWord(b, 0)
	if i != 2 {
		t.Fatalf("NextWord() = %d, want 2", i)
	}
	i = NextToken(b, i)
	if string(b[i:WordEnd(b, i)]) != "red" {
		t.Errorf("NextToken() landed on %q, want red", b[i:WordEnd(b, i)])
	}

	// NextWord never crosses a line break
	end := WordEnd(b, i)
	if got := NextWord(b, end); b[got] != '\n' {
		t.Errorf("NextWord() crossed line break to %d", got)
	}
}

func TestCopyWord_Truncates(t *testing.T) {
	var dst [3]byte
	n, next := CopyWord(dst[:], []byte("  abcdef gh"), 0)
	if n != 3 || string(dst[:n]) != "abc" {
		t.Errorf("CopyWord() copied %q, want abc", dst[:n])
	}
	if next != 8 {
		t.Errorf("CopyWord() next = %d, want 8", next)
	}
}

func TestCopyLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		size     int
		want     string
		wantNext int
	}{
		{"plain", "1 2 3\nf", 64, "1 2 3", 5},
		{"continuation", "1 2 \\\n3\nf", 64, "1 2  3", 7},
		{"crlf continuation", "1 \\\r\n2\r\n", 64, "1  2", 6},
		{"stray backslash", "a\\b\n", 64, "a\\b", 3},
		{"truncated", "123456\n", 4, "1234", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.size)
			n, next := CopyLine(dst, []byte(tt.input), 0)
			if got := string(dst[:n]); got != tt.want {
				t.Errorf("CopyLine() = %q, want %q", got, tt.want)
			}
			if next != tt.wantNext {
				t.Errorf("CopyLine() next = %d, want %d", next, tt.wantNext)
			}
		})
	}
}

func TestGetName(t *testing.T) {
	name, next := GetName([]byte("  my material \t\nKd 1"), 0)
	if name != "my material" {
		t.Errorf("GetName() = %q, want %q", name, "my material")
	}
	if next != 15 {
		t.Errorf("GetName() next = %d, want 15", next)
	}

	if name, _ := GetName([]byte("   \n"), 0); name != "" {
		t.Errorf("GetName() on blank line = %q, want empty", name)
	}
}

func TestStripContinuations(t *testing.T) {
	in := []byte("f 1 2 \\\n3\n")
	if got := string(StripContinuations(in)); got != "f 1 2  3\n" {
		t.Errorf("StripContinuations() = %q", got)
	}

	// Buffers without continuations are returned as-is.
	plain := []byte("v 1 2 3\n")
	if got := StripContinuations(plain); &got[0] != &plain[0] {
		t.Error("StripContinuations() copied a buffer without continuations")
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		n     int
	}{
		{"1.5", 1.5, 3},
		{"-2", -2, 2},
		{"+0.25e2", 25, 7},
		{"3.0abc", 3, 3},
		{"abc", 0, 0},
		{"inf", math.Inf(1), 3},
		{"-Infinity", math.Inf(-1), 9},
		{"+INF", math.Inf(1), 4},
		{"in", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, n := ParseFloat([]byte(tt.input))
			if got != tt.want || n != tt.n {
				t.Errorf("ParseFloat(%q) = (%v, %d), want (%v, %d)", tt.input, got, n, tt.want, tt.n)
			}
		})
	}

	if f, n := ParseFloat([]byte("NaN")); !math.IsNaN(f) || n != 3 {
		t.Errorf("ParseFloat(NaN) = (%v, %d)", f, n)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		n     int
	}{
		{"12", 12, 2},
		{"-3", -3, 2},
		{"7/8", 7, 1},
		{"x", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, n := ParseInt([]byte(tt.input))
			if got != tt.want || n != tt.n {
				t.Errorf("ParseInt(%q) = (%d, %d), want (%d, %d)", tt.input, got, n, tt.want, tt.n)
			}
		})
	}
}

func TestReadFloat_MissingWord(t *testing.T) {
	f, next := ReadFloat([]byte("  \n1"), 0)
	if f != 0 || next != 2 {
		t.Errorf("ReadFloat() = (%v, %d), want (0, 2)", f, next)
	}
}
