package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markdown citation and link",
			in:   "**Hi** there【4:0†note.txt】 [link](http://x)",
			want: "Hi there link",
		},
		{
			name: "plain text unchanged",
			in:   "just a normal sentence",
			want: "just a normal sentence",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "italic and inline code",
			in:   "*emphasis* plus `code` here",
			want: "emphasis plus code here",
		},
		{
			name: "lists and headings",
			in:   "# Title\n1. first\n- second\n• third",
			want: "Title first second third",
		},
		{
			name: "code block dropped",
			in:   "before ```package main``` after",
			want: "before after",
		},
		{
			name: "blockquote and whitespace collapse",
			in:   "> quoted\n\n\tlots   of    space",
			want: "quoted lots of space",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanResponse(tt.in); got != tt.want {
				t.Errorf("CleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateBoundsToRunes(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("é", 300) // multi-byte on purpose

	got := Truncate(long, 280)
	if n := utf8.RuneCountInString(got); n != 280 {
		t.Errorf("truncated reply is %d runes, want exactly 280", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated reply does not end in ellipsis: %q", got[len(got)-12:])
	}
	if !strings.HasPrefix(got, strings.Repeat("é", 277)) {
		t.Error("truncation did not keep the first 277 runes intact")
	}
}

func TestTruncateLeavesShortTextAlone(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", "short", strings.Repeat("x", 280)} {
		if got := Truncate(s, 280); got != s {
			t.Errorf("Truncate(%q) = %q, want unchanged", s, got)
		}
	}
}
