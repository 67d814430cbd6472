package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "windows_line_endings_unified",
			input: "first line\r\nsecond line\rthird line",
			want:  "first line\nsecond line\nthird line",
		},
		{
			name:  "multiple_spaces_collapsed",
			input: "too    many     spaces",
			want:  "too many spaces",
		},
		{
			name:  "blank_line_runs_collapsed",
			input: "para one\n\n\n\n\npara two",
			want:  "para one\n\npara two",
		},
		{
			name:  "page_number_lines_removed",
			input: "content\nPage 12\n42\n1/10\n- 3 -\nmore content",
			want:  "content\nmore content",
		},
		{
			name:  "cjk_page_marker_removed",
			input: "内容\n第 5 页\n更多内容",
			want:  "内容\n更多内容",
		},
		{
			name:  "rule_lines_removed",
			input: "above\n----------\n__________\n==========\nbelow",
			want:  "above\nbelow",
		},
		{
			name:  "control_chars_stripped",
			input: "hel\x00lo\x1fworld",
			want:  "helloworld",
		},
		{
			name:  "nbsp_becomes_space",
			input: "a\u00a0b",
			want:  "a b",
		},
		{
			name:  "bom_and_zero_width_space_become_space",
			input: "\ufeffstart\u200bend",
			want:  "start end",
		},
		{
			name:  "surrounding_whitespace_trimmed",
			input: "  \n  body text  \n  ",
			want:  "body text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}
