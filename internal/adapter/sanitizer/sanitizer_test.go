package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripJSONCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "```json\n{}\n```", want: "{}"},
		{in: "```JSON {\"a\":1}```", want: `{"a":1}`},
		{in: "```\nplain\n```", want: "plain"},
		{in: "`json {\"a\":1}`", want: `{"a":1}`},
		{in: "json {\"a\":1}", want: `{"a":1}`},
		{in: "  text  ", want: "text"},
		{in: "json is fine", want: "json is fine"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, StripJSONCodeFence(tt.in), tt.in)
	}
}

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced json",
			in:   "```json\n{\"a\": \"We utilize it\"}\n```",
			want: `{"a": "We use it"}`,
		},
		{
			name: "version line",
			in:   "Intro line\r\nThis template was created in n8n v1.2.3\r\nEnd",
			want: "Intro line\n\nEnd",
		},
		{
			name: "filler phrases",
			in:   "Furthermore, it runs. In conclusion, done.",
			want: "it runs. done.",
		},
		{
			name: "plain words keep case",
			in:   "Utilization and leveraging. Implementation implements.",
			want: "Use and using. Setup sets up.",
		},
		{
			name: "whole words only",
			in:   "Reimplementation stays",
			want: "Reimplementation stays",
		},
		{
			name: "intensifiers",
			in:   "A very highly fast flow",
			want: "A fast flow",
		},
		{
			name: "whitespace",
			in:   "a\n\n\n\nb  \t c",
			want: "a\n\nb c",
		},
		{
			name: "repeated starters",
			in: "The workflow reads rows from sheets. The workflow sends emails to users. " +
				"The workflow writes logs to disk. The workflow updates a status field.",
			want: "The workflow reads rows from sheets. The workflow sends emails to users. " +
				"This workflow writes logs to disk. Update happens when a status field.",
		},
		{
			name: "lines kept",
			in:   "## Overview\n\nThe workflow runs daily. It reads rows.\n- item one\n- item two",
			want: "## Overview\n\nThe workflow runs daily. It reads rows.\n- item one\n- item two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, PostProcess(tt.in))
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "json keys",
			in:   "```json\n{**\"workflow_description\"**: \"x\", 'nodes_settings': \"y\"}\n```",
			want: `{"workflow_description": "x", "nodes_settings": "y"}`,
		},
		{
			name: "markdown",
			in:   "# Overview\nThis workflow syncs leads.\n• First\n• Second\n## Business Value saves time\n\n\n\nDone",
			want: "## Overview\n\nThis workflow syncs leads.\n\n- First\n- Second\n\n## Business Value\n\nsaves time\n\nDone\n",
		},
		{
			name: "plain heading",
			in:   "Key Features include retries\nother",
			want: "## Key Features\n\ninclude retries other\n",
		},
		{
			name: "bold line is not a bullet",
			in:   "**Type:** `x`",
			want: "**Type:** `x`\n",
		},
		{
			name: "invisible characters",
			in:   "a\u200bb\u2028 ",
			want: "ab\n",
		},
		{
			name: "tight heading",
			in:   "##overview\n\ntext",
			want: "## Overview\n\ntext\n",
		},
		{
			name: "indented list",
			in:   "Steps:\n   -   one\n - two",
			want: "Steps:\n\n- one\n- two\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestJoinHeadingFragments(t *testing.T) {
	require.Equal(t,
		[]string{"## Business Value", "text"},
		joinHeadingFragments([]string{"## Business Va", "lue", "text"}),
	)

	require.Equal(t,
		[]string{"## Sync Ord", "ers", "## Done"},
		joinHeadingFragments([]string{"## Sync O", "rd", "ers", "## Done"}),
	)

	require.Equal(t,
		[]string{"## Done.", "ok"},
		joinHeadingFragments([]string{"## Done.", "ok"}),
	)
}
