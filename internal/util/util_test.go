package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDFromString(t *testing.T) {
	s := "abc"
	require.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", GetIDFromString(&s))
}

func TestFileBaseName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "workflow.json", want: "workflow"},
		{name: "/tmp/dir/My Flow (v2).json", want: "My-Flow-v2"},
		{name: `C:\exports\flow.json`, want: "flow"},
		{name: ".json", want: "docs"},
		{name: "", want: "docs"},
		{name: "тест.json", want: "docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FileBaseName(tt.name, "docs"))
		})
	}
}
