package obsidian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

func TestSanitizeNotePath(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"  ", ""},
		{"notes/today", "notes/today.md"},
		{`notes\\sub\\file.MD`, "notes/sub/file.MD"},
		{" a / b //c.md ", "a/b/c.md"},
		{"../escape.md", ""},
		{"a/./b.md", ""},
		{"a/..", ""},
		{"a/..b.md", "a/..b.md"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeNotePath(tt.in))
		})
	}
}

func TestApplyNotePath(t *testing.T) {
	got := ApplyNotePath("exports/{timestamp}/tabs-{timestamp}.md", "2024-03-05T10-04-05")
	assert.Equal(t, "exports/2024-03-05T10-04-05/tabs-2024-03-05T10-04-05.md", got)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		vault    string
		notePath string
		expected Target
		code     string
	}{
		{name: "not configured", expected: Target{}},
		{name: "default note path", vault: "My Vault", expected: Target{Vault: "My Vault", NotePath: DefaultNotePath}},
		{name: "normalised path", vault: "v", notePath: ` inbox \ {timestamp}.md`, expected: Target{Vault: "v", NotePath: "inbox/{timestamp}.md"}},
		{name: "missing vault", notePath: "a.md", code: tserrors.ErrCodeVaultInvalid},
		{name: "bad vault", vault: "my/vault", code: tserrors.ErrCodeVaultInvalid},
		{name: "vault starting with space", vault: " ", notePath: "a.md", code: tserrors.ErrCodeVaultInvalid},
		{name: "missing extension", vault: "v", notePath: "notes/today", code: tserrors.ErrCodeNotePathInvalid},
		{name: "traversal", vault: "v", notePath: "../a.md", code: tserrors.ErrCodeNotePathInvalid},
		{name: "bad characters", vault: "v", notePath: "notes/what?.md", code: tserrors.ErrCodeNotePathInvalid},
		{name: "only slashes", vault: "v", notePath: "///", code: tserrors.ErrCodeNotePathInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.vault, tt.notePath)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, tserrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.vault != "", got.Enabled())
		})
	}
}
