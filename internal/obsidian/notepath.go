package obsidian

import (
	"regexp"
	"strings"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

// DefaultNotePath is used when a vault is configured without a note path.
const DefaultNotePath = "tabSidian/tab-export-{timestamp}.md"

const timestampPlaceholder = "{timestamp}"

var (
	vaultPattern    = regexp.MustCompile(`^[\w-](?:[\w\- ]+)?$`)
	notePathAllowed = regexp.MustCompile(`^[a-zA-Z0-9 _\-/{}.]+$`)
	traversal       = regexp.MustCompile(`(^|/)(\.{1,2})(/|$)`)
)

func normalizeSlashes(p string) string {
	segments := strings.Split(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"), "/")
	kept := segments[:0]
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "/")
}

// SanitizeNotePath normalises separators, trims segments, drops empty ones
// and appends .md when missing. It returns "" for an empty path or one
// with . or .. segments.
func SanitizeNotePath(p string) string {
	s := normalizeSlashes(p)
	if s == "" || traversal.MatchString(s) {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(s), ".md") {
		s += ".md"
	}
	if traversal.MatchString(s) {
		return ""
	}
	return s
}

// ApplyNotePath substitutes every {timestamp} in notePath.
func ApplyNotePath(notePath, timestamp string) string {
	return strings.ReplaceAll(notePath, timestampPlaceholder, timestamp)
}

// Target is a validated vault and note path. The zero value means note
// delivery is not configured.
type Target struct {
	Vault    string
	NotePath string
}

// Enabled reports whether both parts are set.
func (t Target) Enabled() bool {
	return t.Vault != "" && t.NotePath != ""
}

// Resolve validates a vault and note path as entered by the user. Both
// empty yields the zero Target. A vault without a note path uses
// DefaultNotePath.
func Resolve(vault, notePath string) (Target, error) {
	vault = strings.TrimSpace(vault)
	notePath = strings.TrimSpace(notePath)

	if vault == "" && notePath == "" {
		return Target{}, nil
	}
	if vault == "" {
		return Target{}, invalidVault("vault name is required when a note path is set")
	}
	if !vaultPattern.MatchString(vault) {
		return Target{}, invalidVault("vault name may include letters, numbers, spaces, underscores and hyphens")
	}

	if notePath == "" {
		notePath = DefaultNotePath
	}
	normalized := normalizeSlashes(notePath)
	switch {
	case normalized == "":
		return Target{}, invalidNotePath(notePath, "provide a note path within the vault")
	case !strings.HasSuffix(strings.ToLower(normalized), ".md"):
		return Target{}, invalidNotePath(notePath, "note paths must end with .md")
	case traversal.MatchString(normalized):
		return Target{}, invalidNotePath(notePath, "note paths cannot traverse parent directories")
	case !notePathAllowed.MatchString(normalized):
		return Target{}, invalidNotePath(notePath,
			"note paths may only include letters, numbers, spaces, hyphens, underscores, slashes, dots and {timestamp}")
	}

	return Target{Vault: vault, NotePath: normalized}, nil
}

func invalidVault(msg string) error {
	return tserrors.NewValidationError(tserrors.ErrCodeVaultInvalid, msg)
}

func invalidNotePath(p, msg string) error {
	return tserrors.NewValidationError(tserrors.ErrCodeNotePathInvalid, msg).WithContext("note_path", p)
}
