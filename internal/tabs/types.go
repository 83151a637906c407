// Package tabs defines the browser records an export consumes (tabs, the
// window they belong to and tab groups) and the rules that decide which
// tabs take part in an export.
package tabs

// Tab is one browser tab as reported by the tabs API.
type Tab struct {
	// ID is the browser-assigned tab identifier
	ID int `json:"id"`
	// Index is the zero-based position of the tab in its window
	Index int `json:"index"`
	// Title is the page title, possibly percent-encoded or Markdown-escaped
	Title string `json:"title"`
	// URL is the page address; it may be empty for tabs still loading
	URL string `json:"url"`
	// FavIconURL is the favicon address, empty when unknown
	FavIconURL string `json:"favIconUrl,omitempty"`
	Pinned     bool   `json:"pinned,omitempty"`
	Active     bool   `json:"active,omitempty"`
	// Highlighted marks tabs that are part of the current selection
	Highlighted bool `json:"highlighted,omitempty"`
	Audible     bool `json:"audible,omitempty"`
	Muted       bool `json:"muted,omitempty"`
	Discarded   bool `json:"discarded,omitempty"`
	Incognito   bool `json:"incognito,omitempty"`
	WindowID    int  `json:"windowId,omitempty"`
	// GroupID is the tab group the tab belongs to. Nil or negative means
	// the tab is not grouped.
	GroupID *int `json:"groupId,omitempty"`
	// LastAccessed is milliseconds since the Unix epoch, zero when unknown
	LastAccessed float64 `json:"lastAccessed,omitempty"`
}

// Grouped reports whether the tab carries a usable group id.
func (t Tab) Grouped() bool {
	return t.GroupID != nil && *t.GroupID >= 0
}

// Window is the browser window the tabs were read from.
type Window struct {
	ID        int    `json:"id"`
	Title     string `json:"title,omitempty"`
	Focused   bool   `json:"focused,omitempty"`
	Incognito bool   `json:"incognito,omitempty"`
}

// Group is a tab group's metadata.
type Group struct {
	ID        int    `json:"id"`
	Title     string `json:"title,omitempty"`
	Color     string `json:"color,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty"`
	WindowID  int    `json:"windowId,omitempty"`
}

// Snapshot is everything an export reads from the browser at one moment.
type Snapshot struct {
	Window Window   `json:"window"`
	Tabs   []Tab    `json:"tabs"`
	Groups GroupSet `json:"groups,omitempty"`
}

// IntPtr returns a pointer to v, for building tabs with a group id.
func IntPtr(v int) *int {
	return &v
}
