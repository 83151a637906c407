// Package export builds the template context for one export: per-tab
// derived fields, tab grouping, timestamps and the frontmatter block.
package export

import (
	"context"
	"time"

	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/tabs"
)

// Options configures Build. All fields are optional.
type Options struct {
	Window tabs.Window
	Groups tabs.GroupSet

	// Now returns the export time. Nil means time.Now.
	Now func() time.Time
	// Location is used for the local date and time. Nil means time.Local.
	Location *time.Location

	// Composer renders the frontmatter block. Nil uses default settings.
	Composer *frontmatter.Composer
}

// Context is the data a document template renders against.
type Context struct {
	Frontmatter   string
	Export        Info
	Window        Window
	Tabs          []Tab
	Groups        []Group
	UngroupedTabs []Tab
}

// Info describes the export itself.
type Info struct {
	Timestamp
	TabCount int
}

// Window mirrors the source window.
type Window struct {
	ID        int
	Title     string
	Focused   bool
	Incognito bool
}

// GroupRef is the group metadata attached to a grouped tab.
type GroupRef struct {
	ID        int
	Title     string
	Color     string
	Collapsed bool
}

// Group collects the tabs sharing one group id.
type Group struct {
	GroupRef
	Tabs []Tab
}

// Tab is one tab with its derived fields.
type Tab struct {
	ID int
	// Index is the browser position; Position is 1-based within the export.
	Index    int
	Position int
	Title    string
	URL      string
	URLParts
	Favicon     string
	Pinned      bool
	Active      bool
	Highlighted bool
	Audible     bool
	Muted       bool
	Discarded   bool
	Incognito   bool
	WindowID    int
	Group       *GroupRef

	// LastAccessed is ISO UTC, empty when unknown.
	LastAccessed         string
	LastAccessedRelative string
}

// Build derives the template context from list. Tabs keep their order;
// Groups and UngroupedTabs together hold every tab exactly once.
func Build(ctx context.Context, list []tabs.Tab, opts Options) (Context, Timestamp) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	at := now()
	ts := NewTimestamp(at, opts.Location)

	c := Context{
		Export: Info{Timestamp: ts, TabCount: len(list)},
		Window: Window{
			ID:        opts.Window.ID,
			Title:     opts.Window.Title,
			Focused:   opts.Window.Focused,
			Incognito: opts.Window.Incognito,
		},
		Tabs:          make([]Tab, 0, len(list)),
		Groups:        []Group{},
		UngroupedTabs: []Tab{},
	}

	groupIndex := map[int]int{}
	for i, raw := range list {
		t := buildTab(raw, i, at, opts.Groups)
		c.Tabs = append(c.Tabs, t)

		if t.Group == nil {
			c.UngroupedTabs = append(c.UngroupedTabs, t)
			continue
		}
		idx, ok := groupIndex[t.Group.ID]
		if !ok {
			idx = len(c.Groups)
			groupIndex[t.Group.ID] = idx
			c.Groups = append(c.Groups, Group{GroupRef: *t.Group})
		}
		c.Groups[idx].Tabs = append(c.Groups[idx].Tabs, t)
	}

	composer := opts.Composer
	if composer == nil {
		composer = frontmatter.NewComposer(frontmatter.Settings{}, nil)
	}
	c.Frontmatter = composer.Compose(ctx, frontmatter.Meta{
		ExportedAt: ts.ISO,
		Filename:   ts.Filename,
		LocalDate:  ts.LocalDate,
		LocalTime:  ts.LocalTime,
		TabCount:   len(list),
		Window:     opts.Window,
	})

	return c, ts
}

func buildTab(raw tabs.Tab, i int, now time.Time, groups tabs.GroupSet) Tab {
	t := Tab{
		ID:          raw.ID,
		Index:       raw.Index,
		Position:    i + 1,
		Title:       UnescapeTitle(raw.Title),
		URL:         raw.URL,
		URLParts:    ParseURL(raw.URL),
		Favicon:     raw.FavIconURL,
		Pinned:      raw.Pinned,
		Active:      raw.Active,
		Highlighted: raw.Highlighted,
		Audible:     raw.Audible,
		Muted:       raw.Muted,
		Discarded:   raw.Discarded,
		Incognito:   raw.Incognito,
		WindowID:    raw.WindowID,
	}

	if raw.Grouped() {
		id := *raw.GroupID
		ref := GroupRef{ID: id}
		if g, ok := groups[id]; ok {
			ref.Title = g.Title
			ref.Color = g.Color
			ref.Collapsed = g.Collapsed
		}
		t.Group = &ref
	}

	if raw.LastAccessed > 0 {
		if then, ok := FromMillis(raw.LastAccessed); ok {
			t.LastAccessed = FormatISO(then)
			t.LastAccessedRelative = Relative(then, now)
		}
	}
	return t
}
