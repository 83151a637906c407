package export

import (
	"context"
	"time"

	"github.com/conneroisu/tabsidian/internal/frontmatter"
	"github.com/conneroisu/tabsidian/internal/tabs"
)

// SampleSnapshot is a small window used to preview templates without a
// browser.
func SampleSnapshot(now time.Time) tabs.Snapshot {
	ms := func(d time.Duration) float64 {
		return float64(now.Add(-d).UnixMilli())
	}
	return tabs.Snapshot{
		Window: tabs.Window{ID: 1, Title: "Research", Focused: true},
		Tabs: []tabs.Tab{
			{
				ID:           101,
				Index:        0,
				Title:        "Example Domain",
				URL:          "https://example.com/",
				FavIconURL:   "https://example.com/favicon.ico",
				Active:       true,
				Highlighted:  true,
				WindowID:     1,
				GroupID:      tabs.IntPtr(7),
				LastAccessed: ms(30 * time.Second),
			},
			{
				ID:           102,
				Index:        1,
				Title:        "The Go Programming Language",
				URL:          "https://go.dev/doc/effective_go#introduction",
				WindowID:     1,
				GroupID:      tabs.IntPtr(7),
				LastAccessed: ms(5 * time.Minute),
			},
			{
				ID:           103,
				Index:        2,
				Title:        "Search results",
				URL:          "https://www.bbc.co.uk/search?q=markdown",
				WindowID:     1,
				LastAccessed: ms(26 * time.Hour),
			},
		},
		Groups: tabs.GroupSet{
			7: {ID: 7, Title: "Reading", Color: "blue", WindowID: 1},
		},
	}
}

// SampleContext builds the context for SampleSnapshot at now using the
// given frontmatter composer, which may be nil.
func SampleContext(ctx context.Context, now time.Time, composer *frontmatter.Composer) Context {
	snap := SampleSnapshot(now)
	c, _ := Build(ctx, snap.Tabs, Options{
		Window:   snap.Window,
		Groups:   snap.Groups,
		Now:      func() time.Time { return now },
		Composer: composer,
	})
	return c
}
