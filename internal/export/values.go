package export

// Values converts the context into the generic tree the template renderer
// walks. Keys use the names templates refer to.
func (c Context) Values() map[string]interface{} {
	window := map[string]interface{}{
		"id":        c.Window.ID,
		"title":     c.Window.Title,
		"focused":   c.Window.Focused,
		"incognito": c.Window.Incognito,
	}

	groups := make([]interface{}, len(c.Groups))
	for i, g := range c.Groups {
		groups[i] = g.values(window)
	}

	return map[string]interface{}{
		"frontmatter": c.Frontmatter,
		"export": map[string]interface{}{
			"timestamp": c.Export.ISO,
			"filename":  c.Export.Filename,
			"localDate": c.Export.LocalDate,
			"localTime": c.Export.LocalTime,
			"tabCount":  c.Export.TabCount,
		},
		"window":        window,
		"tabs":          tabValues(c.Tabs, window),
		"groups":        groups,
		"ungroupedTabs": tabValues(c.UngroupedTabs, window),
	}
}

// Every tab shares the window mapping so templates can reach it from
// inside a tab section.
func tabValues(ts []Tab, window map[string]interface{}) []interface{} {
	out := make([]interface{}, len(ts))
	for i, t := range ts {
		v := t.values()
		v["window"] = window
		out[i] = v
	}
	return out
}

func (r GroupRef) values() map[string]interface{} {
	return map[string]interface{}{
		"id":        r.ID,
		"title":     r.Title,
		"color":     r.Color,
		"collapsed": r.Collapsed,
	}
}

func (g Group) values(window map[string]interface{}) map[string]interface{} {
	v := g.GroupRef.values()
	v["tabs"] = tabValues(g.Tabs, window)
	v["tabCount"] = len(g.Tabs)
	return v
}

func (t Tab) values() map[string]interface{} {
	var group, groupID interface{}
	if t.Group != nil {
		group = t.Group.values()
		groupID = t.Group.ID
	}

	return map[string]interface{}{
		"id":          t.ID,
		"index":       t.Index,
		"position":    t.Position,
		"title":       t.Title,
		"url":         t.URL,
		"hostname":    t.Hostname,
		"domain":      t.Domain,
		"origin":      t.Origin,
		"protocol":    t.Protocol,
		"pathname":    t.Pathname,
		"search":      t.Search,
		"hash":        t.Hash,
		"favicon":     t.Favicon,
		"pinned":      t.Pinned,
		"active":      t.Active,
		"highlighted": t.Highlighted,
		"audible":     t.Audible,
		"muted":       t.Muted,
		"discarded":   t.Discarded,
		"incognito":   t.Incognito,
		"windowId":    t.WindowID,
		"groupId":     groupID,
		"group":       group,
		"timestamps": map[string]interface{}{
			"lastAccessed":         t.LastAccessed,
			"lastAccessedRelative": t.LastAccessedRelative,
		},
	}
}
