package tabs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
)

// GroupSet indexes tab group metadata by group id. In JSON it is accepted
// either as an array of groups or as an object keyed by id.
type GroupSet map[int]Group

// UnmarshalJSON implements json.Unmarshaler.
func (gs *GroupSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*gs = nil
		return nil
	}

	set := GroupSet{}
	if data[0] == '[' {
		var list []Group
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		for _, g := range list {
			set[g.ID] = g
		}
		*gs = set
		return nil
	}

	var keyed map[string]Group
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}
	for key, g := range keyed {
		if g.ID == 0 {
			id, err := strconv.Atoi(key)
			if err != nil {
				return fmt.Errorf("group key %q is not an id", key)
			}
			g.ID = id
		}
		set[g.ID] = g
	}
	*gs = set
	return nil
}

// IDs returns the group ids in ascending order.
func (gs GroupSet) IDs() []int {
	ids := make([]int, 0, len(gs))
	for id := range gs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Decode reads a snapshot from r. The payload is either a snapshot object
// or a bare array of tabs, as returned by a tabs query.
func Decode(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, tserrors.WrapIO(err, tserrors.ErrCodeSnapshotInvalid, "reading snapshot")
	}
	return Parse(data)
}

// Parse decodes a snapshot payload held in memory.
func Parse(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, tserrors.NewValidationError(tserrors.ErrCodeSnapshotInvalid, "snapshot is empty")
	}

	if trimmed[0] == '[' {
		var list []Tab
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, tserrors.Wrap(err, tserrors.ErrorTypeValidation, tserrors.ErrCodeSnapshotInvalid, "decoding tab list")
		}
		return &Snapshot{Tabs: list}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, tserrors.Wrap(err, tserrors.ErrorTypeValidation, tserrors.ErrCodeSnapshotInvalid, "decoding snapshot")
	}
	if snap.Tabs == nil {
		return nil, tserrors.NewValidationError(tserrors.ErrCodeSnapshotInvalid, `snapshot has no "tabs" field`)
	}
	return &snap, nil
}

// Load reads a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tserrors.WrapIO(err, tserrors.ErrCodeFileNotFound, "reading snapshot file").
			WithLocation(path, 0, 0)
	}
	snap, err := Parse(data)
	if err != nil {
		var te *tserrors.TabsidianError
		if errors.As(err, &te) {
			te.FilePath = path
		}
		return nil, err
	}
	return snap, nil
}
