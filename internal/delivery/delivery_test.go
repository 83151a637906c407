package delivery

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/obsidian"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type recordingOpener struct {
	uris []string
	err  error
}

func (o *recordingOpener) open(_ context.Context, uri string) error {
	o.uris = append(o.uris, uri)
	return o.err
}

func testDoc() Document {
	return Document{
		Markdown:  "---\ntab_count: 1\n---\n## A\n",
		Timestamp: export.Timestamp{Filename: "2024-03-05T10-04-05"},
	}
}

func newTestDeliverer(t *testing.T, note obsidian.Target) (*Deliverer, *fakeClipboard, *recordingOpener) {
	t.Helper()
	d := New(t.TempDir(), note, nil)
	clip := &fakeClipboard{}
	opener := &recordingOpener{}
	d.Clipboard = clip
	d.Open = opener.open
	return d, clip, opener
}

func TestParseTarget(t *testing.T) {
	got, err := ParseTarget(" Obsidian ")
	require.NoError(t, err)
	assert.Equal(t, TargetObsidian, got)

	_, err = ParseTarget("printer")
	require.Error(t, err)
	assert.Equal(t, tserrors.ErrCodeConfigInvalid, tserrors.GetCode(err))
}

func TestDeliverFile(t *testing.T) {
	d, _, _ := newTestDeliverer(t, obsidian.Target{})
	d.OutputDir = filepath.Join(d.OutputDir, "exports")

	out, err := d.Deliver(context.Background(), TargetFile, testDoc())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.OutputDir, "2024-03-05T10-04-05_OpenTabs.md"), out.Path)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, testDoc().Markdown, string(data))
}

func TestDeliverStdoutAndClipboard(t *testing.T) {
	d, clip, _ := newTestDeliverer(t, obsidian.Target{})
	var stdout bytes.Buffer
	d.Stdout = &stdout

	_, err := d.Deliver(context.Background(), TargetStdout, testDoc())
	require.NoError(t, err)
	assert.Equal(t, testDoc().Markdown, stdout.String())

	_, err = d.Deliver(context.Background(), TargetClipboard, testDoc())
	require.NoError(t, err)
	assert.Equal(t, testDoc().Markdown, clip.text)

	clip.err = errors.New("no display")
	_, err = d.Deliver(context.Background(), TargetClipboard, testDoc())
	require.Error(t, err)
	assert.Equal(t, tserrors.ErrCodeDeliveryFailed, tserrors.GetCode(err))
}

func TestDeliverNote(t *testing.T) {
	note := obsidian.Target{Vault: "My Vault", NotePath: "tabs/{timestamp}.md"}
	d, clip, opener := newTestDeliverer(t, note)

	out, err := d.Deliver(context.Background(), TargetObsidian, testDoc())
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, testDoc().Markdown, clip.text)
	require.Len(t, opener.uris, 1)
	assert.Equal(t, opener.uris[0], out.URI)
	assert.Contains(t, out.URI, "file=tabs%2F2024-03-05T10-04-05.md")
	assert.Contains(t, out.URI, "vault=My%20Vault")
	assert.Contains(t, out.URI, "clipboard=true")
}

func TestDeliverNoteWithoutClipboard(t *testing.T) {
	note := obsidian.Target{Vault: "v", NotePath: "a.md"}
	d, clip, opener := newTestDeliverer(t, note)
	clip.err = errors.New("unsupported")

	out, err := d.Deliver(context.Background(), TargetObsidian, testDoc())
	require.NoError(t, err)
	require.Len(t, opener.uris, 1)
	assert.NotContains(t, opener.uris[0], "clipboard=")
	assert.Contains(t, out.URI, "content=")
}

func TestDeliverNoteFallsBackToFile(t *testing.T) {
	note := obsidian.Target{Vault: "v", NotePath: "a.md"}

	t.Run("opener fails", func(t *testing.T) {
		d, _, opener := newTestDeliverer(t, note)
		opener.err = errors.New("no handler")

		out, err := d.Deliver(context.Background(), TargetObsidian, testDoc())
		require.NoError(t, err)
		assert.True(t, out.Fallback)
		assert.Equal(t, TargetFile, out.Target)
		require.Error(t, out.Reason)
		assert.FileExists(t, out.Path)
	})

	t.Run("uri too long without clipboard", func(t *testing.T) {
		d, clip, opener := newTestDeliverer(t, note)
		clip.err = errors.New("unsupported")
		doc := testDoc()
		doc.Markdown = strings.Repeat("x", obsidian.MaxURILength)

		out, err := d.Deliver(context.Background(), TargetObsidian, doc)
		require.NoError(t, err)
		assert.True(t, out.Fallback)
		assert.Empty(t, opener.uris)
		assert.Equal(t, tserrors.ErrCodeURITooLong, tserrors.GetCode(out.Reason))
	})
}

func TestDeliverNoteRequiresVault(t *testing.T) {
	d, _, _ := newTestDeliverer(t, obsidian.Target{})
	_, err := d.Deliver(context.Background(), TargetObsidian, testDoc())
	require.Error(t, err)
	assert.Equal(t, tserrors.ErrCodeVaultInvalid, tserrors.GetCode(err))
}
