// Package delivery hands a rendered document to its destination: a file,
// stdout, the clipboard or a new note in the note app.
package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	tserrors "github.com/conneroisu/tabsidian/internal/errors"
	"github.com/conneroisu/tabsidian/internal/export"
	"github.com/conneroisu/tabsidian/internal/logging"
	"github.com/conneroisu/tabsidian/internal/obsidian"
)

// Target names a destination.
type Target string

const (
	TargetFile      Target = "file"
	TargetStdout    Target = "stdout"
	TargetClipboard Target = "clipboard"
	TargetObsidian  Target = "obsidian"
)

// ParseTarget accepts a target name, case-insensitively.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetFile, TargetStdout, TargetClipboard, TargetObsidian:
		return t, nil
	}
	return "", tserrors.NewConfigError(tserrors.ErrCodeConfigInvalid,
		fmt.Sprintf("unknown delivery target %q (want file, stdout, clipboard or obsidian)", s))
}

// Document is a rendered export.
type Document struct {
	Markdown  string
	Timestamp export.Timestamp
}

// Filename is the download name for doc.
func (doc Document) Filename() string {
	return doc.Timestamp.Filename + "_OpenTabs.md"
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Opener hands a URI to the operating system.
type Opener func(ctx context.Context, uri string) error

// Outcome reports where a document ended up.
type Outcome struct {
	Target Target
	// Path is set when the document was written to a file.
	Path string
	// URI is the note URI that was opened.
	URI string
	// Fallback is set when the requested target failed and the document
	// was written to a file instead; Reason holds the failure.
	Fallback bool
	Reason   error
}

// Deliverer routes documents. Zero-valued fields use the real system.
type Deliverer struct {
	OutputDir string
	Stdout    io.Writer
	Clipboard Clipboard
	Open      Opener
	Note      obsidian.Target
	logger    logging.Logger
}

// New creates a deliverer writing files to outputDir.
func New(outputDir string, note obsidian.Target, logger logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Deliverer{
		OutputDir: outputDir,
		Stdout:    os.Stdout,
		Clipboard: systemClipboard{},
		Open:      OpenURI,
		Note:      note,
		logger:    logger.WithComponent("delivery"),
	}
}

// Deliver sends doc to target. Note delivery that fails for any reason
// falls back to a file and reports the fallback in the outcome.
func (d *Deliverer) Deliver(ctx context.Context, target Target, doc Document) (Outcome, error) {
	switch target {
	case TargetFile:
		path, err := d.writeFile(doc)
		return Outcome{Target: TargetFile, Path: path}, err
	case TargetStdout:
		if _, err := io.WriteString(d.Stdout, doc.Markdown); err != nil {
			return Outcome{Target: target}, tserrors.WrapDelivery(err, tserrors.ErrCodeDeliveryFailed, "writing to stdout")
		}
		return Outcome{Target: target}, nil
	case TargetClipboard:
		if err := d.Clipboard.WriteAll(doc.Markdown); err != nil {
			return Outcome{Target: target}, tserrors.WrapDelivery(err, tserrors.ErrCodeDeliveryFailed, "copying to clipboard")
		}
		return Outcome{Target: target}, nil
	case TargetObsidian:
		return d.deliverNote(ctx, doc)
	}
	return Outcome{}, tserrors.NewConfigError(tserrors.ErrCodeConfigInvalid, fmt.Sprintf("unknown delivery target %q", target))
}

func (d *Deliverer) deliverNote(ctx context.Context, doc Document) (Outcome, error) {
	if !d.Note.Enabled() {
		return Outcome{Target: TargetObsidian}, tserrors.NewConfigError(tserrors.ErrCodeVaultInvalid,
			"note delivery needs obsidian.vault to be configured")
	}

	clipboardOK := true
	if err := d.Clipboard.WriteAll(doc.Markdown); err != nil {
		clipboardOK = false
		d.logger.Warn(ctx, err, "clipboard copy failed, inlining document in the note URI")
	}

	notePath := obsidian.ApplyNotePath(d.Note.NotePath, doc.Timestamp.Filename)
	uri, err := obsidian.Plan(doc.Markdown, clipboardOK, d.Note.Vault, notePath)
	if err == nil {
		err = d.Open(ctx, uri.URL)
		if err == nil {
			d.logger.Info(ctx, "opened note URI", "note_path", notePath, "uri_length", uri.Length, "clipboard", clipboardOK)
			return Outcome{Target: TargetObsidian, URI: uri.URL}, nil
		}
		err = tserrors.WrapDelivery(err, tserrors.ErrCodeDeliveryFailed, "opening note URI")
	}

	d.logger.Warn(ctx, err, "note delivery failed, writing a file instead", "note_path", notePath)
	path, ferr := d.writeFile(doc)
	if ferr != nil {
		return Outcome{Target: TargetFile, Fallback: true, Reason: err}, ferr
	}
	return Outcome{Target: TargetFile, Path: path, Fallback: true, Reason: err}, nil
}

func (d *Deliverer) writeFile(doc Document) (string, error) {
	dir := d.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", tserrors.WrapIO(err, tserrors.ErrCodeDeliveryFailed, "creating output directory").WithLocation(dir, 0, 0)
	}
	path := filepath.Join(dir, doc.Filename())
	if err := os.WriteFile(path, []byte(doc.Markdown), 0o644); err != nil {
		return "", tserrors.WrapIO(err, tserrors.ErrCodeDeliveryFailed, "writing export").WithLocation(path, 0, 0)
	}
	return path, nil
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available on %s", runtime.GOOS)
	}
	return clipboard.WriteAll(text)
}

// OpenURI opens uri with the platform's URL handler.
func OpenURI(ctx context.Context, uri string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", uri)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", uri)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.CommandContext(ctx, "xdg-open", uri)
	default:
		return fmt.Errorf("cannot open URIs on %s", runtime.GOOS)
	}
	return cmd.Start()
}
