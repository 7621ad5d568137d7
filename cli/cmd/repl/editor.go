package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/psheet/log"
	"github.com/ardnew/psheet/pkg"
	"github.com/ardnew/psheet/view"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It opens the sheet text in the
// user's editor and reloads it, offering to re-edit on error. Declining
// ends the session with [ErrEditDeclined].
type editCommand struct {
	ctx    context.Context
	text   string
	load   Loader
	logger log.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// results; view is nil when the edit was abandoned
	view    *view.View
	newText string
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-reload loop.
func (c *editCommand) Run() error {
	f, err := os.CreateTemp("", pkg.Name+"-repl-*"+pkg.SheetExt)
	if err != nil {
		return err
	}

	path := f.Name()
	f.Close()

	defer os.Remove(path)

	text := c.text

	for {
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return err
		}

		if err := runEditor(c.ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		// An emptied buffer abandons the edit.
		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		text = string(data)

		v, err := c.load(c.ctx, text)
		c.logger.TraceContext(c.ctx, "editor reload",
			slog.Int("content_length", len(text)),
			slog.Bool("success", err == nil))

		if err == nil {
			c.view, c.newText = v, text

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", err)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor edits path with $VISUAL, $EDITOR or vi.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	editor := defaultEditor

	for _, key := range []string{"VISUAL", "EDITOR"} {
		if e := strings.TrimSpace(os.Getenv(key)); e != "" {
			editor = e

			break
		}
	}

	args := append(strings.Fields(editor), path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
