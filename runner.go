package concord

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/concord/pkg/domain"
)

// ContentRenderer transforms a message before it is written, e.g. markdown
// to ANSI for a TUI. Keeping it a function avoids coupling the root
// package to any terminal library.
type ContentRenderer func(string) (string, error)

// Runner connects an Engine to line-oriented IO: agent messages go to
// Output, reviewer replies are read from Input. It implements the message
// channel the workflow blocks on, so a terminal session is just
// engine.Run with the runner as the channel.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	Prompt   string

	reader *bufio.Reader
}

// NewRunner creates a Runner. Input and Output must be set before Run
// (use os.Stdin / os.Stdout for a terminal).
func NewRunner() *Runner {
	return &Runner{Prompt: "> "}
}

// Send writes an agent or system message to the output.
func (r *Runner) Send(_ context.Context, msg domain.Message) error {
	content := msg.Content
	if r.Renderer != nil {
		if rendered, err := r.Renderer(content); err == nil {
			content = rendered
		}
	}
	if msg.Sender == domain.SenderSystem {
		_, err := fmt.Fprintf(r.Output, "[%s] %s\n", msg.Sender, strings.TrimSpace(content))
		return err
	}
	_, err := fmt.Fprintln(r.Output, strings.TrimSpace(content))
	return err
}

// Receive prompts and reads the reviewer's next line. Typing "exit" or
// "quit" (or closing the input) ends the conversation with io.EOF.
func (r *Runner) Receive(_ context.Context) (domain.Message, error) {
	if r.reader == nil {
		r.reader = bufio.NewReader(r.Input)
	}
	fmt.Fprint(r.Output, r.Prompt)
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return domain.Message{}, err
	}
	text := strings.TrimSpace(line)
	if text == "exit" || text == "quit" {
		return domain.Message{}, io.EOF
	}
	return domain.UserMessage(text), nil
}

// Run drives one session's workflow over this runner's IO. A reviewer
// hanging up (EOF or exit) is a graceful end, not an error; an exhausted
// budget is reported to the caller after the reviewer has already been
// told.
func (r *Runner) Run(ctx context.Context, engine *Engine, sessionID, opening string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	err := engine.Run(ctx, sessionID, r, opening)
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(r.Output, "Bye!")
		return nil
	}
	return err
}
