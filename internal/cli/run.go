package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/presentation/tui"
	"github.com/aretw0/concord/pkg/domain"
)

// RunOptions configures one interactive negotiation session.
type RunOptions struct {
	// SessionID resumes an existing session when set; empty starts a
	// fresh one.
	SessionID string

	// Opening is the reviewer's first message.
	Opening string

	// Files are paths of CSV artifacts to register with a new session.
	Files []string

	// Docs are paths of markdown or text documents to attach as
	// unstructured reference material.
	Docs []string

	// Plain disables the banner and markdown rendering even on a TTY.
	Plain bool
}

// RunSession starts (or resumes) a session and drives it over stdin and
// stdout until the schema is approved or the reviewer hangs up.
func RunSession(ctx context.Context, engine *concord.Engine, opts RunOptions) error {
	sessionID := opts.SessionID
	if sessionID == "" {
		artifacts, err := loadArtifacts(opts.Files)
		if err != nil {
			return err
		}
		sessionID, err = engine.StartSession(ctx, artifacts...)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}
		for _, path := range opts.Docs {
			doc, err := loadDoc(path)
			if err != nil {
				return err
			}
			if err := engine.AttachDoc(ctx, sessionID, doc); err != nil {
				return fmt.Errorf("attaching %s: %w", doc.Name, err)
			}
		}
	} else if len(opts.Files) > 0 || len(opts.Docs) > 0 {
		return fmt.Errorf("--file and --doc only apply to new sessions; %s already has its artifacts", sessionID)
	}

	runner := concord.NewRunner()
	runner.Input = os.Stdin
	runner.Output = os.Stdout

	if !opts.Plain && term.IsTerminal(int(os.Stdout.Fd())) {
		tui.PrintBanner()
		runner.Renderer = tui.NewRenderer()
	}
	fmt.Printf("Session: %s\n\n", sessionID)

	return runner.Run(ctx, engine, sessionID, opts.Opening)
}

// loadArtifacts reads each path into a CSV artifact, keyed by its base
// filename. Rows are kept verbatim; only the filename is interpreted.
func loadArtifacts(paths []string) ([]domain.CSVFile, error) {
	artifacts := make([]domain.CSVFile, 0, len(paths))
	for _, path := range paths {
		f, err := loadCSV(path)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, f)
	}
	return artifacts, nil
}

func loadCSV(path string) (domain.CSVFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.CSVFile{}, fmt.Errorf("opening artifact: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return domain.CSVFile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(lines) == 0 {
		return domain.CSVFile{}, fmt.Errorf("%s is empty", path)
	}

	return domain.CSVFile{
		Name:   filepath.Base(path),
		Header: lines[0],
		Rows:   lines[1:],
	}, nil
}

// loadDoc reads a markdown or plain-text file, lifting a leading "# "
// heading into the document title.
func loadDoc(path string) (domain.DocFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DocFile{}, fmt.Errorf("opening document: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return domain.DocFile{}, fmt.Errorf("%s is empty", path)
	}

	var title string
	if first, _, _ := strings.Cut(content, "\n"); strings.HasPrefix(first, "# ") {
		title = strings.TrimSpace(strings.TrimPrefix(first, "# "))
	}
	return domain.DocFile{
		Name:    filepath.Base(path),
		Title:   title,
		Content: content,
	}, nil
}
