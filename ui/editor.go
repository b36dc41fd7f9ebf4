package ui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/speak/internal/source"
)

// openEditor edits the document's file in EDITOR. Text that did not come
// from a file is edited through a temporary file.
func (m readerModel) openEditor() tea.Cmd {
	if m.doc != nil && m.doc.Kind == source.KindFile {
		return editFile(m.doc.Path, false)
	}

	f, err := os.CreateTemp("", "speak-*.txt")
	if err != nil {
		return func() tea.Msg { return editorFinishedMsg{err: fmt.Errorf("create temp file: %w", err)} }
	}
	_, werr := f.WriteString(m.text.Value())
	cerr := f.Close()
	if err := firstErr(werr, cerr); err != nil {
		_ = os.Remove(f.Name())
		return func() tea.Msg { return editorFinishedMsg{err: fmt.Errorf("write temp file: %w", err)} }
	}
	return editFile(f.Name(), true)
}

func editFile(path string, temp bool) tea.Cmd {
	log.Info("opening editor", "file", path)
	c, err := editor.Cmd("speak", path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{path: path, temp: temp, err: fmt.Errorf("unable to open editor: %w", err)}
		}
	}
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{path: path, temp: temp, err: err}
	})
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
