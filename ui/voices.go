package ui

import (
	"strconv"
	"strings"

	"github.com/dgnsrekt/speak/internal/voice"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

const menuChromeHeight = 3 // title, filter and a blank line

func (m readerModel) menuView() string {
	var b strings.Builder

	title := "Voices"
	if n := m.reader.Session().Catalog().Len(); n > 0 {
		title += " (" + strconv.Itoa(len(m.snap.voices)) + "/" + strconv.Itoa(n) + ")"
	}
	b.WriteString(menuTitleStyle.Render(title) + "\n")
	b.WriteString(m.filter.View() + "\n\n")

	rows := max(1, m.bodyHeight-menuChromeHeight)

	if len(m.snap.voices) == 0 {
		b.WriteString(subtleStyle.Render("  No matching voices"))
		return padLines(b.String(), m.bodyHeight)
	}

	start := 0
	if m.menuCursor >= rows {
		start = m.menuCursor - rows + 1
	}
	end := min(len(m.snap.voices), start+rows)

	nameWidth := 0
	for _, v := range m.snap.voices[start:end] {
		nameWidth = max(nameWidth, runewidth.StringWidth(v.Name))
	}
	nameWidth = min(nameWidth, max(10, m.width/2))

	for i := start; i < end; i++ {
		b.WriteString(m.menuRow(m.snap.voices[i], i == m.menuCursor, nameWidth))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return padLines(b.String(), m.bodyHeight)
}

func (m readerModel) menuRow(v voice.Voice, cursor bool, nameWidth int) string {
	prefix := "  "
	if cursor {
		prefix = menuCursorStyle.Render("> ")
	}

	name := runewidth.FillRight(runewidth.Truncate(v.Name, nameWidth, ellipsis), nameWidth)
	lang := v.Lang
	if display := voice.LanguageName(v.Lang); display != "" && display != v.Lang {
		lang += " " + display
	}
	row := name + "  " + subtleStyle.Render(lang)

	switch {
	case v.Key() == m.snap.selected.Key() && !m.snap.selected.IsZero():
		row = menuSelectedStyle.Render("* ") + row
	default:
		row = "  " + row
	}
	if m.width > 0 {
		row = truncate.StringWithTail(row, uint(max(0, m.width-2)), ellipsis) //nolint:gosec
	}
	return prefix + row
}

// padLines pads s with empty lines to exactly n lines so the status bar
// stays at the bottom.
func padLines(s string, n int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= n {
		return s
	}
	return s + strings.Repeat("\n", n-lines)
}
