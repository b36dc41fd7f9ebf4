package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgnsrekt/speak/internal/voice"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	voiceFilter struct {
		name  string
		fuzzy bool
	}

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List the voices of the speech engine",
		Long:    paragraph(fmt.Sprintf("\nList the voices the configured engine offers, %s.", keyword("sorted by language"))),
		Example: paragraph("speak voices\nspeak voices --lang fr-FR\nspeak voices --engine google --name wavenet"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := newBackend(cmd.Context())
			if err != nil {
				return err
			}
			if c, ok := backend.(io.Closer); ok {
				defer c.Close() //nolint:errcheck
			}

			voices, err := backend.Voices(cmd.Context())
			if err != nil {
				return err
			}
			catalog := voice.NewCatalog(viper.GetBool("reader.sort_voices"))
			catalog.Load(voices)

			matches := filterVoices(catalog, voiceFilter.name, lang, voiceFilter.fuzzy)
			if len(matches) == 0 {
				return errors.New("no voices match")
			}
			writeVoices(os.Stdout, matches)
			return nil
		},
	}
)

// filterVoices narrows the catalog by locale first and then by name.
func filterVoices(catalog *voice.Catalog, name, lang string, fuzzy bool) []voice.Voice {
	byLang := catalog.FilterByLang(lang)
	if name == "" {
		return byLang
	}
	narrowed := voice.NewCatalog(false)
	narrowed.Load(byLang)
	if fuzzy {
		return narrowed.FuzzyFilter(name)
	}
	return narrowed.FilterByName(name)
}

// writeVoices prints one aligned row per voice. The engine's default voice
// is starred.
func writeVoices(w io.Writer, voices []voice.Voice) {
	names := make([]string, len(voices))
	nameWidth, langWidth := len("NAME"), len("LANG")
	for i, v := range voices {
		names[i] = v.Name
		if v.Default {
			names[i] += "*"
		}
		nameWidth = max(nameWidth, runewidth.StringWidth(names[i]))
		langWidth = max(langWidth, runewidth.StringWidth(v.Lang))
	}

	row := func(name, lang, language, gender string) {
		line := runewidth.FillRight(name, nameWidth) + "  " +
			runewidth.FillRight(lang, langWidth) + "  " +
			runewidth.FillRight(language, 24) + "  " + gender
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	row("NAME", "LANG", "LANGUAGE", "GENDER")
	for i, v := range voices {
		row(names[i], v.Lang, runewidth.Truncate(voice.LanguageName(v.Lang), 24, "…"), v.Gender)
	}
}

func init() {
	voicesCmd.Flags().StringVarP(&voiceFilter.name, "name", "n", "", "only voices whose name contains this")
	voicesCmd.Flags().BoolVar(&voiceFilter.fuzzy, "fuzzy", false, "match --name fuzzily")
}
