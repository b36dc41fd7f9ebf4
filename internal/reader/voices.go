package reader

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/speak/internal/voice"
)

// OnCatalogReady implements Events. Engines may announce their catalog more
// than once; an unchanged catalog leaves the selection alone.
func (r *Reader) OnCatalogReady(ctx context.Context) error {
	voices, err := r.synth.Voices(ctx)
	if err != nil {
		r.warn("No voices available", err)
		return err
	}
	catalog := r.session.Catalog()
	if !catalog.Load(voices) {
		log.Debug("voice catalog unchanged", "voices", len(voices))
		return nil
	}
	log.Info("voice catalog loaded", "voices", catalog.Len())

	selected := r.resolveVoice(ctx)
	r.session.SetVoice(selected)

	r.mu.Lock()
	open := r.listOpen
	speakNow := r.autoSpeak
	r.autoSpeak = false
	r.mu.Unlock()

	r.view.ShowVoices(r.filtered(), selected, open)
	r.view.SetStatus(fmt.Sprintf("%d voices, %s", catalog.Len(), r.speedStatus()))

	if speakNow {
		return r.OnSpeak(ctx)
	}
	return nil
}

// resolveVoice picks the voice to start with: the launch parameters, then
// the stored preference, then the first voice. A stored voice that no
// longer exists resolves to the engine default.
func (r *Reader) resolveVoice(ctx context.Context) voice.Voice {
	catalog := r.session.Catalog()

	r.mu.Lock()
	p := r.params
	r.mu.Unlock()

	if p.Voice != "" {
		if v, ok := catalog.Lookup(p.Voice); ok {
			return v
		}
		log.Warn("requested voice not found", "voice", p.Voice)
	}
	if p.Lang != "" {
		if matches := catalog.FilterByLang(p.Lang); len(matches) > 0 {
			return matches[0]
		}
		log.Warn("no voice for requested language", "lang", p.Lang)
	}

	if stored := r.prefs.Voice(ctx); !stored.IsZero() {
		v, ok := catalog.Find(stored)
		if !ok {
			log.Warn("stored voice not found, using engine default", "voice", stored.Name)
		}
		return v
	}

	v, _ := catalog.First()
	return v
}

// OnToggleVoiceList implements Events. Opening the list re-applies the
// previous filter.
func (r *Reader) OnToggleVoiceList() {
	r.mu.Lock()
	r.listOpen = !r.listOpen
	open := r.listOpen
	r.mu.Unlock()

	r.view.ShowVoices(r.filtered(), r.session.Voice(), open)
}

// OnSelectVoice implements Events. The choice is persisted, the list closed
// and speech restarted with the new voice.
func (r *Reader) OnSelectVoice(ctx context.Context, v voice.Voice) error {
	r.session.SetVoice(v)
	if err := r.prefs.SetVoice(ctx, v.Descriptor()); err != nil {
		log.Warn("could not save voice", "error", err)
	}

	r.mu.Lock()
	r.listOpen = false
	r.mu.Unlock()

	r.view.ShowVoices(r.filtered(), v, false)
	return r.OnSpeak(ctx)
}

// OnFilterKey implements Events. Enter selects the first voice matching
// the filter; any other key re-filters the list.
func (r *Reader) OnFilterKey(ctx context.Context, key, filter string) error {
	r.mu.Lock()
	r.filter = filter
	r.mu.Unlock()

	matches := r.filtered()
	if key == KeyEnter {
		if len(matches) == 0 {
			return nil
		}
		return r.OnSelectVoice(ctx, matches[0])
	}

	r.view.ShowVoices(matches, r.session.Voice(), true)
	return nil
}

// Filter returns the current voice filter.
func (r *Reader) Filter() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

func (r *Reader) filtered() []voice.Voice {
	r.mu.Lock()
	filter := r.filter
	r.mu.Unlock()

	if r.fuzzy {
		return r.session.Catalog().FuzzyFilter(filter)
	}
	return r.session.Catalog().FilterByName(filter)
}
