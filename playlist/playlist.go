// Package playlist groups music tracks loaded from a JSON registry
// (playlist.json) and plays them through the audio engine. Tracks may carry a
// preview window, which menus use to audition a song from its hook rather
// than its intro.
package playlist

import (
	"sync"

	"github.com/stepfever/gameaudio/audio"
)

var (
	lock    sync.RWMutex
	lists   map[Id]*Playlist
	current *Playlist
)

// Id identifies a playlist declared in the registry.
type Id string

type Playlist struct {
	Id     Id
	Tracks []*Track

	pos int
}

type Track struct {
	Path   string
	Name   string
	Author string
	// PreviewStart/PreviewLength delimit the audition window in seconds.
	// A zero length falls back to a 15 s default.
	PreviewStart  float64 `json:"preview_start"`
	PreviewLength float64 `json:"preview_length"`
}

const defaultPreviewLength = 15.0

// Play makes this the current playlist and starts its current track, looping.
// Replaying the already-current playlist keeps the track going.
func (id Id) Play() {
	lock.Lock()
	defer lock.Unlock()
	if current != nil && current.Id == id {
		return
	}
	pl, ok := lists[id]
	if !ok {
		return
	}
	current = pl
	pl.playCurrent()
}

// Next advances the current playlist to its next track. There is no
// end-of-track notification from the engine, so advancing is the caller's
// call (screen change, timer, user input).
func Next() {
	lock.Lock()
	defer lock.Unlock()
	if current == nil || len(current.Tracks) == 0 {
		return
	}
	current.pos = (current.pos + 1) % len(current.Tracks)
	current.playCurrent()
}

// Stop stops music playback and forgets the current playlist.
func Stop() {
	lock.Lock()
	defer lock.Unlock()
	current = nil
	audio.StopMusic()
}

// Preview plays the audition window of one track of this playlist, looping.
func (id Id) Preview(index int) {
	lock.RLock()
	defer lock.RUnlock()
	pl, ok := lists[id]
	if !ok || index < 0 || index >= len(pl.Tracks) {
		return
	}
	t := pl.Tracks[index]
	length := t.PreviewLength
	if length <= 0 {
		length = defaultPreviewLength
	}
	audio.PlayMusic(t.Path, audio.Cut{Start: t.PreviewStart, Length: length}, true)
}

func (pl *Playlist) playCurrent() {
	if len(pl.Tracks) == 0 {
		return
	}
	audio.PlayMusic(pl.Tracks[pl.pos].Path, audio.Cut{}, true)
}
