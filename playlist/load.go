package playlist

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/tools/godoc/vfs"
)

// LoadFolder reads "playlist.json" from folder and registers its playlists.
// Track paths in the registry are relative to folder; they are resolved to
// disk paths here because music streams from disk rather than being loaded
// into memory up front.
func LoadFolder(folder string) error {
	lock.Lock()
	defer lock.Unlock()
	start := time.Now()

	registry, err := loadRegistry(vfs.OS(folder), "/playlist.json")
	if err != nil {
		return err
	}
	loaded := make(map[Id]*Playlist, len(registry))
	for _, pl := range registry {
		for _, t := range pl.Tracks {
			t.Path = filepath.Join(folder, t.Path)
		}
		loaded[pl.Id] = pl
	}
	lists = loaded

	log.Printf("playlist: loaded %d playlists in %.2fs", len(lists),
		time.Since(start).Seconds())
	return nil
}

func loadRegistry(fileSystem vfs.Opener, path string) ([]*Playlist, error) {
	f, err := fileSystem.Open(path)
	if err != nil {
		return nil, fmt.Errorf("playlist: open %s: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("playlist: read %s: %w", path, err)
	}
	var registry []*Playlist
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("playlist: parse %s: %w", path, err)
	}
	return registry, nil
}
