package sfx

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/tools/godoc/vfs"

	"github.com/stepfever/gameaudio/audio"
	"github.com/stepfever/gameaudio/loaders"
)

var lock sync.RWMutex

// LoadFolder loads sound effects from a regular folder. See Load.
func LoadFolder(folder string) error {
	return Load(vfs.OS(folder))
}

// Load reads "sfx.json" from the root of the given filesystem and preloads
// every referenced file into the engine cache. The registry is a JSON array
// of Sound objects. Variations that fail to decode are logged and dropped;
// the rest of the sound stays playable. The engine must be initialized first.
func Load(fileSystem vfs.Opener) error {
	lock.Lock()
	defer lock.Unlock()
	start := time.Now()

	registry, err := loadRegistry(fileSystem, "sfx.json")
	if err != nil {
		return err
	}
	sounds := make(map[Id]*Sound, len(registry))
	for _, s := range registry {
		kept := s.Variations[:0]
		for _, v := range s.Variations {
			if err := preload(fileSystem, v.Path); err != nil {
				log.Printf("sfx: %s: %v", v.Path, err)
				continue
			}
			if v.Weight <= 0 {
				v.Weight = 1
			}
			kept = append(kept, v)
		}
		s.Variations = kept
		sounds[s.Id] = s
	}
	loaded = sounds

	log.Printf("sfx: loaded %d sound effects in %.2fs", len(sounds),
		time.Since(start).Seconds())
	return nil
}

// preload decodes one file from the virtual filesystem into the engine cache
// under its registry path.
func preload(fileSystem vfs.Opener, path string) error {
	f, err := openFile(fileSystem, path)
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := loaders.Decode(loaders.Ext(path), f)
	if err != nil {
		return err
	}
	defer s.Close()
	return audio.PreloadStream(path, s)
}

func openFile(fileSystem vfs.Opener, path string) (vfs.ReadSeekCloser, error) {
	// vfs implementations root their namespace at "/".
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fileSystem.Open(path)
}

func loadRegistry(fileSystem vfs.Opener, path string) ([]*Sound, error) {
	f, err := openFile(fileSystem, path)
	if err != nil {
		return nil, fmt.Errorf("sfx: open %s: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("sfx: read %s: %w", path, err)
	}
	var registry []*Sound
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("sfx: parse %s: %w", path, err)
	}
	return registry, nil
}
