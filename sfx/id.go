package sfx

import "log"

// Id identifies a sound effect declared in the registry. Play it after Load.
type Id string

// Play queues one variation of this effect. It reports whether anything was
// queued; throttled or unknown ids play nothing.
func (id Id) Play() bool {
	lock.RLock()
	defer lock.RUnlock()
	if s, ok := loaded[id]; ok {
		return s.play()
	}
	log.Printf("sfx: %s not loaded", id)
	return false
}
