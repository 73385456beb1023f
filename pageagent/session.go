package pageagent

// Snapshot is the host page's own lyrics, captured once per song.
type Snapshot struct {
	OriginalHTML string
	OriginalText string
	SourceURL    string
}

// Cache holds the merged romanized lyrics for one page URL.
type Cache struct {
	URL  string
	Text string
}

// Session is the per-song state. A navigation replaces the whole Session,
// so Snapshot and Cache are always discarded together. Fields are guarded
// by the owning Agent's mutex.
type Session struct {
	ID  string
	URL string

	Snapshot *Snapshot
	Cache    *Cache
	// Pressed mirrors the toggle's aria-pressed attribute.
	Pressed bool

	injecting      bool
	injectAttempts int
	switchOnLyrics bool
}

func newSession(id, url string) *Session {
	return &Session{ID: id, URL: url}
}
