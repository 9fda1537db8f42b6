package game

// Map is everything the map source returns for one playable map.
type Map struct {
	Name     string          `json:"name"`
	Events   []ExpectedEvent `json:"events"` // Ascending by T
	Notes    []Note          `json:"notes"`
	FPS      float64         `json:"fps"`
	Duration float64         `json:"duration"` // Seconds

	activeNotes    []Note
	startNoteIndex int
	endNoteIndex   int
}

// MapInfo is one row of the map listing.
type MapInfo struct {
	Name     string  `json:"name"`
	Events   int     `json:"events"`
	FPS      float64 `json:"fps"`
	Duration float64 `json:"duration"`
	HasMusic bool    `json:"has_music"`
}

// MusicInfo describes the optional audio asset of a map.
type MusicInfo struct {
	Available bool   `json:"available"`
	URL       string `json:"url"`
}

func (m *Map) Active() ([]Note, int, int) {
	return m.activeNotes, m.startNoteIndex, m.endNoteIndex
}

func (m *Map) SetActive(start int, end int) {
	m.activeNotes = m.Notes[start:end]
	m.startNoteIndex = start
	m.endNoteIndex = end
}

// LastEventTime returns the time of the final expected event, or false
// when the map has none.
func (m *Map) LastEventTime() (float64, bool) {
	if len(m.Events) == 0 {
		return 0, false
	}
	return m.Events[len(m.Events)-1].T, true
}
