package dictionary

// Entry is one dictionary word: a reading, the text it converts to and the
// part-of-speech context ids used by the connection matrix.
type Entry struct {
	Reading  string
	Surface  string
	LeftID   int
	RightID  int
	WordCost int

	// POS and SubPOS are only set for entries that carry their own part of
	// speech, such as user lexicon entries.
	POS    string
	SubPOS string
}

// Entries is a reading -> entries set that remembers the order in which
// readings were first added. Lattice node ids follow this order, so the
// set must be iterated through Readings and never as a plain map.
type Entries struct {
	order     []string
	byReading map[string][]Entry
}

// NewEntries creates an empty set.
func NewEntries() *Entries {
	return &Entries{byReading: make(map[string][]Entry)}
}

// Add appends entries for reading. A reading seen for the first time is
// placed after every reading already in the set.
func (e *Entries) Add(reading string, entries ...Entry) {
	if len(entries) == 0 {
		return
	}
	existing, ok := e.byReading[reading]
	if !ok {
		e.order = append(e.order, reading)
	}
	e.byReading[reading] = append(existing, entries...)
}

// Prepend inserts entries ahead of the entries already stored for reading.
func (e *Entries) Prepend(reading string, entries ...Entry) {
	if len(entries) == 0 {
		return
	}
	existing, ok := e.byReading[reading]
	if !ok {
		e.order = append(e.order, reading)
	}
	merged := make([]Entry, 0, len(entries)+len(existing))
	merged = append(merged, entries...)
	merged = append(merged, existing...)
	e.byReading[reading] = merged
}

// Readings returns the readings in discovery order.
func (e *Entries) Readings() []string {
	return e.order
}

// Get returns the entries stored for reading.
func (e *Entries) Get(reading string) []Entry {
	return e.byReading[reading]
}

// Len returns the number of distinct readings.
func (e *Entries) Len() int {
	return len(e.order)
}

// Count returns the total number of entries across all readings.
func (e *Entries) Count() int {
	total := 0
	for _, entries := range e.byReading {
		total += len(entries)
	}
	return total
}
