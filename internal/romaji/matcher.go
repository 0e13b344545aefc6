package romaji

import "strings"

// Candidate is one accepted spelling for the unit under the cursor.
type Candidate struct {
	Encoding string
	// Units is the number of runes the spelling consumes (1 or 2).
	Units int
}

// Result describes the outcome of a single keystroke.
type Result struct {
	Success         bool
	UnitCompleted   bool
	PhraseCompleted bool
	// Unit holds the kana consumed when UnitCompleted is set.
	Unit string
}

// Progress is a read-only view of the matcher state.
type Progress struct {
	Typed     string
	Remaining string
	Buffer    string
	Cursor    int
}

// GuideSegment is one unit of the suggested romaji for a phrase.
type GuideSegment struct {
	Kana   string
	Romaji string
	Units  int
	// Start is the rune index of the segment in the phrase.
	Start int
}

// Matcher tracks romaji input against a kana phrase one unit at a time.
// The zero value is not usable; construct with NewMatcher.
type Matcher struct {
	table  *Table
	units  []rune
	cursor int
	buffer string
	live   []Candidate
}

// NewMatcher returns a matcher with no phrase loaded.
func NewMatcher(table *Table) *Matcher {
	if table == nil {
		table = DefaultTable()
	}
	return &Matcher{table: table}
}

// SetText loads a new phrase and resets all progress. An empty phrase yields
// a matcher that is already done.
func (m *Matcher) SetText(phrase string) {
	m.units = []rune(phrase)
	m.cursor = 0
	m.buffer = ""
	m.recompute()
}

// Text returns the loaded phrase.
func (m *Matcher) Text() string {
	return string(m.units)
}

// Done reports whether every unit has been typed.
func (m *Matcher) Done() bool {
	return m.cursor >= len(m.units)
}

// Candidates returns a copy of the live candidates for the current unit.
func (m *Matcher) Candidates() []Candidate {
	out := make([]Candidate, len(m.live))
	copy(out, m.live)
	return out
}

// Current returns the kana under the cursor, or "" once the phrase is done.
func (m *Matcher) Current() string {
	if m.Done() || len(m.live) == 0 {
		return ""
	}
	n := m.live[0].Units
	if m.cursor+n > len(m.units) {
		n = 1
	}
	return string(m.units[m.cursor : m.cursor+n])
}

// HandleInput feeds one keystroke into the matcher.
func (m *Matcher) HandleInput(r rune) Result {
	m.buffer += string(r)

	for _, c := range m.live {
		if m.buffer != c.Encoding {
			continue
		}
		unit := string(m.units[m.cursor : m.cursor+c.Units])
		m.cursor += c.Units
		m.buffer = ""
		m.recompute()
		return Result{
			Success:         true,
			UnitCompleted:   true,
			PhraseCompleted: m.Done(),
			Unit:            unit,
		}
	}

	for _, c := range m.live {
		if strings.HasPrefix(c.Encoding, m.buffer) {
			return Result{Success: true}
		}
	}

	m.buffer = ""
	return Result{}
}

// Progress returns the typed and remaining parts of the phrase.
func (m *Matcher) Progress() Progress {
	return Progress{
		Typed:     string(m.units[:m.cursor]),
		Remaining: string(m.units[m.cursor:]),
		Buffer:    m.buffer,
		Cursor:    m.cursor,
	}
}

// Guide returns the suggested spelling for the whole phrase. It follows the
// same segmentation as the matcher, so segment boundaries line up with the
// cursor.
func (m *Matcher) Guide() []GuideSegment {
	return BuildGuide(m.table, string(m.units))
}

// Romaji returns the concatenated canonical spelling of a phrase.
func Romaji(table *Table, phrase string) string {
	var b strings.Builder
	for _, seg := range BuildGuide(table, phrase) {
		b.WriteString(seg.Romaji)
	}
	return b.String()
}

// BuildGuide segments a phrase and picks a display spelling for every unit.
func BuildGuide(table *Table, phrase string) []GuideSegment {
	if table == nil {
		table = DefaultTable()
	}
	units := []rune(phrase)
	var out []GuideSegment
	for i := 0; i < len(units); {
		cands := candidatesAt(table, units, i)
		seg := GuideSegment{
			Kana:   string(units[i : i+cands[0].Units]),
			Romaji: cands[0].Encoding,
			Units:  cands[0].Units,
			Start:  i,
		}
		// Short forms read more naturally than the canonical escape spelling.
		if len(cands) > 1 && (units[i] == Nasal || units[i] == Doubling) && seg.Units == 1 {
			last := cands[len(cands)-1]
			if len(last.Encoding) < len(seg.Romaji) {
				seg.Romaji = last.Encoding
			}
		}
		out = append(out, seg)
		i += seg.Units
	}
	return out
}

func (m *Matcher) recompute() {
	m.live = candidatesAt(m.table, m.units, m.cursor)
}

// candidatesAt computes the accepted spellings for the unit starting at pos.
func candidatesAt(table *Table, units []rune, pos int) []Candidate {
	if pos >= len(units) {
		return nil
	}

	if pos+1 < len(units) {
		if spellings, ok := table.Lookup(string(units[pos : pos+2])); ok {
			return toCandidates(spellings, 2)
		}
	}

	current := units[pos]
	spellings, ok := table.Lookup(string(current))
	if !ok {
		return []Candidate{{Encoding: string(current), Units: 1}}
	}
	cands := toCandidates(spellings, 1)

	hasNext := pos+1 < len(units)
	if current == Nasal && hasNext && !table.blocksShortForm(units[pos+1]) {
		cands = append(cands, Candidate{Encoding: NasalShortForm, Units: 1})
	}
	if current == Doubling && hasNext {
		// A lead letter that starts one of っ's own spellings would complete
		// the unit before that spelling could be typed.
		if lead, ok := leadingSound(table, units, pos+1); ok && !prefixOfAny(lead, cands) {
			cands = append(cands, Candidate{Encoding: lead, Units: 1})
		}
	}
	return cands
}

// leadingSound returns the first letter of the canonical spelling of the unit
// at pos, preferring a digraph when one starts there.
func leadingSound(table *Table, units []rune, pos int) (string, bool) {
	var canonical string
	var ok bool
	if pos+1 < len(units) {
		canonical, ok = table.Canonical(string(units[pos : pos+2]))
	}
	if !ok {
		canonical, ok = table.Canonical(string(units[pos]))
	}
	if !ok || canonical == "" {
		return "", false
	}
	return string([]rune(canonical)[0]), true
}

func prefixOfAny(prefix string, cands []Candidate) bool {
	for _, c := range cands {
		if strings.HasPrefix(c.Encoding, prefix) {
			return true
		}
	}
	return false
}

func toCandidates(spellings []string, units int) []Candidate {
	out := make([]Candidate, 0, len(spellings)+1)
	for _, s := range spellings {
		out = append(out, Candidate{Encoding: s, Units: units})
	}
	return out
}
