// Package romaji maps kana to romaji spellings and matches keystrokes against them.
package romaji

import (
	"sort"
	"strings"
)

const (
	// Nasal is the kana whose one-letter short form depends on the next unit.
	Nasal = 'ん'
	// Doubling is the kana typed by repeating the next unit's leading consonant.
	Doubling = 'っ'
	// NasalShortForm is the minimal spelling of Nasal.
	NasalShortForm = "n"
)

// nasalBlockers are the units after which Nasal must be typed in full.
var nasalBlockers = []rune{'な', 'に', 'ぬ', 'ね', 'の', 'や', 'ゆ', 'よ'}

// defaultEntries lists every accepted spelling per unit, canonical first.
var defaultEntries = map[string][]string{
	"あ": {"a"}, "い": {"i", "yi"}, "う": {"u", "wu", "whu"}, "え": {"e"}, "お": {"o"},
	"か": {"ka", "ca"}, "き": {"ki"}, "く": {"ku", "cu", "qu"}, "け": {"ke"}, "こ": {"ko", "co"},
	"さ": {"sa"}, "し": {"si", "shi", "ci"}, "す": {"su"}, "せ": {"se", "ce"}, "そ": {"so"},
	"た": {"ta"}, "ち": {"ti", "chi"}, "つ": {"tu", "tsu"}, "て": {"te"}, "と": {"to"},
	"な": {"na"}, "に": {"ni"}, "ぬ": {"nu"}, "ね": {"ne"}, "の": {"no"},
	"は": {"ha"}, "ひ": {"hi"}, "ふ": {"hu", "fu"}, "へ": {"he"}, "ほ": {"ho"},
	"ま": {"ma"}, "み": {"mi"}, "む": {"mu"}, "め": {"me"}, "も": {"mo"},
	"や": {"ya"}, "ゆ": {"yu"}, "よ": {"yo"},
	"ら": {"ra"}, "り": {"ri"}, "る": {"ru"}, "れ": {"re"}, "ろ": {"ro"},
	"わ": {"wa"}, "を": {"wo"}, "ん": {"nn", "xn"},

	"が": {"ga"}, "ぎ": {"gi"}, "ぐ": {"gu"}, "げ": {"ge"}, "ご": {"go"},
	"ざ": {"za"}, "じ": {"zi", "ji"}, "ず": {"zu"}, "ぜ": {"ze"}, "ぞ": {"zo"},
	"だ": {"da"}, "ぢ": {"di"}, "づ": {"du"}, "で": {"de"}, "ど": {"do"},
	"ば": {"ba"}, "び": {"bi"}, "ぶ": {"bu"}, "べ": {"be"}, "ぼ": {"bo"},
	"ぱ": {"pa"}, "ぴ": {"pi"}, "ぷ": {"pu"}, "ぺ": {"pe"}, "ぽ": {"po"},
	"ゔ": {"vu"},

	"きゃ": {"kya"}, "きゅ": {"kyu"}, "きょ": {"kyo"},
	"しゃ": {"sya", "sha"}, "しゅ": {"syu", "shu"}, "しょ": {"syo", "sho"}, "しぇ": {"sye", "she"},
	"ちゃ": {"tya", "cha", "cya"}, "ちゅ": {"tyu", "chu", "cyu"}, "ちょ": {"tyo", "cho", "cyo"}, "ちぇ": {"tye", "che"},
	"にゃ": {"nya"}, "にゅ": {"nyu"}, "にょ": {"nyo"},
	"ひゃ": {"hya"}, "ひゅ": {"hyu"}, "ひょ": {"hyo"},
	"みゃ": {"mya"}, "みゅ": {"myu"}, "みょ": {"myo"},
	"りゃ": {"rya"}, "りゅ": {"ryu"}, "りょ": {"ryo"},
	"ぎゃ": {"gya"}, "ぎゅ": {"gyu"}, "ぎょ": {"gyo"},
	"じゃ": {"ja", "zya", "jya"}, "じゅ": {"ju", "zyu", "jyu"}, "じょ": {"jo", "zyo", "jyo"}, "じぇ": {"je", "zye", "jye"},
	"びゃ": {"bya"}, "びゅ": {"byu"}, "びょ": {"byo"},
	"ぴゃ": {"pya"}, "ぴゅ": {"pyu"}, "ぴょ": {"pyo"},

	"ふぁ": {"fa"}, "ふぃ": {"fi"}, "ふぇ": {"fe"}, "ふぉ": {"fo"},
	"てぃ": {"thi"}, "でぃ": {"dhi"}, "でゅ": {"dhu"}, "とぅ": {"twu"},
	"うぃ": {"wi"}, "うぇ": {"we"}, "ゔぁ": {"va"}, "ゔぃ": {"vi"}, "ゔぇ": {"ve"}, "ゔぉ": {"vo"},

	"ぁ": {"xa", "la"}, "ぃ": {"xi", "li"}, "ぅ": {"xu", "lu"}, "ぇ": {"xe", "le"}, "ぉ": {"xo", "lo"},
	"っ": {"xtu", "ltu", "xtsu"},
	"ゃ": {"xya", "lya"}, "ゅ": {"xyu", "lyu"}, "ょ": {"xyo", "lyo"},

	"ー": {"-"}, "、": {","}, "。": {"."}, "！": {"!"}, "？": {"?"}, "　": {" "},
}

// Table is an immutable kana-to-romaji mapping.
type Table struct {
	entries  map[string][]string
	blockers map[rune]struct{}
}

// DefaultTable returns the built-in hiragana table.
func DefaultTable() *Table {
	return newTable(defaultEntries)
}

func newTable(entries map[string][]string) *Table {
	t := &Table{
		entries:  make(map[string][]string, len(entries)),
		blockers: make(map[rune]struct{}, len(nasalBlockers)),
	}
	for unit, spellings := range entries {
		t.entries[unit] = append([]string(nil), spellings...)
	}
	for _, r := range nasalBlockers {
		t.blockers[r] = struct{}{}
	}
	return t
}

// Extend returns a copy of the table with the given units replaced or added.
// Units longer than two runes and empty spelling lists are ignored.
func (t *Table) Extend(overrides map[string][]string) *Table {
	out := newTable(t.entries)
	for unit, spellings := range overrides {
		n := len([]rune(unit))
		if n == 0 || n > 2 {
			continue
		}
		cleaned := make([]string, 0, len(spellings))
		for _, s := range spellings {
			s = strings.TrimSpace(strings.ToLower(s))
			if s != "" {
				cleaned = append(cleaned, s)
			}
		}
		if len(cleaned) == 0 {
			continue
		}
		out.entries[unit] = cleaned
	}
	return out
}

// Lookup returns the spellings for a unit, canonical first.
func (t *Table) Lookup(unit string) ([]string, bool) {
	spellings, ok := t.entries[unit]
	if !ok || len(spellings) == 0 {
		return nil, false
	}
	return spellings, true
}

// Canonical returns the preferred spelling for a unit.
func (t *Table) Canonical(unit string) (string, bool) {
	spellings, ok := t.Lookup(unit)
	if !ok {
		return "", false
	}
	return spellings[0], true
}

// Has reports whether every rune of text can be typed through the table,
// either alone or as part of a digraph.
func (t *Table) Has(text string) bool {
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if i+1 < len(runes) {
			if _, ok := t.Lookup(string(runes[i : i+2])); ok {
				i += 2
				continue
			}
		}
		if _, ok := t.Lookup(string(runes[i])); !ok {
			return false
		}
		i++
	}
	return true
}

// Units returns all mapped units sorted by kana.
func (t *Table) Units() []string {
	units := make([]string, 0, len(t.entries))
	for unit := range t.entries {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units
}

func (t *Table) blocksShortForm(r rune) bool {
	_, ok := t.blockers[r]
	return ok
}
