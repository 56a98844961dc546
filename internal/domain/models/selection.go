package models

import "encoding/json"

// MaxSelection is the maximum number of indicators in a comparison.
const MaxSelection = 3

// SelectionEntry is one indicator picked for comparison.
type SelectionEntry struct {
	Code  IndicatorCode `json:"code"`
	Name  string        `json:"name"`
	Color string        `json:"color"`
}

// Selection is an ordered set of at most MaxSelection entries. The zero value is empty.
type Selection struct {
	entries []SelectionEntry
}

// NewSelection builds a selection from entries in order, skipping duplicates, unknown codes
// and anything past MaxSelection. Colors always come from the code table.
func NewSelection(entries ...SelectionEntry) Selection {
	var s Selection
	for _, e := range entries {
		if !s.Contains(e.Code) {
			s.Toggle(e.Code, e.Name)
		}
	}
	return s
}

// Toggle removes code if present, otherwise appends it. Adding beyond MaxSelection and
// unknown codes are no-ops. It reports whether the selection changed.
func (s *Selection) Toggle(code IndicatorCode, name string) bool {
	for i, e := range s.entries {
		if e.Code == code {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return true
		}
	}
	if !code.Valid() || len(s.entries) >= MaxSelection {
		return false
	}
	if name == "" {
		name = string(code)
	}
	s.entries = append(s.entries, SelectionEntry{Code: code, Name: name, Color: ColorFor(code)})
	return true
}

// Contains reports whether code is selected.
func (s Selection) Contains(code IndicatorCode) bool {
	for _, e := range s.entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (s Selection) Len() int { return len(s.entries) }

// Full reports whether no more entries can be added.
func (s Selection) Full() bool { return len(s.entries) >= MaxSelection }

// CanCompare reports whether the selection is large enough to open a comparison.
func (s Selection) CanCompare() bool { return len(s.entries) >= 2 }

// Entries returns a copy of the entries in selection order.
func (s Selection) Entries() []SelectionEntry {
	out := make([]SelectionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Codes returns the selected codes in order.
func (s Selection) Codes() []IndicatorCode {
	out := make([]IndicatorCode, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Code
	}
	return out
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

// UnmarshalJSON rebuilds the selection through Toggle, so persisted data cannot break the invariants.
func (s *Selection) UnmarshalJSON(b []byte) error {
	var entries []SelectionEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	*s = NewSelection(entries...)
	return nil
}
