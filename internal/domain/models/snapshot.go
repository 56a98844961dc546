package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// metadata keys the snapshot endpoint mixes in with the indicators.
var snapshotMetaKeys = map[string]struct{}{
	"version": {},
	"autor":   {},
	"fecha":   {},
}

// Snapshot maps each code to its latest value.
type Snapshot map[IndicatorCode]Indicator

// UnmarshalJSON drops the metadata keys and any key outside the known codes.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Snapshot, len(raw))
	for k, v := range raw {
		if _, meta := snapshotMetaKeys[k]; meta {
			continue
		}
		code := IndicatorCode(k)
		if !code.Valid() {
			continue
		}
		var ind Indicator
		if err := json.Unmarshal(v, &ind); err != nil {
			return fmt.Errorf("indicator %s: %w", k, err)
		}
		if ind.Code == "" {
			ind.Code = code
		}
		out[code] = ind
	}
	*s = out
	return nil
}

// Name returns the display name of code, or the code itself when absent.
func (s Snapshot) Name(code IndicatorCode) string {
	if ind, ok := s[code]; ok && ind.Name != "" {
		return ind.Name
	}
	return string(code)
}

// Sorted returns the indicators ordered by display name using Spanish collation.
func (s Snapshot) Sorted() []Indicator {
	out := make([]Indicator, 0, len(s))
	for _, ind := range s {
		out = append(out, ind)
	}
	col := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return strings.Compare(string(out[i].Code), string(out[j].Code)) < 0
	})
	return out
}
