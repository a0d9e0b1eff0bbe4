package citations

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Citation is the display entry for one evidence chunk.
type Citation struct {
	SourceKey int
	Number    int
	Title     string
	URL       string
}

// CitationTable maps a source key to its citation entry.
type CitationTable map[int]Citation

// AssignCitations numbers every distinct source key 1..N in order of first
// appearance across the spans and their references. Title and URL are taken
// from the first reference seen for a key.
func AssignCitations(supports []MappedSupport) CitationTable {
	table := make(CitationTable)
	next := 1
	for _, support := range supports {
		for _, ref := range support.SourceRefs {
			if _, ok := table[ref.SourceKey]; ok {
				continue
			}
			table[ref.SourceKey] = Citation{
				SourceKey: ref.SourceKey,
				Number:    next,
				Title:     ref.Title,
				URL:       ref.URL,
			}
			next++
		}
	}
	return table
}

// Number returns the citation number assigned to key.
func (t CitationTable) Number(key int) (int, bool) {
	c, ok := t[key]
	return c.Number, ok
}

// Ordered returns the entries sorted by citation number.
func (t CitationTable) Ordered() []Citation {
	out := make([]Citation, 0, len(t))
	for _, c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

type citationJSON struct {
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
	Number int    `json:"citation_num"`
}

// MarshalJSON encodes the table as {"<key>": {title, url, citation_num}}.
func (t CitationTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]citationJSON, len(t))
	for key, c := range t {
		out[strconv.Itoa(key)] = citationJSON{Title: c.Title, URL: c.URL, Number: c.Number}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (t *CitationTable) UnmarshalJSON(data []byte) error {
	var raw map[string]citationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	table := make(CitationTable, len(raw))
	for k, c := range raw {
		key, err := strconv.Atoi(k)
		if err != nil {
			return err
		}
		table[key] = Citation{SourceKey: key, Number: c.Number, Title: c.Title, URL: c.URL}
	}
	*t = table
	return nil
}
