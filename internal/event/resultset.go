package event

import "encoding/json"

// Failure is an event whose extraction failed while the run continued
type Failure struct {
	SourceURL string
	Err       error
}

// MarshalJSON renders the error as its message
func (f *Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		SourceURL string `json:"source_url"`
		Error     string `json:"error"`
	}{f.SourceURL, msg})
}

// ResultSet is the ordered output of one index run. Records keep discovery
// order; duplicate source URLs on the index page are not collapsed.
type ResultSet struct {
	IndexURL string     `json:"index_url"`
	Records  []*Record  `json:"records"`
	Failures []*Failure `json:"failures,omitempty"`
}

// NewResultSet creates an empty result set for an index URL
func NewResultSet(indexURL string) *ResultSet {
	return &ResultSet{
		IndexURL: indexURL,
		Records:  make([]*Record, 0),
	}
}

// Add appends a record, preserving insertion order
func (rs *ResultSet) Add(r *Record) {
	rs.Records = append(rs.Records, r)
}

// AddFailure records an event that could not be extracted
func (rs *ResultSet) AddFailure(sourceURL string, err error) {
	rs.Failures = append(rs.Failures, &Failure{SourceURL: sourceURL, Err: err})
}

// Len returns the number of records
func (rs *ResultSet) Len() int {
	return len(rs.Records)
}

// Resolved returns the number of records with an organizer domain
func (rs *ResultSet) Resolved() int {
	n := 0
	for _, r := range rs.Records {
		if r.OrganizerDomain != nil {
			n++
		}
	}
	return n
}
