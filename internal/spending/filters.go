package spending

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire keys of the recognized filter kinds.
const (
	keyAwardTypeCodes      = "award_type_codes"
	keyTimePeriod          = "time_period"
	keyAwardAmounts        = "award_amounts"
	keyAgencies            = "agencies"
	keyRecipientSearchText = "recipient_search_text"
	keyKeywords            = "keywords"
)

// TimePeriod bounds a search to awards active between two dates, in YYYY-MM-DD form.
type TimePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// AmountRange bounds a search by award amount. A nil bound is open.
type AmountRange struct {
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

// Agency selects awards by awarding or funding agency.
type Agency struct {
	Type string `json:"type"`
	Tier string `json:"tier"`
	Name string `json:"name"`
}

// Filters selects which awards a search matches.
//
// The recognized filter kinds are typed. Anything else rides in Extra and is
// forwarded to the API verbatim: values are never validated against the
// upstream schema.
type Filters struct {
	AwardTypeCodes      []string
	TimePeriods         []TimePeriod
	AwardAmounts        []AmountRange
	Agencies            []Agency
	RecipientSearchText []string
	Keywords            []string

	// Extra carries filter keys not modeled above, forwarded untouched.
	Extra map[string]json.RawMessage
}

// DefaultFilters returns the permissive default filter: awards active during
// the year ending at now.
func DefaultFilters(now time.Time) *Filters {
	return &Filters{
		TimePeriods: []TimePeriod{{
			StartDate: now.AddDate(-1, 0, 0).Format(time.DateOnly),
			EndDate:   now.Format(time.DateOnly),
		}},
	}
}

// RawFilters wraps a raw JSON filter object so that every key, recognized or
// not, is forwarded to the API untouched.
func RawFilters(obj []byte) (*Filters, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil {
		return nil, fmt.Errorf("invalid filters object: %v", err)
	}
	return &Filters{Extra: m}, nil
}

// MarshalJSON emits the filter object sent to the API. Setting the same filter
// both as a typed field and as an Extra key is an error.
func (f Filters) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(f.Extra)+6)

	typed := []struct {
		key   string
		value any
		set   bool
	}{
		{keyAwardTypeCodes, f.AwardTypeCodes, len(f.AwardTypeCodes) > 0},
		{keyTimePeriod, f.TimePeriods, len(f.TimePeriods) > 0},
		{keyAwardAmounts, f.AwardAmounts, len(f.AwardAmounts) > 0},
		{keyAgencies, f.Agencies, len(f.Agencies) > 0},
		{keyRecipientSearchText, f.RecipientSearchText, len(f.RecipientSearchText) > 0},
		{keyKeywords, f.Keywords, len(f.Keywords) > 0},
	}
	for _, t := range typed {
		if !t.set {
			continue
		}
		b, err := json.Marshal(t.value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter %s: %v", t.key, err)
		}
		m[t.key] = b
	}

	for k, v := range f.Extra {
		if _, ok := m[k]; ok {
			return nil, fmt.Errorf("filter %q is set both as a typed field and as an extra key", k)
		}
		m[k] = v
	}

	return json.Marshal(m)
}

// UnmarshalJSON splits a filter object into the typed fields, keeping
// unrecognized keys in Extra.
func (f *Filters) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	*f = Filters{}
	for k, v := range m {
		var err error
		switch k {
		case keyAwardTypeCodes:
			err = json.Unmarshal(v, &f.AwardTypeCodes)
		case keyTimePeriod:
			err = json.Unmarshal(v, &f.TimePeriods)
		case keyAwardAmounts:
			err = json.Unmarshal(v, &f.AwardAmounts)
		case keyAgencies:
			err = json.Unmarshal(v, &f.Agencies)
		case keyRecipientSearchText:
			err = json.Unmarshal(v, &f.RecipientSearchText)
		case keyKeywords:
			err = json.Unmarshal(v, &f.Keywords)
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]json.RawMessage)
			}
			f.Extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("failed to unmarshal filter %s: %v", k, err)
		}
	}

	return nil
}
