package queries

// builtinQueries are the queries available without any file on disk, covering
// the common federal-spending questions this tool is reached for. A file with
// the same name under the queries directory takes precedence.
var builtinQueries = map[string]Query{
	"large-contracts": {
		Description: "Recent contracts over $5 million",
		Filters: map[string]any{
			"award_type_codes": []string{"10"},
			"award_amounts":    []map[string]any{{"lower_bound": 5000000.0}},
			"time_period":      []map[string]string{{"start_date": "2024-01-01", "end_date": "2024-12-31"}},
		},
		Limit: 25,
	},
	"fy24-grants": {
		Description: "Grants from fiscal year 2024",
		Filters: map[string]any{
			"award_type_codes": []string{"02", "03", "04", "05"},
			"time_period":      []map[string]string{{"start_date": "2023-10-01", "end_date": "2024-09-30"}},
		},
		Limit: 50,
	},
	"hhs-awards": {
		Description: "Department of Health and Human Services awards",
		Filters: map[string]any{
			"agencies": []map[string]string{
				{"type": "awarding", "tier": "toptier", "name": "Department of Health and Human Services"},
			},
			"time_period": []map[string]string{{"start_date": "2024-01-01", "end_date": "2024-12-31"}},
		},
		Limit: 50,
	},
	"contracts-bulk": {
		Description: "Three pages of 2024 contracts in one export",
		Filters: map[string]any{
			"award_type_codes": []string{"10"},
			"time_period":      []map[string]string{{"start_date": "2024-01-01", "end_date": "2024-12-31"}},
		},
		Limit: 100,
		Pages: 3,
	},
	"university-grants": {
		Description: "Grants awarded to university recipients",
		Filters: map[string]any{
			"recipient_search_text": []string{"university"},
			"award_type_codes":      []string{"02", "03", "04", "05"},
			"time_period":           []map[string]string{{"start_date": "2024-01-01", "end_date": "2024-12-31"}},
		},
		Limit: 25,
	},
	"megaprojects": {
		Description: "Awards over $10 million with a trimmed field selection",
		Filters: map[string]any{
			"award_amounts": []map[string]any{{"lower_bound": 10000000.0}},
			"time_period":   []map[string]string{{"start_date": "2024-01-01", "end_date": "2024-12-31"}},
		},
		Fields: []string{"Award ID", "Recipient Name", "Award Amount", "Awarding Agency", "Description"},
		Limit:  20,
	},
}
