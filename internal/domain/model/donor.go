package model

// DonorSummary is one value of donors-by-member.json. A member whose totals
// could not be fetched carries the zero value with Cycle set.
type DonorSummary struct {
	Cycle           int     `json:"cycle"`
	Receipts        float64 `json:"receipts"`
	Individual      float64 `json:"individual"`
	PAC             float64 `json:"pac"`
	Transfers       float64 `json:"transfers"`
	PACPct          float64 `json:"pac_pct"`
	InStateDollars  float64 `json:"in_state_dollars"`
	OutStateDollars float64 `json:"out_state_dollars"`
	SmallShare      float64 `json:"small_share"`
}

// Ideology is one value of ideology-by-member.json.
type Ideology struct {
	Congress int     `json:"congress"`
	Chamber  string  `json:"chamber"`
	Name     string  `json:"name"`
	Dim1     float64 `json:"nominate_dim1"`
	Dim2     float64 `json:"nominate_dim2"`
}
