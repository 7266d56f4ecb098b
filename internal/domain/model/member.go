// Package model contains the snapshot records written for the static site.
package model

import "strings"

// Member is one entry of members.json.
type Member struct {
	Bioguide   string `json:"bioguide"`
	Name       string `json:"name"`
	Party      string `json:"party"`
	PartyLabel string `json:"partyLabel"`
	Chamber    string `json:"chamber"`
	State      string `json:"state"`
	District   string `json:"district"`
	FEC        string `json:"fec,omitempty"`
	Photo      string `json:"photo"`
}

// PartyCode reduces a party name to its upper-case first letter.
func PartyCode(party string) string {
	party = strings.TrimSpace(party)
	if party == "" {
		return ""
	}
	return strings.ToUpper(party[:1])
}

// PartyLabel expands a party code for display.
func PartyLabel(code string) string {
	switch code {
	case "D":
		return "Democrat"
	case "R":
		return "Republican"
	case "I":
		return "Independent"
	default:
		return ""
	}
}

// IDs returns the bioguide ids of members in order.
func IDs(members []Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Bioguide)
	}
	return out
}
