// Package model defines the core data structures for tvfixtures.
package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used for matchday labels and date filters.
const DateLayout = "2006-01-02"

// Match is one scheduled fixture extracted from the broadcast schedule.
type Match struct {
	Date        time.Time `json:"date"`
	Competition string    `json:"competition"`
	Flag        string    `json:"flag"`
	TV          []string  `json:"tv"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	CalendarURL string    `json:"calendar_url"`
}

// HasTV reports whether any broadcaster entry contains name.
func (m *Match) HasTV(name string) bool {
	for _, tv := range m.TV {
		if strings.Contains(tv, name) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the match.
func (m Match) Clone() Match {
	c := m
	c.TV = append([]string{}, m.TV...)
	return c
}

// Matchday groups the fixtures published under one date header.
type Matchday struct {
	Date    time.Time `json:"date"`
	Matches []Match   `json:"matches"`
}

// Clone returns a deep copy of the matchday.
func (d Matchday) Clone() Matchday {
	c := Matchday{Date: d.Date, Matches: make([]Match, 0, len(d.Matches))}
	for _, m := range d.Matches {
		c.Matches = append(c.Matches, m.Clone())
	}
	return c
}

// CloneMatchdays deep-copies a matchday list.
func CloneMatchdays(days []Matchday) []Matchday {
	out := make([]Matchday, 0, len(days))
	for _, d := range days {
		out = append(out, d.Clone())
	}
	return out
}

// SameDay reports whether a and b fall on the same calendar day,
// each read in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Vocabulary holds the distinct values a selection can be built from.
type Vocabulary struct {
	Dates        []string `json:"dates"`
	Competitions []string `json:"competitions"`
	Teams        []string `json:"teams"`
	TVs          []string `json:"tvs"`
}

// Selection narrows the displayed matches. A nil field, or an empty
// string, leaves that dimension unconstrained.
type Selection struct {
	Date        *time.Time `json:"date,omitempty"`
	Competition *string    `json:"competition,omitempty"`
	Team        *string    `json:"team,omitempty"`
	TV          *string    `json:"tv,omitempty"`
}

// IsEmpty reports whether no dimension is set.
func (s Selection) IsEmpty() bool {
	return s.Date == nil && !IsSet(s.Competition) && !IsSet(s.Team) && !IsSet(s.TV)
}

// IsSet reports whether a string dimension constrains anything.
func IsSet(p *string) bool {
	return p != nil && *p != ""
}
