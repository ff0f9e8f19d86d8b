package models

import "droneops/showlog/internal/constants"

// Staff holds the three independent name pools offered as options in the
// show/entry forms. The lists are replaced wholesale on edit and stored
// deduped and sorted.
type Staff struct {
	Crew        []string `json:"crew"`
	Pilots      []string `json:"pilots"`
	MonkeyLeads []string `json:"monkeyLeads"`
}

// Normalize dedupes and sorts every pool.
func (s *Staff) Normalize() {
	s.Crew = NormalizeNames(s.Crew, true)
	s.Pilots = NormalizeNames(s.Pilots, true)
	s.MonkeyLeads = NormalizeNames(s.MonkeyLeads, true)
}

// DefaultStaff returns the seed pools written on first init.
func DefaultStaff() Staff {
	s := Staff{
		Crew:        append([]string(nil), constants.DefaultCrew...),
		Pilots:      append([]string(nil), constants.DefaultPilots...),
		MonkeyLeads: append([]string(nil), constants.DefaultMonkeyLeads...),
	}
	s.Normalize()
	return s
}
