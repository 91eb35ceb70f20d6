package analysis

import (
	"fmt"
	"strings"
)

// Section identifies one toggleable part of an analysis view or export.
type Section string

const (
	SectionSummary            Section = "summary"
	SectionInteractiveQA      Section = "interactiveQa"
	SectionStrengths          Section = "strengths"
	SectionWeaknesses         Section = "weaknesses"
	SectionSuggestions        Section = "suggestions"
	SectionSecurity           Section = "security"
	SectionPerformance        Section = "performance"
	SectionPortability        Section = "portability"
	SectionCommandBreakdown   Section = "commandBreakdown"
	SectionLogicVisualization Section = "logicVisualization"
	SectionTestSuite          Section = "testSuite"
	SectionTranslations       Section = "translations"
	SectionGithub             Section = "github"
)

// AllSections in display order.
var AllSections = []Section{
	SectionSummary,
	SectionInteractiveQA,
	SectionStrengths,
	SectionWeaknesses,
	SectionSuggestions,
	SectionSecurity,
	SectionPerformance,
	SectionPortability,
	SectionCommandBreakdown,
	SectionLogicVisualization,
	SectionTestSuite,
	SectionTranslations,
	SectionGithub,
}

var sectionLabels = map[Section]string{
	SectionSummary:            "Summary",
	SectionInteractiveQA:      "Interactive Q&A",
	SectionStrengths:          "Strengths",
	SectionWeaknesses:         "Weaknesses & Risks",
	SectionSuggestions:        "Improvement Suggestions",
	SectionSecurity:           "Security Audit",
	SectionPerformance:        "Performance Profile",
	SectionPortability:        "Portability Analysis",
	SectionCommandBreakdown:   "Command Breakdown",
	SectionLogicVisualization: "Logic Visualization",
	SectionTestSuite:          "Generated Test Suite",
	SectionTranslations:       "Translations",
	SectionGithub:             "GitHub Assets",
}

// Label returns the display label of s.
func (s Section) Label() string {
	if l, ok := sectionLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known section key.
func (s Section) Valid() bool {
	_, ok := sectionLabels[s]
	return ok
}

// SectionSet is a set of enabled sections.
type SectionSet map[Section]bool

// DefaultSections enables every section.
func DefaultSections() SectionSet {
	set := make(SectionSet, len(AllSections))
	for _, s := range AllSections {
		set[s] = true
	}
	return set
}

// Has reports whether s is enabled.
func (set SectionSet) Has(s Section) bool { return set[s] }

// Ordered returns the enabled sections in display order.
func (set SectionSet) Ordered() []Section {
	out := make([]Section, 0, len(set))
	for _, s := range AllSections {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

// ParseSections parses a comma separated list of section keys. An empty
// string selects every section.
func ParseSections(raw string) (SectionSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSections(), nil
	}
	set := SectionSet{}
	for _, part := range strings.Split(raw, ",") {
		s := Section(strings.TrimSpace(part))
		if s == "" {
			continue
		}
		if !s.Valid() {
			return nil, fmt.Errorf("unknown section %q", s)
		}
		set[s] = true
	}
	return set, nil
}
