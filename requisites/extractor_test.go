package requisites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNoRequirements(t *testing.T) {
	extractor := NewExtractor()

	for _, description := range []string{
		"sciences. No prerequisite. May",
		"and has no prerequisites. This",
		"Asia. No Prerequisites. Taught",
		"Note: Consult the Department of Psychology's website for the specific topic(s) offered each year and any additional prerequisites. [Faculty of Arts]",
		"Not open to students with C LIT 100.",
		"",
	} {
		assert.Empty(t, extractor.Extract(description), description)
	}
}

func TestExtractSingleRequirement(t *testing.T) {
	tests := []struct {
		name        string
		description string
		kind        Kind
		text        string
	}{
		{"colon", "system. Prerequisites: Math 30 or 31. Note:", Prerequisite, "Math 30 or 31"},
		{"period separator", "included. Prerequisite. Mathematics 30-1. Note:", Prerequisite, "Mathematics 30-1"},
		{"semicolon separator",
			"practices. Prerequisites; EASIA 101 and 3 units in EASIA at a senior level, or consent of Department.",
			Prerequisite, "EASIA 101 and 3 units in EASIA at a senior level, or consent of Department"},
		{"no separator", "Prerequisite MATH 227, or both MATH 225 and 228", Prerequisite, "MATH 227, or both MATH 225 and 228"},
		{"space before colon",
			"Préalable(s) : un cours de niveau 200 en biologie (ZOOL 250 et IMIN ou IMINE 200 recommandés).",
			Prerequisite, "un cours de niveau 200 en biologie (ZOOL 250 et IMIN ou IMINE 200 recommandés)"},
		{"prérequis", "comptables. Prérequis: ADMI 311, 322 ou ACCTG 311, 322. Ce", Prerequisite, "ADMI 311, 322 ou ACCTG 311, 322"},
		{"extra whitespace", "Prerequisite:   LAW 524", Prerequisite, "LAW 524"},
		{"spaced french plural", "Préalable (s) : PSYCE 239 ou équivalent.", Prerequisite, "PSYCE 239 ou équivalent"},
		{"pre- or co-requisites", "Pre- or co-requisites: ECON 101 and 102.", Corequisite, "ECON 101 and 102"},
		{"sentence following",
			"statements. Pre- or co-requisites: ECON 101 and 102. Students may not receive credit for both ACCTG 211 and ACCTG 311.",
			Corequisite, "ECON 101 and 102"},
		{"prerequisite or corequisite", "Prerequisite or corequisite: A Calculus IV course.", Corequisite, "A Calculus IV course"},
		{"capitalised", "Prerequisite or Corequisite: ECON 481 and 482.", Corequisite, "ECON 481 and 482"},
		{"plural", "Prerequisites or corequisites: DES 493 and consent of Department.", Corequisite, "DES 493 and consent of Department"},
		{"corequisite first",
			"Corequisite or prerequisite: Music 121 or 125, or 124, or consent of Department. ",
			Corequisite, "or prerequisite: Music 121 or 125, or 124, or consent of Department"},
		{"concomitant", "Pour les étudiants du BEd/Ad : Préalable ou concomitant : EDU S 101. ", Corequisite, "EDU S 101"},
		{"leading space",
			" Corequisite: MATH 118 or 146. Note: MATH 115 is not acceptable as a co-requisite but may be used as a pre-requisite in place of MATH 118 or 146.",
			Corequisite, "MATH 118 or 146"},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := extractor.Extract(tt.description)
			require.Len(t, spans, 1, "%q", spans)
			assert.Equal(t, tt.kind, spans[0].Kind)
			assert.Equal(t, tt.text, spans[0].Text)
		})
	}
}

func TestExtractPicksEarliestLongestMatch(t *testing.T) {
	spans := NewExtractor().Extract("Prerequisite: PHYS 124 (see Note following) or 144. Corequisite: MATH 118 or 146.")
	assert.Equal(t, []Span{
		{Kind: Prerequisite, Text: "PHYS 124 (see Note following) or 144"},
		{Kind: Corequisite, Text: "MATH 118 or 146"},
	}, spans)
}

func TestExtractSkipsNotes(t *testing.T) {
	spans := NewExtractor().Extract(
		"Prerequisites: Mathematics 30-1 and Physics 30. Mathematics 31 is strongly recommended. " +
			"Corequisites: MATH 117 or 144. Note: MATH 113 or 114 is not acceptable as a co-requisite " +
			"but may be used as a pre-requisite in place of MATH 117 or 144. Note: Credit may be obtained " +
			"for only one of PHYS 124, 144, EN PH 131 or SCI 100. ")
	assert.Equal(t, []Span{
		{Kind: Prerequisite, Text: "Mathematics 30-1 and Physics 30"},
		{Kind: Corequisite, Text: "MATH 117 or 144"},
	}, spans)
}

func TestExtractStopsAtFirstPeriod(t *testing.T) {
	spans := NewExtractor().Extract(
		"Prerequisite: AUEAP 145 or EAP 145 or equivalent (i.e., other L2/ESL students who were not required to take the Bridging Program).")
	require.Len(t, spans, 1)
	assert.Equal(t, "AUEAP 145 or EAP 145 or equivalent (i", spans[0].Text)
}
