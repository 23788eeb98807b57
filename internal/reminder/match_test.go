package reminder

import "testing"

func TestMatchesMedicationName(t *testing.T) {
	cases := []struct {
		name, fragment string
		want           bool
	}{
		{"Aspirin", "aspirin", true},
		{"Aspirin 100mg", "Aspirin", true},
		{"Aspirin", "Take your Aspirin with water", true},
		{"Metformin", "Aspirin", false},
		{"", "Aspirin", false},
		{"Aspirin", "  ", false},
		// 已知误判：短药名
		{"D", "Take vitamin D", true},
	}
	for _, c := range cases {
		if got := MatchesMedicationName(c.name, c.fragment); got != c.want {
			t.Errorf("MatchesMedicationName(%q, %q) = %v, want %v", c.name, c.fragment, got, c.want)
		}
	}
}

func TestPickMedicationFirstMatchWins(t *testing.T) {
	meds := []Medication{
		{ID: 1, Name: "Aspirin", Taken: true},
		{ID: 2, Name: "Aspirin 100mg"},
		{ID: 3, Name: "aspirin"},
		{ID: 4, Name: "Metformin"},
	}
	med, matches := PickMedication(meds, "Aspirin")
	if med == nil || med.ID != 2 {
		t.Fatalf("picked %+v, want id 2", med)
	}
	if matches != 2 {
		t.Fatalf("matches = %d, want 2", matches)
	}

	if med, matches := PickMedication(meds, "Insulin"); med != nil || matches != 0 {
		t.Fatalf("unexpected match %+v (%d)", med, matches)
	}
}

func TestMedicationFragment(t *testing.T) {
	if got := MedicationFragment(Definition{Title: "Meds", Message: " Aspirin "}); got != "Aspirin" {
		t.Fatalf("fragment = %q", got)
	}
	if got := MedicationFragment(Definition{Title: "Metformin"}); got != "Metformin" {
		t.Fatalf("fragment = %q", got)
	}
}
