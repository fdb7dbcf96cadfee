package matcher

import "testing"

func TestRatio_ExactMatchCaseInsensitive(t *testing.T) {
	if got := Ratio("Annex A.pdf", "annex a.pdf"); got != 1.0 {
		t.Fatalf("expected 1.0 for case-insensitive equality, got %v", got)
	}
}

func TestRatio_EmptyStrings(t *testing.T) {
	if got := Ratio("", ""); got != 1.0 {
		t.Errorf("expected 1.0 for two empty strings, got %v", got)
	}
	if got := Ratio("", "abc"); got != 0 {
		t.Errorf("expected 0 when one side is empty, got %v", got)
	}
}

func TestRatio_DisjointStrings(t *testing.T) {
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Errorf("expected 0 for disjoint strings, got %v", got)
	}
}

func TestRatio_NormalizedByLongerString(t *testing.T) {
	// "annex b.pdf" shares "annex" and ".pdf" with the candidate but the
	// candidate is much longer, so the score stays below 0.6.
	if got := Ratio("Annex B.pdf", "annex_a_report.pdf"); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestBestMatch_ThresholdScenario(t *testing.T) {
	candidates := []string{"annex_a_report.pdf", "other.pdf"}

	best, ok := BestMatch("Annex A Report.pdf", candidates)
	if !ok {
		t.Fatal("expected a best match")
	}
	if best.Candidate != "annex_a_report.pdf" {
		t.Errorf("expected annex_a_report.pdf, got %s", best.Candidate)
	}
	if best.Score < 0.6 {
		t.Errorf("expected score >= 0.6, got %v", best.Score)
	}

	best, ok = BestMatch("Annex B.pdf", candidates)
	if !ok {
		t.Fatal("expected a best candidate even when below threshold")
	}
	if best.Score >= 0.6 {
		t.Errorf("expected score < 0.6 for Annex B.pdf, got %v against %s", best.Score, best.Candidate)
	}
}

func TestBestMatch_FirstCandidateWinsTies(t *testing.T) {
	best, ok := BestMatch("ab", []string{"ab", "AB"})
	if !ok {
		t.Fatal("expected a best match")
	}
	if best.Candidate != "ab" {
		t.Errorf("expected first tied candidate to win, got %s", best.Candidate)
	}
	if best.Score != 1.0 {
		t.Errorf("expected score 1.0, got %v", best.Score)
	}
}

func TestBestMatch_NoCandidates(t *testing.T) {
	if _, ok := BestMatch("anything", nil); ok {
		t.Fatal("expected no match for empty candidate list")
	}
}
