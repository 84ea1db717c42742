package diff

import (
	"strings"
	"testing"
)

func strip(s string) string {
	s = strings.ReplaceAll(s, openMark, "")
	return strings.ReplaceAll(s, closeMark, "")
}

func TestRender_EqualTitlesUnmarked(t *testing.T) {
	titles := []string{
		"",
		"Frana a Cortina",
		"Neve in Marmolada, chiusi gli impianti",
	}

	for _, title := range titles {
		oldMarked, newMarked := Render(title, title)
		if oldMarked != title {
			t.Errorf("old side marked for identical input %q: %q", title, oldMarked)
		}
		if newMarked != title {
			t.Errorf("new side marked for identical input %q: %q", title, newMarked)
		}
	}
}

func TestRender_InsertionMarkedOnlyInNew(t *testing.T) {
	oldMarked, newMarked := Render("Frana a Cortina", "Grande frana a Cortina")

	if oldMarked != "Frana a Cortina" {
		t.Errorf("expected old side unmarked, got %q", oldMarked)
	}
	if want := "<b><u>Grande </u></b>frana a Cortina"; newMarked != want {
		t.Errorf("new side: got %q, want %q", newMarked, want)
	}
}

func TestRender_DeletionMarkedOnlyInOld(t *testing.T) {
	oldMarked, newMarked := Render("Grande frana a Cortina", "Frana a Cortina")

	if want := "<b><u>Grande </u></b>frana a Cortina"; oldMarked != want {
		t.Errorf("old side: got %q, want %q", oldMarked, want)
	}
	if newMarked != "Frana a Cortina" {
		t.Errorf("expected new side unmarked, got %q", newMarked)
	}
}

func TestRender_SeparateRunsGetSeparateSpans(t *testing.T) {
	oldMarked, _ := Render("aXbYc", "abc")

	if want := "a<b><u>X</u></b>b<b><u>Y</u></b>c"; oldMarked != want {
		t.Errorf("got %q, want %q", oldMarked, want)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"Frana a Cortina", "Grande frana a Cortina"},
		{"Incidente sulla A22, due feriti", "Incidente sulla A22, tre feriti gravi"},
		{"Trento, nuovo sindaco eletto", "Bolzano, nuovo sindaco eletto"},
		{"", "Titolo nuovo"},
		{"Titolo vecchio", ""},
		{"Maltempo &amp; frane", "Maltempo &amp; valanghe"},
	}

	for _, pair := range pairs {
		oldMarked, newMarked := Render(pair[0], pair[1])
		if got := strip(oldMarked); got != pair[0] {
			t.Errorf("old round-trip: got %q, want %q (marked: %q)", got, pair[0], oldMarked)
		}
		if got := strip(newMarked); got != pair[1] {
			t.Errorf("new round-trip: got %q, want %q (marked: %q)", got, pair[1], newMarked)
		}
	}
}

func TestRender_CaseOnlyChangeAnchorsAlignment(t *testing.T) {
	oldMarked, newMarked := Render("frana a cortina", "Frana a Cortina")

	if oldMarked != "frana a cortina" {
		t.Errorf("expected old side unmarked, got %q", oldMarked)
	}
	if newMarked != "Frana a Cortina" {
		t.Errorf("expected new side unmarked, got %q", newMarked)
	}
}
