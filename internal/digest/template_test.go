package digest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmail/internal/digest"
	"calmail/internal/model"
)

const testTemplate = `<html><body>
<h1>Agenda</h1>
<!-- EVENT_LOOP_START -->
<div style="color: {event_color}">{icon} {title} — {time} @ {location}</div>
{description}
<!-- EVENT_LOOP_END -->
<footer>fin</footer>
</body></html>`

func displayEvents(titles ...string) []model.DisplayEvent {
	out := make([]model.DisplayEvent, 0, len(titles))
	for _, title := range titles {
		out = append(out, model.DisplayEvent{
			Title:    title,
			Time:     "10:00",
			Location: "Salle polyvalente",
			Color:    "#ff6b6b",
			Icon:     "🎉",
		})
	}
	return out
}

func TestCompile_SubstitutesEachEvent(t *testing.T) {
	out, err := digest.Compile(testTemplate, displayEvents("Repas partagé", "Randonnée"))
	require.NoError(t, err)

	assert.Contains(t, out, "Repas partagé")
	assert.Contains(t, out, "Randonnée")
	assert.Contains(t, out, "<h1>Agenda</h1>")
	assert.Contains(t, out, "<footer>fin</footer>")
	assert.Contains(t, out, `color: #ff6b6b`)
}

func TestCompile_OutputContainsNoMarkers(t *testing.T) {
	for _, events := range [][]model.DisplayEvent{nil, displayEvents("Un seul"), displayEvents("a", "b", "c")} {
		out, err := digest.Compile(testTemplate, events)
		require.NoError(t, err)
		assert.NotContains(t, out, digest.StartMarker)
		assert.NotContains(t, out, digest.EndMarker)
	}
}

func TestCompile_ZeroEventsRemovesRegion(t *testing.T) {
	out, err := digest.Compile(testTemplate, nil)
	require.NoError(t, err)

	assert.NotContains(t, out, "{title}")
	assert.Contains(t, out, "<h1>Agenda</h1>")
	assert.Contains(t, out, "<footer>fin</footer>")
}

func TestCompile_UnknownPlaceholdersStayVerbatim(t *testing.T) {
	tmpl := "a <!-- EVENT_LOOP_START --> {title} {mystery_field} <!-- EVENT_LOOP_END --> z"

	out, err := digest.Compile(tmpl, displayEvents("Concert"))
	require.NoError(t, err)
	assert.Contains(t, out, "Concert")
	assert.Contains(t, out, "{mystery_field}")
}

func TestCompile_MissingRegionReturnsInputAndError(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
	}{
		{"NoMarkers", "<html><body>rien</body></html>"},
		{"OnlyStart", "x <!-- EVENT_LOOP_START --> y"},
		{"EndBeforeStart", "x <!-- EVENT_LOOP_END --> y <!-- EVENT_LOOP_START --> z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := digest.Compile(tt.tmpl, displayEvents("Concert"))
			assert.ErrorIs(t, err, digest.ErrNoEventRegion)
			assert.Equal(t, tt.tmpl, out)
		})
	}
}

func TestCompile_RecompilingCompiledOutputIsANoOp(t *testing.T) {
	first, err := digest.Compile(testTemplate, displayEvents("Repas partagé"))
	require.NoError(t, err)

	second, err := digest.Compile(first, nil)
	assert.ErrorIs(t, err, digest.ErrNoEventRegion)
	assert.Equal(t, first, second)
	assert.NotContains(t, second, digest.StartMarker)
	assert.NotContains(t, second, digest.EndMarker)
}

func TestCompile_JoinsBlocksWithSingleNewline(t *testing.T) {
	tmpl := "<!-- EVENT_LOOP_START -->[{title}]<!-- EVENT_LOOP_END -->"

	out, err := digest.Compile(tmpl, displayEvents("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "[a]\n[b]", out)
}

func TestLoadTemplate_BundledSet(t *testing.T) {
	names := digest.AvailableTemplates()
	assert.Contains(t, names, "design_classique")
	assert.Contains(t, names, "design_moderne")

	for _, name := range names {
		tmpl, err := digest.LoadTemplate(name, "")
		require.NoError(t, err)
		assert.Contains(t, tmpl, digest.StartMarker)
		assert.Contains(t, tmpl, digest.EndMarker)
	}

	_, err := digest.LoadTemplate("design_inconnu", "")
	assert.Error(t, err)
}

func TestBundledTemplates_CompileCleanly(t *testing.T) {
	for _, name := range digest.AvailableTemplates() {
		tmpl, err := digest.LoadTemplate(name, "")
		require.NoError(t, err)

		out, err := digest.Compile(tmpl, displayEvents("Repas partagé", "Randonnée"))
		require.NoError(t, err)
		assert.NotContains(t, out, digest.StartMarker)
		assert.NotContains(t, out, digest.EndMarker)
		assert.Contains(t, out, "Repas partagé")
	}
}
