package digest

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"calmail/internal/model"
)

// Region markers delimiting the repeatable event block in a template.
const (
	StartMarker = "<!-- EVENT_LOOP_START -->"
	EndMarker   = "<!-- EVENT_LOOP_END -->"
)

// ErrNoEventRegion is returned when a template carries no marker-delimited
// event region. Compile returns the document unchanged alongside it so the
// caller decides whether to abort.
var ErrNoEventRegion = errors.New("template has no event region markers")

//go:embed templates/*.html
var bundledTemplates embed.FS

// LoadTemplate resolves a template by name. A non-empty dir is searched
// first; the bundled set serves as fallback.
func LoadTemplate(name, dir string) (string, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name+".html"))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	data, err := bundledTemplates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("template %q not found: %w", name, err)
	}
	return string(data), nil
}

// AvailableTemplates lists the bundled template names, sorted.
func AvailableTemplates() []string {
	entries, err := bundledTemplates.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".html"))
	}
	sort.Strings(names)
	return names
}

// Compile instantiates the template's event block once per display event and
// splices the result over the marked region, markers included. The output
// never contains the markers.
//
// Placeholders with no matching field are left verbatim, which lets a
// template mention fields it does not use.
func Compile(templateText string, events []model.DisplayEvent) (string, error) {
	start := strings.Index(templateText, StartMarker)
	if start < 0 {
		return templateText, ErrNoEventRegion
	}
	innerStart := start + len(StartMarker)

	endRel := strings.Index(templateText[innerStart:], EndMarker)
	if endRel < 0 {
		return templateText, ErrNoEventRegion
	}
	end := innerStart + endRel

	block := strings.TrimSpace(templateText[innerStart:end])

	parts := make([]string, 0, len(events))
	for _, ev := range events {
		parts = append(parts, fillBlock(block, ev))
	}

	return templateText[:start] + strings.Join(parts, "\n") + templateText[end+len(EndMarker):], nil
}

func fillBlock(block string, ev model.DisplayEvent) string {
	out := block
	for field, value := range ev.Fields() {
		out = strings.ReplaceAll(out, "{"+field+"}", value)
	}
	return out
}
