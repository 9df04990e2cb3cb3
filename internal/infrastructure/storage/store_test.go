package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isoplan/planner/internal/domain/plan"
)

func sampleDocument(t *testing.T) *plan.Document {
	t.Helper()
	doc := plan.Default()
	require.NoError(t, doc.UpdateOrganisation(plan.OrganisationInfo{
		Name:          "Åkerlund & Co",
		Size:          42,
		ContactPerson: "Eva <CISO>",
		TargetDate:    "2027-01-15",
	}))
	require.NoError(t, doc.SetChecklistItem("ledningens_engagemang", "ledning_godkant", true))
	require.NoError(t, doc.SetChecklistItem("scope", "granser_dokumenterade", false))
	require.NoError(t, doc.SetStep("1", true))
	require.NoError(t, doc.SetStep("2", false))
	_, err := doc.AddActivity(plan.Activity{
		Description: "Genomför gap-analys",
		Priority:    plan.PriorityHigh,
		DueDate:     "2026-11-30",
		Responsible: "IT",
	})
	require.NoError(t, err)
	return doc
}

func TestLoadMissingFileYieldsDefault(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "iso27001_data.json"), nil)

	doc, source := store.Load()

	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, plan.Default(), doc)
}

func TestLoadMalformedFileYieldsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iso27001_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"checklists": [`), 0o644))

	doc, source := NewStore(path, nil).Load()

	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, plan.Default(), doc)
}

func TestLoadUnreadablePathYieldsDefault(t *testing.T) {
	// A directory cannot be read as a file
	doc, source := NewStore(t.TempDir(), nil).Load()

	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, plan.Default(), doc)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "iso27001_data.json"), nil)
	doc := sampleDocument(t)

	require.NoError(t, store.Save(doc))
	loaded, source := store.Load()

	assert.Equal(t, SourceFile, source)
	assert.Equal(t, doc, loaded)
}

func TestSavedFileIsReadableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iso27001_data.json")
	store := NewStore(path, nil)
	require.NoError(t, store.Save(sampleDocument(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasSuffix(text, "\n"))
	assert.Contains(t, text, "\n  \"activities\"")
	assert.Contains(t, text, "Åkerlund & Co")
	assert.Contains(t, text, "Eva <CISO>")
	assert.Contains(t, text, "Hög")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"organisation_info", "checklists", "step_progress", "activities"} {
		assert.Contains(t, raw, key)
	}
}

func TestLoadPatchesMissingCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iso27001_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "organisation_info": {"org_name": "Acme", "org_size": 3},
  "checklists": {"scope": {"scope_definierat": true}}
}`), 0o644))

	doc, source := NewStore(path, nil).Load()

	require.Equal(t, SourceFile, source)
	assert.True(t, doc.Checklists["scope"]["scope_definierat"])
	assert.NotNil(t, doc.Checklists["kontroller"])
	assert.NotNil(t, doc.StepProgress)
	assert.NotNil(t, doc.Activities)
}

func TestSaveFailureKeepsDocumentAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	// Target is a non-empty directory, so the final rename fails
	target := filepath.Join(dir, "occupied")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o755))

	doc := sampleDocument(t)
	before := doc.Clone()

	err := NewStore(target, nil).Save(doc)
	require.Error(t, err)
	assert.Equal(t, before, doc)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestSaveIntoMissingDirectoryFails(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing", "iso27001_data.json"), nil)
	assert.Error(t, store.Save(plan.Default()))
}

func TestSaveOverwritesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iso27001_data.json")
	store := NewStore(path, nil)
	require.NoError(t, store.Save(sampleDocument(t)))

	require.NoError(t, store.Save(plan.Default()))
	loaded, _ := store.Load()
	assert.Equal(t, plan.Default(), loaded)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "iso27001_plan_20261018.json", ExportFilename("iso27001_plan", FormatJSON, now))
	assert.Equal(t, "iso27001_plan_20261018.yaml", ExportFilename("iso27001_plan", FormatYAML, now))
}

func TestExportJSONMatchesSavedDocument(t *testing.T) {
	doc := sampleDocument(t)
	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	dl, err := Export(doc, "iso27001_plan", FormatJSON, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", dl.ContentType)
	assert.Equal(t, "iso27001_plan_20261018.json", dl.Filename)

	decoded, err := Decode(dl.Data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestExportYAML(t *testing.T) {
	doc := sampleDocument(t)

	dl, err := Export(doc, "iso27001_plan", FormatYAML, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", dl.ContentType)

	var decoded plan.Document
	require.NoError(t, yaml.Unmarshal(dl.Data, &decoded))
	assert.Equal(t, doc.Organisation, decoded.Organisation)
	assert.Equal(t, doc.Activities, decoded.Activities)
	assert.True(t, decoded.Checklists["ledningens_engagemang"]["ledning_godkant"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
