package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isoplan/planner/internal/domain/plan"
)

func TestAnalysisOfDefaultDocument(t *testing.T) {
	prompt, err := Analysis(plan.Default())
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Namn: Ej angivet")
	assert.Contains(t, prompt, "- Antal anställda: Ej angivet")
	assert.Contains(t, prompt, "Genomförda steg: 0 av 9")
	assert.Contains(t, prompt, "Svara på svenska")
	for _, cat := range plan.DefaultCatalog().Categories {
		assert.Contains(t, prompt, cat.Title+":")
	}
}

func TestAnalysisListsCompletedItems(t *testing.T) {
	doc := plan.Default()
	require.NoError(t, doc.UpdateOrganisation(plan.OrganisationInfo{Name: "Acme <AB>", Size: 25}))
	require.NoError(t, doc.SetChecklistItem("ledningens_engagemang", "ledning_godkant", true))
	require.NoError(t, doc.SetChecklistItem("ledningens_engagemang", "projektledare_utsedd", true))
	require.NoError(t, doc.SetChecklistItem("ledningens_engagemang", "resurser_allokerade", false))
	require.NoError(t, doc.SetStep("1", true))

	prompt, err := Analysis(doc)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Namn: Acme <AB>")
	assert.Contains(t, prompt, "- Antal anställda: 25")
	assert.Contains(t, prompt, "Ledningens engagemang:\nledning_godkant, projektledare_utsedd\n")
	assert.NotContains(t, prompt, "resurser_allokerade")
	assert.Contains(t, prompt, "Genomförda steg: 1 av 9")
}

func TestStepRecommendations(t *testing.T) {
	step, ok := plan.LookupStep("2")
	require.True(t, ok)

	prompt, err := StepRecommendations(step)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Steg: 2. Gap-analys\n")
	assert.Contains(t, prompt, "Beskrivning: "+step.Description)
	assert.Contains(t, prompt, "Förväntade leverabler: "+step.Deliverables)
	assert.Contains(t, prompt, "Vanliga fallgropar att undvika")
}

func TestActionPlanListsActivities(t *testing.T) {
	doc := plan.Default()
	require.NoError(t, doc.UpdateOrganisation(plan.OrganisationInfo{Name: "Acme", Size: 3, TargetDate: "2027-06-01"}))
	_, err := doc.AddActivity(plan.Activity{
		Description: "Genomför riskanalys",
		Priority:    plan.PriorityHigh,
		DueDate:     "2026-12-01",
		Responsible: "CISO",
	})
	require.NoError(t, err)
	require.NoError(t, doc.SetChecklistItem("scope", "scope_definierat", true))

	prompt, err := ActionPlan(doc)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Målsättning för certifiering: 2027-06-01")
	assert.Contains(t, prompt, "- Genomför riskanalys (Prioritet: Hög, Status: Ej påbörjad, Deadline: 2026-12-01)\n")
	assert.Contains(t, prompt, "Omfattning (Scope): scope_definierat\n")
	assert.NotContains(t, prompt, "(inga aktiviteter)")
}

func TestActionPlanWithoutActivities(t *testing.T) {
	prompt, err := ActionPlan(plan.Default())
	require.NoError(t, err)

	assert.Contains(t, prompt, "(inga aktiviteter)")
	assert.Contains(t, prompt, "- Målsättning för certifiering: Ej angivet")
	assert.True(t, strings.HasSuffix(prompt, "bör läggas till.\n"))
}

func TestPing(t *testing.T) {
	assert.Equal(t, `Ping test: Svara "OK" om du får detta meddelande.`, Ping)
}
