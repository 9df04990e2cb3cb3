// Package prompts renders generation prompts from a plan document.
package prompts

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/isoplan/planner/internal/domain/plan"
)

// Ping asks the model for a fixed acknowledgement.
const Ping = `Ping test: Svara "OK" om du får detta meddelande.`

// notSet fills organisation fields that were never entered.
const notSet = "Ej angivet"

var funcs = template.FuncMap{
	"join": strings.Join,
}

var analysisTmpl = template.Must(template.New("analysis").Funcs(funcs).Parse(
	`Analysera följande ISO 27001-implementeringsdata och ge konkreta rekommendationer:

Organisationsinformation:
- Namn: {{.OrgName}}
- Antal anställda: {{.OrgSize}}

Checklista status:
{{range .Categories}}{{.Title}}:
{{join .Completed ", "}}

{{end}}Genomförda steg: {{.StepsDone}} av {{.StepsTotal}}

Ge specifika rekommendationer för:
1. Nästa kritiska steg
2. Potentiella risker att vara uppmärksam på
3. Förslag på förbättringar
4. Tidslinje för implementation

Svara på svenska och var konkret i dina rekommendationer.
`))

var stepTmpl = template.Must(template.New("step").Parse(
	`Ge konkreta rekommendationer för följande steg i ISO 27001-implementationen:

Steg: {{.Label}}
Beskrivning: {{.Description}}
Förväntade leverabler: {{.Deliverables}}

Ge specifika, praktiska råd om:
1. Hur man bäst genomför detta steg
2. Vanliga fallgropar att undvika
3. Viktiga framgångsfaktorer
4. Konkreta exempel på best practices

Svara på svenska och var mycket specifik.
`))

var actionPlanTmpl = template.Must(template.New("action_plan").Funcs(funcs).Parse(
	`Analysera följande handlingsplan för ISO 27001-implementering och ge konkreta rekommendationer:

Organisationsinformation:
- Namn: {{.OrgName}}
- Antal anställda: {{.OrgSize}}
- Målsättning för certifiering: {{.TargetDate}}

Nuvarande aktiviteter i handlingsplanen:
{{range .Activities}}- {{.Description}} (Prioritet: {{.Priority}}, Status: {{.Status}}, Deadline: {{.DueDate}})
{{else}}(inga aktiviteter)
{{end}}
Checklista status:
{{range .Categories}}{{.Title}}: {{join .Completed ", "}}
{{end}}
Baserat på denna information, ge rekommendationer om:
1. Saknade kritiska aktiviteter som bör läggas till
2. Förslag på omprioritering av befintliga aktiviteter
3. Tidslinjejusteringar baserat på best practices
4. Specifika åtgärder för att öka effektiviteten
5. Risker att vara uppmärksam på

Svara på svenska och var mycket specifik i dina rekommendationer.
Om det saknas aktiviteter, ge konkreta exempel på aktiviteter som bör läggas till.
`))

type categoryView struct {
	Title     string
	Completed []string
}

type planView struct {
	OrgName    string
	OrgSize    string
	TargetDate string
	Categories []categoryView
	Activities []plan.Activity
	StepsDone  int
	StepsTotal int
}

func newPlanView(doc *plan.Document) planView {
	org := doc.Organisation
	v := planView{
		OrgName:    orDefault(org.Name),
		OrgSize:    notSet,
		TargetDate: orDefault(org.TargetDate),
		Activities: doc.Activities,
		StepsDone:  doc.CompletedSteps(),
		StepsTotal: len(plan.Steps()),
	}
	if org.Size > 0 {
		v.OrgSize = strconv.Itoa(org.Size)
	}
	for _, cat := range plan.DefaultCatalog().Categories {
		v.Categories = append(v.Categories, categoryView{
			Title:     cat.Title,
			Completed: doc.CompletedItems(cat.Key),
		})
	}
	return v
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSet
	}
	return s
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", t.Name(), err)
	}
	return sb.String(), nil
}

// Analysis builds the overall plan analysis prompt.
func Analysis(doc *plan.Document) (string, error) {
	return render(analysisTmpl, newPlanView(doc))
}

// StepRecommendations builds the advice prompt for one step.
func StepRecommendations(step plan.Step) (string, error) {
	return render(stepTmpl, struct {
		Label        string
		Description  string
		Deliverables string
	}{step.Label(), step.Description, step.Deliverables})
}

// ActionPlan builds the action plan analysis prompt.
func ActionPlan(doc *plan.Document) (string, error) {
	return render(actionPlanTmpl, newPlanView(doc))
}
