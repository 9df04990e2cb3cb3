// Package plan models the ISO 27001 planning document.
//
// A Document holds organisation info, five fixed checklist categories,
// completion flags for nine implementation steps, and an ordered activity
// list. The categories, items and steps come from an embedded catalog.
//
// Every mutation validates against the catalog and touches only the value
// it names:
//
//	doc := plan.Default()
//	_ = doc.SetChecklistItem("scope", "scope_definierat", true)
//	_ = doc.SetStep("1", true)
//	idx, _ := doc.AddActivity(plan.Activity{Description: "Gap-analys", Priority: plan.PriorityHigh, DueDate: "2026-11-01"})
package plan
