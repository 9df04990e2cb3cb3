package plan

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the on-disk format of every date in the document.
const DateLayout = "2006-01-02"

var (
	ErrUnknownCategory = errors.New("unknown checklist category")
	ErrUnknownItem     = errors.New("unknown checklist item")
	ErrUnknownStep     = errors.New("unknown implementation step")
	ErrInvalidPriority = errors.New("invalid activity priority")
	ErrInvalidStatus   = errors.New("invalid activity status")
	ErrActivityIndex   = errors.New("activity index out of range")
	ErrInvalidOrgSize  = errors.New("organisation size must be at least 1")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
)

// Priority ranks an activity.
type Priority string

const (
	PriorityHigh   Priority = "Hög"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Låg"
)

// Priorities lists the allowed priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the fixed priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Status tracks activity completion.
type Status string

const (
	StatusNotStarted Status = "Ej påbörjad"
	StatusInProgress Status = "Pågående"
	StatusDone       Status = "Klar"
)

// Statuses lists the allowed statuses in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusDone}

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// OrganisationInfo describes the organisation seeking certification.
type OrganisationInfo struct {
	Name          string `json:"org_name,omitempty" yaml:"org_name,omitempty"`
	Size          int    `json:"org_size,omitempty" yaml:"org_size,omitempty"`
	ContactPerson string `json:"contact_person,omitempty" yaml:"contact_person,omitempty"`
	TargetDate    string `json:"target_date,omitempty" yaml:"target_date,omitempty"`
}

// Activity is one entry in the action plan.
type Activity struct {
	Description string   `json:"activity" yaml:"activity"`
	Priority    Priority `json:"priority" yaml:"priority"`
	DueDate     string   `json:"due_date" yaml:"due_date"`
	Responsible string   `json:"responsible" yaml:"responsible"`
	Status      Status   `json:"status" yaml:"status"`
}

// Document is the root of all persisted planning state.
type Document struct {
	Organisation OrganisationInfo           `json:"organisation_info" yaml:"organisation_info"`
	Checklists   map[string]map[string]bool `json:"checklists" yaml:"checklists"`
	StepProgress map[string]bool            `json:"step_progress" yaml:"step_progress"`
	Activities   []Activity                 `json:"activities" yaml:"activities"`
}

// Default returns a new document with the fixed default shape.
func Default() *Document {
	keys := CategoryKeys()
	checklists := make(map[string]map[string]bool, len(keys))
	for _, key := range keys {
		checklists[key] = map[string]bool{}
	}
	return &Document{
		Organisation: OrganisationInfo{},
		Checklists:   checklists,
		StepProgress: map[string]bool{},
		Activities:   []Activity{},
	}
}

// Normalize repairs a decoded document so every fixed category and map
// exists. Existing values are kept; step flags for unknown IDs are dropped.
func (d *Document) Normalize() {
	if d.Checklists == nil {
		d.Checklists = make(map[string]map[string]bool, len(catalog.Categories))
	}
	for _, c := range catalog.Categories {
		if d.Checklists[c.Key] == nil {
			d.Checklists[c.Key] = map[string]bool{}
		}
	}
	if d.StepProgress == nil {
		d.StepProgress = map[string]bool{}
	}
	for stepID := range d.StepProgress {
		if _, ok := LookupStep(stepID); !ok {
			delete(d.StepProgress, stepID)
		}
	}
	if d.Activities == nil {
		d.Activities = []Activity{}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Organisation: d.Organisation,
		Checklists:   make(map[string]map[string]bool, len(d.Checklists)),
		StepProgress: make(map[string]bool, len(d.StepProgress)),
		Activities:   make([]Activity, len(d.Activities)),
	}
	for cat, items := range d.Checklists {
		copied := make(map[string]bool, len(items))
		for k, v := range items {
			copied[k] = v
		}
		out.Checklists[cat] = copied
	}
	for k, v := range d.StepProgress {
		out.StepProgress[k] = v
	}
	copy(out.Activities, d.Activities)
	return out
}

// UpdateOrganisation replaces the organisation info wholesale.
func (d *Document) UpdateOrganisation(info OrganisationInfo) error {
	if info.Size < 1 {
		return ErrInvalidOrgSize
	}
	if info.TargetDate != "" {
		if err := validateDate(info.TargetDate); err != nil {
			return fmt.Errorf("target_date: %w", err)
		}
	}
	d.Organisation = info
	return nil
}

// SetChecklistItem sets one item and leaves every other value untouched.
func (d *Document) SetChecklistItem(category, item string, value bool) error {
	cat, ok := LookupCategory(category)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if !cat.HasItem(item) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownItem, category, item)
	}
	if d.Checklists == nil {
		d.Checklists = make(map[string]map[string]bool)
	}
	if d.Checklists[category] == nil {
		d.Checklists[category] = map[string]bool{}
	}
	d.Checklists[category][item] = value
	return nil
}

// ReplaceChecklist overwrites a category from the full set of current
// checkbox values. Items missing from values are recorded as false.
func (d *Document) ReplaceChecklist(category string, values map[string]bool) error {
	cat, ok := LookupCategory(category)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	for key := range values {
		if !cat.HasItem(key) {
			return fmt.Errorf("%w: %s/%s", ErrUnknownItem, category, key)
		}
	}

	replaced := make(map[string]bool, len(cat.Items))
	for _, it := range cat.Items {
		replaced[it.Key] = values[it.Key]
	}
	if d.Checklists == nil {
		d.Checklists = make(map[string]map[string]bool)
	}
	d.Checklists[category] = replaced
	return nil
}

// CompletedItems returns the checked item keys of a category, catalog
// items first in catalog order, then any extra keys sorted.
func (d *Document) CompletedItems(category string) []string {
	items := d.Checklists[category]
	var done []string
	known := make(map[string]bool)

	if cat, ok := LookupCategory(category); ok {
		for _, it := range cat.Items {
			known[it.Key] = true
			if items[it.Key] {
				done = append(done, it.Key)
			}
		}
	}

	var extra []string
	for k, v := range items {
		if v && !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(done, extra...)
}

// SetStep records completion for one implementation step.
func (d *Document) SetStep(stepID string, done bool) error {
	if _, ok := LookupStep(stepID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
	}
	if d.StepProgress == nil {
		d.StepProgress = map[string]bool{}
	}
	d.StepProgress[stepID] = done
	return nil
}

// CompletedSteps counts completed fixed steps.
func (d *Document) CompletedSteps() int {
	n := 0
	for _, s := range catalog.Steps {
		if d.StepProgress[s.ID] {
			n++
		}
	}
	return n
}

// Progress is the completed fraction of the fixed step sequence.
func (d *Document) Progress() float64 {
	return float64(d.CompletedSteps()) / float64(len(catalog.Steps))
}

// ProgressPercent is Progress truncated to a whole percentage.
func (d *Document) ProgressPercent() int {
	return d.CompletedSteps() * 100 / len(catalog.Steps)
}

// AddActivity appends a new activity with status "not started" and
// returns its index.
func (d *Document) AddActivity(a Activity) (int, error) {
	if !a.Priority.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, a.Priority)
	}
	if err := validateDate(a.DueDate); err != nil {
		return 0, fmt.Errorf("due_date: %w", err)
	}
	a.Status = StatusNotStarted
	d.Activities = append(d.Activities, a)
	return len(d.Activities) - 1, nil
}

// SetActivityStatus updates the status of the activity at index in place.
func (d *Document) SetActivityStatus(index int, status Status) error {
	if index < 0 || index >= len(d.Activities) {
		return fmt.Errorf("%w: %d", ErrActivityIndex, index)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	d.Activities[index].Status = status
	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}
