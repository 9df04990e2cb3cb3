package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isoplan/planner/internal/domain/plan"
	"github.com/isoplan/planner/internal/domain/session"
	"github.com/isoplan/planner/internal/infrastructure/storage"
	"github.com/isoplan/planner/internal/shared/utils"
)

type progressView struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
	Percent   int     `json:"percent"`
}

func progressOf(doc *plan.Document) progressView {
	return progressView{
		Completed: doc.CompletedSteps(),
		Total:     len(plan.Steps()),
		Ratio:     doc.Progress(),
		Percent:   doc.ProgressPercent(),
	}
}

type stepView struct {
	plan.Step
	Done bool `json:"done"`
}

type activityView struct {
	Index int `json:"index"`
	plan.Activity
}

func activitiesOf(doc *plan.Document) []activityView {
	out := make([]activityView, len(doc.Activities))
	for i, a := range doc.Activities {
		out[i] = activityView{Index: i, Activity: a}
	}
	return out
}

// GetPlan returns the whole session document
func (h *Handlers) GetPlan(c *gin.Context) {
	var (
		doc      *plan.Document
		progress progressView
	)
	err := withState(c, func(st *session.State) error {
		doc = st.Document.Clone()
		progress = progressOf(st.Document)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":     doc,
		"progress": progress,
	})
}

type organisationRequest struct {
	Name          string `json:"org_name"`
	Size          int    `json:"org_size"`
	ContactPerson string `json:"contact_person"`
	TargetDate    string `json:"target_date"`
}

// UpdateOrganisation replaces the organisation info
func (h *Handlers) UpdateOrganisation(c *gin.Context) {
	var req organisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}

	info := plan.OrganisationInfo{
		Name:          utils.SanitizeText(req.Name),
		Size:          req.Size,
		ContactPerson: utils.SanitizeText(req.ContactPerson),
		TargetDate:    req.TargetDate,
	}
	if err := utils.ValidateName(info.Name, "org_name", false); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}
	if err := utils.ValidateName(info.ContactPerson, "contact_person", false); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}

	err := withState(c, func(st *session.State) error {
		return st.Document.UpdateOrganisation(info)
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organisation_info": info})
}

// SetChecklistItem sets one checklist item
func (h *Handlers) SetChecklistItem(c *gin.Context) {
	category := c.Param("category")
	item := c.Param("item")

	var req struct {
		Checked *bool `json:"checked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}

	var items map[string]bool
	err := withState(c, func(st *session.State) error {
		if err := st.Document.SetChecklistItem(category, item, *req.Checked); err != nil {
			return err
		}
		items = copyItems(st.Document.Checklists[category])
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"items":    items,
	})
}

// ReplaceChecklist overwrites one checklist category
func (h *Handlers) ReplaceChecklist(c *gin.Context) {
	category := c.Param("category")

	var req struct {
		Items map[string]bool `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}

	var items map[string]bool
	err := withState(c, func(st *session.State) error {
		if err := st.Document.ReplaceChecklist(category, req.Items); err != nil {
			return err
		}
		items = copyItems(st.Document.Checklists[category])
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"items":    items,
	})
}

func copyItems(items map[string]bool) map[string]bool {
	out := make(map[string]bool, len(items))
	for k, v := range items {
		out[k] = v
	}
	return out
}

// SetStep records completion of one implementation step
func (h *Handlers) SetStep(c *gin.Context) {
	stepID := c.Param("step")

	var req struct {
		Done *bool `json:"done" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}

	var progress progressView
	err := withState(c, func(st *session.State) error {
		if err := st.Document.SetStep(stepID, *req.Done); err != nil {
			return err
		}
		progress = progressOf(st.Document)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"step":     stepID,
		"done":     *req.Done,
		"progress": progress,
	})
}

// ListSteps lists the implementation steps with their completion flags
func (h *Handlers) ListSteps(c *gin.Context) {
	var (
		steps    []stepView
		progress progressView
	)
	err := withState(c, func(st *session.State) error {
		for _, s := range plan.Steps() {
			steps = append(steps, stepView{Step: s, Done: st.Document.StepProgress[s.ID]})
		}
		progress = progressOf(st.Document)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"steps":    steps,
		"progress": progress,
	})
}

type activityRequest struct {
	Activity    string        `json:"activity"`
	Priority    plan.Priority `json:"priority"`
	DueDate     string        `json:"due_date"`
	Responsible string        `json:"responsible"`
}

// AddActivity appends an activity to the action plan
func (h *Handlers) AddActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}

	activity := plan.Activity{
		Description: utils.SanitizeText(req.Activity),
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Responsible: utils.SanitizeText(req.Responsible),
	}
	if err := utils.ValidateDescription(activity.Description, "activity", true); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}
	if err := utils.ValidateName(activity.Responsible, "responsible", false); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}

	var view activityView
	err := withState(c, func(st *session.State) error {
		index, err := st.Document.AddActivity(activity)
		if err != nil {
			return err
		}
		view = activityView{Index: index, Activity: st.Document.Activities[index]}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListActivities lists the action plan
func (h *Handlers) ListActivities(c *gin.Context) {
	var activities []activityView
	err := withState(c, func(st *session.State) error {
		activities = activitiesOf(st.Document)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// SetActivityStatus updates the status of one activity
func (h *Handlers) SetActivityStatus(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, invalid("activity index must be an integer"))
		return
	}

	var req struct {
		Status plan.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}

	var view activityView
	err = withState(c, func(st *session.State) error {
		if err := st.Document.SetActivityStatus(index, req.Status); err != nil {
			return err
		}
		view = activityView{Index: index, Activity: st.Document.Activities[index]}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SavePlan writes the session document to disk
func (h *Handlers) SavePlan(c *gin.Context) {
	err := withState(c, func(st *session.State) error {
		return h.store.Save(st.Document)
	})
	if h.metrics != nil {
		h.metrics.RecordSave(err)
	}
	if err != nil {
		h.logger.Error("Failed to save plan", zap.String("path", h.store.Path()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgSaveFailed + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"saved":   true,
		"message": msgSaved,
	})
}

// ExportPlan returns the session document as a timestamped download
func (h *Handlers) ExportPlan(c *gin.Context) {
	format, err := storage.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, invalid("%v", err))
		return
	}

	var dl *storage.Download
	err = withState(c, func(st *session.State) error {
		var err error
		dl, err = storage.Export(st.Document, h.exportPrefix, format, h.now())
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordExport(string(format))
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	c.Header("ETag", strconv.Quote(utils.Fingerprint(dl.Data)))
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}
