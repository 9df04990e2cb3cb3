package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/domain/plan"
	"github.com/isoplan/planner/internal/domain/prompts"
	"github.com/isoplan/planner/internal/domain/session"
	"github.com/isoplan/planner/internal/shared/utils"
)

// AnalyzePlan asks the model for an analysis of the whole plan
func (h *Handlers) AnalyzePlan(c *gin.Context) {
	h.generateFromPlan(c, ai.KindAnalysis, prompts.Analysis)
}

// AnalyzeActionPlan asks the model for an analysis of the action plan
func (h *Handlers) AnalyzeActionPlan(c *gin.Context) {
	h.generateFromPlan(c, ai.KindActionPlan, prompts.ActionPlan)
}

func (h *Handlers) generateFromPlan(c *gin.Context, kind string, build func(*plan.Document) (string, error)) {
	var reply ai.Reply
	err := withState(c, func(st *session.State) error {
		prompt, err := build(st.Document)
		if err != nil {
			return err
		}
		reply = h.dispatcher.Dispatch(c.Request.Context(), kind, ai.Request{Prompt: prompt})
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// StepRecommendations asks the model for advice on one step
func (h *Handlers) StepRecommendations(c *gin.Context) {
	step, ok := plan.LookupStep(c.Param("step"))
	if !ok {
		h.fail(c, plan.ErrUnknownStep)
		return
	}

	prompt, err := prompts.StepRecommendations(step)
	if err != nil {
		h.fail(c, err)
		return
	}

	var reply ai.Reply
	err = withState(c, func(st *session.State) error {
		reply = h.dispatcher.Dispatch(c.Request.Context(), ai.KindRecommendations, ai.Request{Prompt: prompt})
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"step":   step.Label(),
		"text":   reply.Text,
		"failed": reply.Failed,
	})
}

// Generate forwards a free-text prompt
func (h *Handlers) Generate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.badRequest(c, msgEmptyPrompt)
		return
	}
	if err := utils.ValidatePrompt(req.Prompt); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}

	reply := h.dispatcher.Dispatch(c.Request.Context(), ai.KindText, ai.Request{Prompt: req.Prompt})
	c.JSON(http.StatusOK, reply)
}

// Vision forwards an uploaded image with a question about it
func (h *Handlers) Vision(c *gin.Context) {
	prompt := c.PostForm("prompt")

	header, err := c.FormFile("image")
	if err != nil {
		h.badRequest(c, msgNoImage)
		return
	}
	if strings.TrimSpace(prompt) == "" {
		h.badRequest(c, msgEmptyPrompt)
		return
	}
	if err := utils.ValidatePrompt(prompt); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}
	if header.Size > utils.MaxImageSize {
		h.fail(c, invalid("image exceeds %d bytes", utils.MaxImageSize))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, utils.MaxImageSize+1))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(data) > utils.MaxImageSize {
		h.fail(c, invalid("image exceeds %d bytes", utils.MaxImageSize))
		return
	}

	image, err := ai.DetectImage(data)
	if err != nil {
		if errors.Is(err, ai.ErrUnsupportedImage) {
			h.fail(c, invalid("%v", err))
			return
		}
		h.fail(c, err)
		return
	}

	reply := h.dispatcher.Dispatch(c.Request.Context(), ai.KindVision, ai.Request{Prompt: prompt, Image: image})
	c.JSON(http.StatusOK, reply)
}

// GetChat returns the session's chat history
func (h *Handlers) GetChat(c *gin.Context) {
	var history []ai.Turn
	err := withState(c, func(st *session.State) error {
		history = append([]ai.Turn{}, st.Chat...)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// SendChat sends one chat message with the prior history as context.
// The exchange is added to the history only when generation succeeds.
func (h *Handlers) SendChat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.badRequest(c, msgEmptyPrompt)
		return
	}
	if err := utils.ValidatePrompt(req.Message); err != nil {
		h.fail(c, invalid("%v", err))
		return
	}

	var (
		reply   ai.Reply
		history []ai.Turn
	)
	err := withState(c, func(st *session.State) error {
		reply = h.dispatcher.Dispatch(c.Request.Context(), ai.KindChat, ai.Request{
			Prompt:  req.Message,
			History: st.Chat,
		})
		if !reply.Failed {
			st.Chat = append(st.Chat,
				ai.Turn{Role: ai.RoleUser, Text: req.Message},
				ai.Turn{Role: ai.RoleModel, Text: reply.Text},
			)
		}
		history = append([]ai.Turn{}, st.Chat...)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":    reply.Text,
		"failed":  reply.Failed,
		"history": history,
	})
}

// ResetChat clears the session's chat history
func (h *Handlers) ResetChat(c *gin.Context) {
	err := withState(c, func(st *session.State) error {
		st.ResetChat()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": []ai.Turn{}})
}

// GeneratorHealth sends the ping prompt and reports whether the model answered
func (h *Handlers) GeneratorHealth(c *gin.Context) {
	reply := h.dispatcher.Dispatch(c.Request.Context(), ai.KindPing, ai.Request{Prompt: prompts.Ping})

	status := http.StatusOK
	if reply.Failed {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"reachable": !reply.Failed,
		"reply":     reply.Text,
	})
}
