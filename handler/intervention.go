package handler

import (
	"time"

	"github.com/aumugisha-umu/seido-backend/middleware"
	"github.com/aumugisha-umu/seido-backend/model"
	"github.com/aumugisha-umu/seido-backend/service"
	"github.com/aumugisha-umu/seido-backend/workflow"
	"github.com/gin-gonic/gin"
)

type InterventionHandler struct {
	interventions *service.InterventionService
}

func NewInterventionHandler(svc *service.InterventionService) *InterventionHandler {
	return &InterventionHandler{interventions: svc}
}

type CreateInterventionRequest struct {
	Title         string        `json:"title" binding:"required"`
	Description   string        `json:"description"`
	Type          string        `json:"type"`
	Urgency       model.Urgency `json:"urgency"`
	UnitID        string        `json:"unit_id" binding:"required"`
	RequiresQuote bool          `json:"requires_quote"`
}

// Create opens a new maintenance request.
func (h *InterventionHandler) Create(c *gin.Context) {
	var req CreateInterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	iv, err := h.interventions.Create(c.Request.Context(), middleware.GetActor(c), service.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Urgency:       req.Urgency,
		UnitID:        req.UnitID,
		RequiresQuote: req.RequiresQuote,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// List returns the interventions visible to the caller, each with the
// derived attention flag.
func (h *InterventionHandler) List(c *gin.Context) {
	actor := middleware.GetActor(c)
	ivs, err := h.interventions.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	result := make([]gin.H, len(ivs))
	for i := range ivs {
		result[i] = gin.H{
			"intervention":    ivs[i],
			"needs_attention": workflow.NeedsAttention(actor.Role, &ivs[i], ivs[i].Quotes, now),
		}
	}
	respond(c, result)
}

// Get returns one intervention with the caller's attention flag.
func (h *InterventionHandler) Get(c *gin.Context) {
	actor := middleware.GetActor(c)
	iv, err := h.interventions.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{
		"intervention":    iv,
		"needs_attention": workflow.NeedsAttention(actor.Role, iv, iv.Quotes, time.Now()),
	})
}

// Approve moves a requested intervention to approved.
func (h *InterventionHandler) Approve(c *gin.Context) {
	iv, err := h.interventions.Approve(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// Reject terminally refuses a requested intervention.
func (h *InterventionHandler) Reject(c *gin.Context) {
	iv, err := h.interventions.Reject(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// RequestQuote asks providers for estimation.
func (h *InterventionHandler) RequestQuote(c *gin.Context) {
	iv, err := h.interventions.RequestQuote(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// Cancel terminally cancels the intervention.
func (h *InterventionHandler) Cancel(c *gin.Context) {
	iv, err := h.interventions.Cancel(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

type AssignRequest struct {
	Assignments []struct {
		UserID               string     `json:"user_id" binding:"required"`
		Role                 model.Role `json:"role" binding:"required"`
		Primary              bool       `json:"is_primary"`
		RequiresConfirmation bool       `json:"requires_confirmation"`
	} `json:"assignments" binding:"required"`
}

// Assign attaches participants to the intervention.
func (h *InterventionHandler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	inputs := make([]service.AssignInput, len(req.Assignments))
	for i, a := range req.Assignments {
		inputs[i] = service.AssignInput{
			UserID:               a.UserID,
			Role:                 a.Role,
			Primary:              a.Primary,
			RequiresConfirmation: a.RequiresConfirmation,
		}
	}

	created, err := h.interventions.Assign(c.Request.Context(), middleware.GetActor(c), c.Param("id"), inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, created)
}

type ProposeSlotsRequest struct {
	Slots []struct {
		Date      time.Time `json:"date" binding:"required"`
		StartTime time.Time `json:"start_time" binding:"required"`
		EndTime   time.Time `json:"end_time" binding:"required"`
	} `json:"slots" binding:"required"`
}

// ProposeSlots records candidate scheduling windows.
func (h *InterventionHandler) ProposeSlots(c *gin.Context) {
	var req ProposeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	inputs := make([]service.SlotInput, len(req.Slots))
	for i, s := range req.Slots {
		inputs[i] = service.SlotInput{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
	}

	slots, err := h.interventions.ProposeSlots(c.Request.Context(), middleware.GetActor(c), c.Param("id"), inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, slots)
}

// SelectSlot flags the manager's pick among the proposed windows.
func (h *InterventionHandler) SelectSlot(c *gin.Context) {
	err := h.interventions.SelectSlot(c.Request.Context(), middleware.GetActor(c), c.Param("id"), c.Param("slotID"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"selected": true})
}

type ConfirmRequest struct {
	Confirmed *bool  `json:"confirmed" binding:"required"`
	Reason    string `json:"reason"`
}

// Confirm records the caller's one-shot confirm-or-reject answer.
func (h *InterventionHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	err := h.interventions.ConfirmParticipation(c.Request.Context(), middleware.GetActor(c), c.Param("id"), service.ConfirmInput{
		Confirmed: *req.Confirmed,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"recorded": true})
}

type StartRequest struct {
	StartedAt time.Time `json:"started_at"`
	Comments  string    `json:"comments"`
}

// Start marks execution as begun.
func (h *InterventionHandler) Start(c *gin.Context) {
	var req StartRequest
	// Body is optional for start
	_ = c.ShouldBindJSON(&req)

	iv, err := h.interventions.Start(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req.StartedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// WorkCompletion closes the provider side with the structured report.
func (h *InterventionHandler) WorkCompletion(c *gin.Context) {
	var report workflow.CompletionReport
	if err := c.ShouldBindJSON(&report); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	iv, err := h.interventions.CompleteWork(c.Request.Context(), middleware.GetActor(c), c.Param("id"), report)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// Validate is the tenant's sign-off of the completed work.
func (h *InterventionHandler) Validate(c *gin.Context) {
	iv, err := h.interventions.Validate(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}

// Finalize is the manager's terminal closure.
func (h *InterventionHandler) Finalize(c *gin.Context) {
	iv, err := h.interventions.Finalize(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, iv)
}
