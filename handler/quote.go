package handler

import (
	"github.com/aumugisha-umu/seido-backend/middleware"
	"github.com/aumugisha-umu/seido-backend/service"
	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	interventions *service.InterventionService
}

func NewQuoteHandler(svc *service.InterventionService) *QuoteHandler {
	return &QuoteHandler{interventions: svc}
}

type SubmitQuoteRequest struct {
	LaborAmount    float64 `json:"labor_amount"`
	MaterialAmount float64 `json:"material_amount"`
	Description    string  `json:"description"`
}

// Submit records a provider quote for an intervention awaiting estimation.
func (h *QuoteHandler) Submit(c *gin.Context) {
	var req SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request")
		return
	}

	quote, err := h.interventions.SubmitQuote(c.Request.Context(), middleware.GetActor(c), c.Param("id"), service.QuoteInput{
		LaborAmount:    req.LaborAmount,
		MaterialAmount: req.MaterialAmount,
		Description:    req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, quote)
}

// Accept accepts one quote and rejects its active siblings.
func (h *QuoteHandler) Accept(c *gin.Context) {
	quote, err := h.interventions.AcceptQuote(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, quote)
}

// Reject declines a single quote.
func (h *QuoteHandler) Reject(c *gin.Context) {
	quote, err := h.interventions.RejectQuote(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, quote)
}
