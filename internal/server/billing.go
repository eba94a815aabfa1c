package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	billingdomain "nhatro/internal/billing/domain"
)

type GenerateInvoicesRequest struct {
	Adjustments []AdjustmentRequest `json:"adjustments,omitempty"`
	DueInDays   *int                `json:"due_in_days,omitempty"`
}

type AdjustmentRequest struct {
	ApartmentID string `json:"apartment_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) PreviewInvoices(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}

	result, err := s.billingSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GenerateInvoices(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}

	result, err := s.billingSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func bindGenerateRequest(c *gin.Context) (billingdomain.GenerateRequest, bool) {
	var body GenerateInvoicesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, invalidRequestError())
			return billingdomain.GenerateRequest{}, false
		}
	}

	req := billingdomain.GenerateRequest{DueInDays: body.DueInDays}
	for _, adj := range body.Adjustments {
		req.Adjustments = append(req.Adjustments, billingdomain.AdjustmentRequest{
			ApartmentID: adj.ApartmentID,
			Amount:      adj.Amount,
			Description: adj.Description,
		})
	}

	return req, true
}
