package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
)

// ListCreditPackages returns the active catalog in display order.
func (s *Server) ListCreditPackages(c *gin.Context) {
	if s.creditSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	packages := s.creditSvc.AvailablePackages(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// GetBrandCredits returns the balance plus ledger-derived aggregates.
func (s *Server) GetBrandCredits(c *gin.Context) {
	brandID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	stats := s.creditSvc.Stats(c.Request.Context(), brandID)
	c.JSON(http.StatusOK, stats)
}

// GetCreditHistory returns the newest ledger rows first.
func (s *Server) GetCreditHistory(c *gin.Context) {
	brandID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	history := s.creditSvc.History(c.Request.Context(), brandID, limit)
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

type deductRequest struct {
	Amount       string `json:"amount"`
	ServiceUsed  string `json:"service_used"`
	Description  string `json:"description"`
	APIRequestID string `json:"api_request_id"`
}

// DeductCredits is the internal usage-billing endpoint called by the AI
// services. When no amount is given, the service's configured cost applies.
func (s *Server) DeductCredits(c *gin.Context) {
	brandID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req deductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()

	var amount decimal.Decimal
	if raw := strings.TrimSpace(req.Amount); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal string"))
			return
		}
		amount = parsed
	} else {
		if strings.TrimSpace(req.ServiceUsed) == "" {
			AbortWithError(c, newValidationError("service_used", "required", "service_used is required when amount is omitted"))
			return
		}
		amount = s.creditSvc.ServiceCost(ctx, req.ServiceUsed)
	}

	apiRequestID := strings.TrimSpace(req.APIRequestID)
	if apiRequestID == "" {
		apiRequestID = uuid.NewString()
	}

	result := s.creditSvc.Deduct(ctx, creditdomain.DeductRequest{
		BrandID:      brandID,
		Amount:       amount,
		Description:  req.Description,
		ServiceUsed:  req.ServiceUsed,
		APIRequestID: apiRequestID,
	})
	status := http.StatusOK
	if !result.OK {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, result)
}

func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_id", "path id is not a valid identifier")
	}
	return id, nil
}
