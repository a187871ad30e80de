package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/services"
	"github.com/shopspring/decimal"
)

const (
	actionLogin       = "login"
	actionCreate      = "create"
	actionCreateBatch = "create_batch"
)

type collectorAuthRequest struct {
	Action   string `json:"action"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Collector services.CollectorIdentity `json:"collector"`
	Token     string                     `json:"token"`
	ExpiresAt time.Time                  `json:"expires_at"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type collectorDataRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

type createBatchResponse struct {
	Success bool   `json:"success"`
	BatchID string `json:"batch_id"`
	Count   int    `json:"count"`
}

type submissionResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type pricingResponse struct {
	ServicePrice     decimal.Decimal `json:"service_price"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type deliveryRequest struct {
	IsDelivered *bool `json:"is_delivered"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

type submissionsResponse struct {
	Submissions []models.Submission `json:"submissions"`
}

func (s *Server) collectorAuth(c *gin.Context) {
	var req collectorAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errBadRequestBody)
		return
	}

	switch req.Action {
	case actionLogin:
		res, err := s.auth.Login(c.Request.Context(), req.Name, req.Password)
		if errors.Is(err, common.ErrorNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "collector not found"})
			return
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, loginResponse{Collector: res.Collector, Token: res.Token, ExpiresAt: res.ExpiresAt})

	case actionCreate:
		err := s.auth.Create(c.Request.Context(), req.Name, req.Password, c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, successResponse{Success: true})

	default:
		s.fail(c, fmt.Errorf("%w: unknown action %q", common.ErrValidation, req.Action))
	}
}

func (s *Server) collectorData(c *gin.Context) {
	var req collectorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errBadRequestBody)
		return
	}

	switch req.Action {
	case "":
		data, err := s.data.Fetch(c.Request.Context(), req.Token)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, data)

	case actionCreateBatch:
		res, err := s.data.CreateBatch(c.Request.Context(), req.Token)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, createBatchResponse{Success: true, BatchID: res.BatchID, Count: res.Count})

	default:
		s.fail(c, fmt.Errorf("%w: unknown action %q", common.ErrValidation, req.Action))
	}
}

func (s *Server) submit(c *gin.Context) {
	var in services.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.fail(c, errBadRequestBody)
		return
	}

	sub, err := s.submissions.Submit(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, submissionResponse{Success: true, ID: sub.ID})
}

func (s *Server) getSettings(c *gin.Context) {
	p, err := s.admin.GetPricing(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pricingResponse{ServicePrice: p.ServicePrice, CommissionAmount: p.CommissionAmount, UpdatedAt: p.UpdatedAt})
}

func (s *Server) updateSettings(c *gin.Context) {
	var in services.PricingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.fail(c, errBadRequestBody)
		return
	}

	p, err := s.admin.UpdatePricing(c.Request.Context(), adminFrom(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pricingResponse{ServicePrice: p.ServicePrice, CommissionAmount: p.CommissionAmount, UpdatedAt: p.UpdatedAt})
}

func (s *Server) setBatchDelivery(c *gin.Context) {
	var req deliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errBadRequestBody)
		return
	}
	if req.IsDelivered == nil {
		s.fail(c, fmt.Errorf("%w: is_delivered is required", common.ErrValidation))
		return
	}

	b, err := s.admin.SetBatchDelivered(c.Request.Context(), adminFrom(c), c.Param("id"), *req.IsDelivered)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) setCollectorActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errBadRequestBody)
		return
	}
	if req.IsActive == nil {
		s.fail(c, fmt.Errorf("%w: is_active is required", common.ErrValidation))
		return
	}

	if err := s.admin.SetCollectorActive(c.Request.Context(), adminFrom(c), c.Param("id"), *req.IsActive); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (s *Server) listSubmissions(c *gin.Context) {
	subs, err := s.admin.ListSubmissions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, submissionsResponse{Submissions: subs})
}

func (s *Server) deleteSubmission(c *gin.Context) {
	if err := s.admin.DeleteSubmission(c.Request.Context(), adminFrom(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true})
}

func (s *Server) collectorFinances(c *gin.Context) {
	report, err := s.admin.CollectorFinances(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health.Ping(c.Request.Context()); err != nil {
			s.logger.Warn(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
