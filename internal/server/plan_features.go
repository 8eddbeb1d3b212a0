package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bindingdomain "github.com/smallbiznis/spacial/internal/planfeature/domain"
)

type bindPlanFeatureRequest struct {
	FeatureID string   `json:"feature_id"`
	Target    *float64 `json:"target"`
	USL       *float64 `json:"usl"`
	LSL       *float64 `json:"lsl"`
}

type updateLimitsRequest struct {
	Target *float64 `json:"target"`
	USL    *float64 `json:"usl"`
	LSL    *float64 `json:"lsl"`
}

func (s *Server) BindPlanFeature(c *gin.Context) {
	var req bindPlanFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bindingSvc.Bind(c.Request.Context(), bindingdomain.BindRequest{
		PlanID:    strings.TrimSpace(c.Param("id")),
		FeatureID: strings.TrimSpace(req.FeatureID),
		Target:    req.Target,
		USL:       req.USL,
		LSL:       req.LSL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPlanFeatures(c *gin.Context) {
	resp, err := s.bindingSvc.List(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAvailablePlanFeatures(c *gin.Context) {
	resp, err := s.bindingSvc.ListAvailable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanFeature(c *gin.Context) {
	resp, err := s.bindingSvc.Get(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("feature_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpdatePlanFeatureLimits replaces all three limits; omitted fields clear.
func (s *Server) UpdatePlanFeatureLimits(c *gin.Context) {
	var req updateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bindingSvc.UpdateLimits(c.Request.Context(), bindingdomain.UpdateLimitsRequest{
		PlanID:    strings.TrimSpace(c.Param("id")),
		FeatureID: strings.TrimSpace(c.Param("feature_id")),
		Target:    req.Target,
		USL:       req.USL,
		LSL:       req.LSL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnbindPlanFeature(c *gin.Context) {
	err := s.bindingSvc.Unbind(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("feature_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
