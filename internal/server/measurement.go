package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	measurementdomain "github.com/smallbiznis/spacial/internal/measurement/domain"
	obscontext "github.com/smallbiznis/spacial/internal/observability/context"
)

type recordMeasurementRequest struct {
	SerialNumber string   `json:"serial_number"`
	Value        *float64 `json:"value"`
	Operator     string   `json:"operator"`
	Notes        *string  `json:"notes"`
}

func (s *Server) RecordMeasurement(c *gin.Context) {
	var req recordMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Value == nil {
		AbortWithError(c, measurementdomain.ErrInvalidValue)
		return
	}

	ctx := c.Request.Context()
	operator := strings.TrimSpace(req.Operator)
	if operator == "" {
		operator = obscontext.OperatorFromContext(ctx)
	}

	resp, err := s.measurementSvc.Record(ctx, measurementdomain.RecordRequest{
		PlanID:       strings.TrimSpace(c.Param("id")),
		FeatureID:    strings.TrimSpace(c.Param("feature_id")),
		SerialNumber: req.SerialNumber,
		Value:        *req.Value,
		Operator:     operator,
		Notes:        req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMeasurements(c *gin.Context) {
	var query struct {
		PageToken string `form:"page_token"`
		PageSize  string `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pageSize, err := parseOptionalInt(query.PageSize)
	if err != nil {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid page size"))
		return
	}
	req := measurementdomain.ListRequest{
		PlanID:    strings.TrimSpace(c.Param("id")),
		FeatureID: strings.TrimSpace(c.Param("feature_id")),
		PageToken: strings.TrimSpace(query.PageToken),
	}
	if pageSize != nil {
		req.PageSize = *pageSize
	}

	resp, err := s.measurementSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
