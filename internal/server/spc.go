package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analysisdomain "github.com/smallbiznis/spacial/internal/analysis/domain"
)

func selectorFromPath(c *gin.Context) analysisdomain.Selector {
	return analysisdomain.Selector{
		PlanID:    strings.TrimSpace(c.Param("id")),
		FeatureID: strings.TrimSpace(c.Param("feature_id")),
	}
}

// GetChart returns the full series with summary and a recent window.
// recent=0 or absent uses the configured window.
func (s *Server) GetChart(c *gin.Context) {
	recent, err := parseOptionalInt(c.Query("recent"))
	if err != nil {
		AbortWithError(c, analysisdomain.ErrInvalidRecent)
		return
	}
	k := 0
	if recent != nil {
		k = *recent
	}

	resp, err := s.analysisSvc.Chart(c.Request.Context(), selectorFromPath(c), k)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanSummary(c *gin.Context) {
	resp, err := s.analysisSvc.PlanSummary(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportReport(c *gin.Context) {
	export, err := s.analysisSvc.ExportPDF(c.Request.Context(), selectorFromPath(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Header("X-Report-Number", export.ReportNumber)
	c.Data(http.StatusOK, export.ContentType, export.Content)
}
