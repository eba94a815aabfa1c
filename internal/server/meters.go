package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	meterdomain "nhatro/internal/meterreading/domain"
)

func (s *Server) GetCurrentPeriod(c *gin.Context) {
	period, err := s.meterSvc.CurrentPeriod(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"month": period.Month,
		"year":  period.Year,
	}})
}

func (s *Server) GetBuildingReadings(c *gin.Context) {
	items, err := s.meterSvc.GetBuildingReadings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) UpsertBuildingReading(c *gin.Context) {
	var req meterdomain.UpsertBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.meterSvc.UpsertBuildingReading(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) ListRoomReadings(c *gin.Context) {
	items, err := s.meterSvc.ListRoomReadings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) UpsertRoomReading(c *gin.Context) {
	var req meterdomain.UpsertRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.meterSvc.UpsertRoomReading(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RolloverPeriod(c *gin.Context) {
	period, err := s.meterSvc.Rollover(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"month": period.Month,
		"year":  period.Year,
	}})
}
