package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

type setupRequest struct {
	StartWeight   float64 `json:"startWeight" binding:"required"`
	TargetWeight  float64 `json:"targetWeight" binding:"required"`
	NumberOfDays  int     `json:"numberOfDays" binding:"required"`
	WeightingTime string  `json:"weightingTime" binding:"required"`
}

type weightRequest struct {
	Weight float64 `json:"weight" binding:"required"`
}

type foodRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (s *Server) trackerFor(c *gin.Context) *tracker.Tracker {
	return s.tracker(c.GetString(userIDKey))
}

// statusOf maps tracker errors to HTTP status codes.
func statusOf(err error) int {
	var pe *store.PersistenceError
	switch {
	case plan.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, day.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrNoGoal),
		errors.Is(err, tracker.ErrNotActive),
		errors.Is(err, tracker.ErrNoPendingGoal):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) getToday(c *gin.Context) {
	v, err := s.trackerFor(c).Today(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) postSetup(c *gin.Context) {
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	wt, err := plan.ParseWeightingTime(req.WeightingTime)
	if err != nil {
		badRequest(c, err)
		return
	}

	g, err := s.trackerFor(c).Setup(c.Request.Context(), tracker.SetupInput{
		StartWeight:   req.StartWeight,
		TargetWeight:  req.TargetWeight,
		NumberOfDays:  req.NumberOfDays,
		WeightingTime: wt,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *Server) postWeight(c *gin.Context) {
	var req weightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.trackerFor(c).LogWeight(c.Request.Context(), req.Weight)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) postFood(c *gin.Context) {
	var req foodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.trackerFor(c).AddFood(c.Request.Context(), req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) deleteFood(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.trackerFor(c).RemoveFood(c.Request.Context(), index)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) postDayZeroWeight(c *gin.Context) {
	var req weightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	capture, err := s.trackerFor(c).CaptureDayZeroWeight(c.Request.Context(), req.Weight)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, capture)
}

func (s *Server) postDayZeroStartWeight(c *gin.Context) {
	var req weightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := s.trackerFor(c).UpdatePendingStartWeight(c.Request.Context(), req.Weight)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) postDayZeroBack(c *gin.Context) {
	if err := s.trackerFor(c).GoBack(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postReset(c *gin.Context) {
	if err := s.trackerFor(c).Reset(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getReport(c *gin.Context) {
	r, err := s.trackerFor(c).Report(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
