package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type InviteController struct{ *Srv }

func GetInviteController(s *Srv) *InviteController { return &InviteController{Srv: s} }

// POST /api/invites
func (ic *InviteController) CreateInvite(c *gin.Context) {
	var in struct {
		RequestID string `json:"requestId" binding:"required,max=191"`
		SubjectID string `json:"subjectId" binding:"required,max=191"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := ic.Invites.Issue(c.Request.Context(), in.RequestID, in.SubjectID)
	if err != nil {
		log.Printf("[issue] request %s: %v", in.RequestID, err)
		abortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if res.WasReused {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// GET /api/invites/:requestId
func (ic *InviteController) GetInvite(c *gin.Context) {
	id := c.Param("requestId")
	req, err := ic.Invites.Lookup(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": req})
}

// GET /api/orphans?limit=50
func (ic *InviteController) ListOrphans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := ic.Invites.Orphans(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}
