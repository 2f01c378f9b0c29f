package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/common"
	"github.com/1kken/SideKickCX/internal/support"
)

type createTicketReq struct {
	UserID  string `json:"userId"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) CreateTicket(c *gin.Context) {
	var req createTicketReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	t, err := h.Support.CreateTicket(c.Request.Context(), req.UserID, req.Subject, req.Message)
	if err != nil {
		failFor(c, err, "ticket")
		return
	}
	common.OK(c, gin.H{"ticket": t})
}

func (h *Handler) ListTickets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ts, err := h.Support.ListTickets(c.Request.Context(), support.TicketStatus(c.Query("status")), limit)
	if err != nil {
		failFor(c, err, "tickets")
		return
	}
	common.OK(c, gin.H{"tickets": ts})
}

type updateTicketReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateTicket(c *gin.Context) {
	var req updateTicketReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	t, err := h.Support.UpdateTicketStatus(c.Request.Context(), c.Param("id"), support.TicketStatus(req.Status))
	if err != nil {
		failFor(c, err, "ticket")
		return
	}
	common.OK(c, gin.H{"ticket": t})
}

type agentResponseReq struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

func (h *Handler) AgentResponse(c *gin.Context) {
	var req agentResponseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	l, err := h.Support.RecordAgentResponse(c.Request.Context(), c.Param("id"), req.Question, req.Response)
	if err != nil {
		failFor(c, err, "ticket")
		return
	}
	common.OK(c, gin.H{"success": true, "log": l})
}
