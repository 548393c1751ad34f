package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/services"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/utils"
)

// RoundHandler handles round, ticket inventory and announcement requests
type RoundHandler struct {
	rounds       services.RoundService
	tickets      services.TicketService
	announcement services.AnnouncementService
}

// NewRoundHandler creates a new RoundHandler
func NewRoundHandler(rounds services.RoundService, tickets services.TicketService, announcement services.AnnouncementService) *RoundHandler {
	return &RoundHandler{rounds: rounds, tickets: tickets, announcement: announcement}
}

// ListRounds handles GET /rounds
func (h *RoundHandler) ListRounds(c *gin.Context) {
	rounds, err := h.rounds.ListRounds(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

// GetRound handles GET /rounds/:id
func (h *RoundHandler) GetRound(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	round, err := h.rounds.GetRound(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// CreateRound handles POST /admin/rounds
func (h *RoundHandler) CreateRound(c *gin.Context) {
	var in services.CreateRoundInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	round, err := h.rounds.CreateRound(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, round)
}

// CloseRound handles POST /admin/rounds/:id/close
func (h *RoundHandler) CloseRound(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	round, err := h.rounds.CloseRound(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// Announce handles POST /admin/rounds/:id/announce
func (h *RoundHandler) Announce(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var wn models.WinningNumberSet
	if err := c.ShouldBindJSON(&wn); err != nil {
		badRequest(c, err.Error())
		return
	}
	report, err := h.announcement.Announce(c.Request.Context(), id, wn)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CheckNumber handles GET /rounds/:id/check/:number
func (h *RoundHandler) CheckNumber(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	res, err := h.rounds.CheckNumber(c.Request.Context(), id, c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListTickets handles GET /rounds/:id/tickets?status=&after=&limit=
func (h *RoundHandler) ListTickets(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	filter := repositories.TicketFilter{RoundID: id, Status: models.TicketStatus(c.Query("status"))}
	if v := c.Query("after"); v != "" {
		after, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "Invalid after")
			return
		}
		filter.AfterID = after
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	tickets, err := h.tickets.ListTickets(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// UploadTickets handles POST /admin/rounds/:id/tickets. The body is either a
// JSON array of ticket lines or a multipart form with a CSV/XLSX "file".
func (h *RoundHandler) UploadTickets(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var specs []models.TicketSpec
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "Failed to open uploaded file")
			return
		}
		defer f.Close()
		if specs, err = utils.ParseTicketFile(fh.Filename, f); err != nil {
			respondError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&specs); err != nil {
		badRequest(c, err.Error())
		return
	}

	tickets, err := h.tickets.UploadTickets(c.Request.Context(), id, specs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"count": len(tickets), "tickets": tickets})
}

// DeleteTicket handles DELETE /admin/tickets/:id
func (h *RoundHandler) DeleteTicket(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.tickets.DeleteTicket(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
