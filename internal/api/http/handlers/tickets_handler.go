package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nixolabs/triage-service/internal/api/dto"
	"github.com/nixolabs/triage-service/internal/domain"
	"github.com/nixolabs/triage-service/internal/service"
	apperrors "github.com/nixolabs/triage-service/pkg/util"
)

// TicketsHandler serves the dashboard ticket endpoints.
type TicketsHandler struct {
	admin *service.TicketAdminService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(admin *service.TicketAdminService) *TicketsHandler {
	return &TicketsHandler{admin: admin}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.admin.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketWithStatsResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMessages GET /api/tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.admin.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, messageResponse(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.admin.UpdateTicket(c.UserContext(), c.Params("id"), req.Status, req.IsFixed)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.admin.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                ticket.ID,
		Title:             ticket.Title,
		Category:          ticket.Category,
		GroupKey:          ticket.GroupKey,
		SimilaritySummary: ticket.SimilaritySummary,
		FirstChannelID:    ticket.FirstChannelID,
		FirstUserID:       ticket.FirstUserID,
		Status:            ticket.Status,
		IsFixed:           ticket.IsFixed,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
	}
}

func ticketWithStatsResponse(t *domain.TicketWithStats) dto.TicketResponse {
	resp := ticketResponse(&t.Ticket)
	count := t.MessageCount
	resp.MessageCount = &count
	resp.LastMessageAt = t.LastMessageAt
	return resp
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             msg.ID,
		TicketID:       msg.TicketID,
		SlackTS:        msg.SlackTS,
		SlackChannelID: msg.SlackChannelID,
		SlackUserID:    msg.SlackUserID,
		SlackThreadTS:  msg.SlackThreadTS,
		Text:           msg.Text,
		Category:       msg.Category,
		IsRelevant:     msg.IsRelevant,
		Confidence:     msg.Confidence,
		Reasoning:      msg.Reasoning,
		CreatedAt:      msg.CreatedAt,
	}
}
