package institutionalhead

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/handlers"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
)

// HeadHandler handles institutional head requests
type HeadHandler struct {
	heads     *services.HeadService
	validator *validation.Validator
}

// NewHeadHandler creates a new institutional head handler
func NewHeadHandler(heads *services.HeadService) *HeadHandler {
	return &HeadHandler{
		heads:     heads,
		validator: validation.NewValidator(),
	}
}

// CreateHeadRequest represents the request body for creating an institutional head
type CreateHeadRequest struct {
	Name    string `json:"name" validate:"required,notblank,min=2,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Address string `json:"address" validate:"omitempty,max=1000"`
}

// ToInput converts the request into service input
func (r CreateHeadRequest) ToInput() services.CreateHeadInput {
	return services.CreateHeadInput{
		Name:    validation.SanitizeString(r.Name),
		Email:   r.Email,
		Phone:   validation.SanitizeString(r.Phone),
		Address: validation.SanitizeString(r.Address),
	}
}

// UpdateHeadRequest represents the request body for updating an institutional head
type UpdateHeadRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,min=2,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Address  *string `json:"address" validate:"omitempty,max=1000"`
	IsActive *bool   `json:"isActive"`
}

// ToInput converts the request into service input
func (r UpdateHeadRequest) ToInput() services.UpdateHeadInput {
	return services.UpdateHeadInput{
		Name:     sanitized(r.Name),
		Email:    r.Email,
		Phone:    sanitized(r.Phone),
		Address:  sanitized(r.Address),
		IsActive: r.IsActive,
	}
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeString(*s)
	return &v
}

// CreateHead handles POST /api/institutional-heads
func (h *HeadHandler) CreateHead(c *fiber.Ctx) error {
	var req CreateHeadRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	head, err := h.heads.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return response.FromError(c, err, "Failed to create institutional head")
	}

	return response.Created(c, head)
}

// ListHeads handles GET /api/institutional-heads
func (h *HeadHandler) ListHeads(c *fiber.Ctx) error {
	heads, err := h.heads.List(c.UserContext())
	if err != nil {
		return response.FromError(c, err, "Failed to fetch institutional heads")
	}

	return response.Success(c, heads)
}

// GetHead handles GET /api/institutional-heads/:id
func (h *HeadHandler) GetHead(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid head ID")
	}

	head, err := h.heads.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to fetch institutional head")
	}

	return response.Success(c, head)
}

// UpdateHead handles PUT /api/institutional-heads/:id
func (h *HeadHandler) UpdateHead(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid head ID")
	}

	var req UpdateHeadRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	head, err := h.heads.Update(c.UserContext(), id, req.ToInput())
	if err != nil {
		return response.FromError(c, err, "Failed to update institutional head")
	}

	return response.Success(c, head)
}

// DeleteHead handles DELETE /api/institutional-heads/:id
func (h *HeadHandler) DeleteHead(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid head ID")
	}

	if err := h.heads.Remove(c.UserContext(), id); err != nil {
		return response.FromError(c, err, "Failed to delete institutional head")
	}

	return response.NoContent(c)
}
