package university

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/handlers"
	"github.com/sahilchouksey/college-admin-api/handlers/institutionalhead"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
)

// UniversityHandler handles university-related requests
type UniversityHandler struct {
	universities *services.UniversityService
	assignments  *services.AssignmentService
	validator    *validation.Validator
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(universities *services.UniversityService, assignments *services.AssignmentService) *UniversityHandler {
	return &UniversityHandler{
		universities: universities,
		assignments:  assignments,
		validator:    validation.NewValidator(),
	}
}

// CreateUniversityRequest represents the request body for creating a university
type CreateUniversityRequest struct {
	Name              string                               `json:"name" validate:"required,notblank,min=2,max=255"`
	Code              string                               `json:"code" validate:"required,min=2,max=50,code"`
	InstitutionType   string                               `json:"institutionType" validate:"omitempty,oneof=UNIVERSITY COLLEGE"`
	CollegeType       *string                              `json:"collegeType" validate:"omitempty,max=50"`
	Location          string                               `json:"location" validate:"omitempty,max=255"`
	Website           string                               `json:"website" validate:"omitempty,url,max=255"`
	IsActive          *bool                                `json:"isActive"`
	InstitutionalHead *institutionalhead.CreateHeadRequest `json:"institutionalHead" validate:"omitempty"`
}

// UpdateUniversityRequest represents the request body for updating a university
type UpdateUniversityRequest struct {
	Name              *string                              `json:"name" validate:"omitempty,notblank,min=2,max=255"`
	Code              *string                              `json:"code" validate:"omitempty,min=2,max=50,code"`
	InstitutionType   *string                              `json:"institutionType" validate:"omitempty,oneof=UNIVERSITY COLLEGE"`
	CollegeType       *string                              `json:"collegeType" validate:"omitempty,max=50"`
	Location          *string                              `json:"location" validate:"omitempty,max=255"`
	Website           *string                              `json:"website" validate:"omitempty,url,max=255"`
	IsActive          *bool                                `json:"isActive"`
	InstitutionalHead *institutionalhead.UpdateHeadRequest `json:"institutionalHead" validate:"omitempty"`
}

func (r CreateUniversityRequest) toInput() services.CreateUniversityInput {
	in := services.CreateUniversityInput{
		Name:            r.Name,
		Code:            r.Code,
		InstitutionType: model.InstitutionType(r.InstitutionType),
		CollegeType:     r.CollegeType,
		Location:        r.Location,
		Website:         r.Website,
		IsActive:        r.IsActive,
	}
	if r.InstitutionalHead != nil {
		head := r.InstitutionalHead.ToInput()
		in.InstitutionalHead = &head
	}
	return in
}

func (r UpdateUniversityRequest) toInput() services.UpdateUniversityInput {
	in := services.UpdateUniversityInput{
		Name:        r.Name,
		Code:        r.Code,
		CollegeType: r.CollegeType,
		Location:    r.Location,
		Website:     r.Website,
		IsActive:    r.IsActive,
	}
	if r.InstitutionType != nil {
		t := model.InstitutionType(*r.InstitutionType)
		in.InstitutionType = &t
	}
	if r.InstitutionalHead != nil {
		head := r.InstitutionalHead.ToInput()
		in.InstitutionalHead = &head
	}
	return in
}

// ListUniversities handles GET /api/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	page := response.NewPage(handlers.QueryInt(c, "page", 1), handlers.QueryInt(c, "limit", response.DefaultPerPage))

	filter := services.ListUniversitiesFilter{
		Search:          c.Query("search"),
		InstitutionType: c.Query("institutionType"),
		Page:            page.Number,
		Limit:           page.Size,
	}
	if raw := c.Query("isActive"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			return response.ValidationError(c, "Invalid query", map[string]string{"isActive": "isActive must be true or false"})
		}
		filter.IsActive = &isActive
	}

	universities, total, err := h.universities.List(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err, "Failed to fetch universities")
	}

	return response.Paginated(c, universities, page.Meta(total))
}

// GetUniversity handles GET /api/universities/:id
func (h *UniversityHandler) GetUniversity(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid university ID")
	}

	university, err := h.universities.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to fetch university")
	}

	return response.Success(c, university)
}

// CreateUniversity handles POST /api/universities
func (h *UniversityHandler) CreateUniversity(c *fiber.Ctx) error {
	var req CreateUniversityRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	university, err := h.universities.Create(c.UserContext(), req.toInput())
	if err != nil {
		return response.FromError(c, err, "Failed to create university")
	}

	return response.Created(c, university)
}

// UpdateUniversity handles PATCH /api/universities/:id
func (h *UniversityHandler) UpdateUniversity(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid university ID")
	}

	var req UpdateUniversityRequest
	if err := h.validator.Bind(c.Body(), &req); err != nil {
		return response.FromError(c, err, "Invalid request")
	}

	university, err := h.universities.Update(c.UserContext(), id, req.toInput())
	if err != nil {
		return response.FromError(c, err, "Failed to update university")
	}

	return response.Success(c, university)
}

// DeleteUniversity handles DELETE /api/universities/:id
func (h *UniversityHandler) DeleteUniversity(c *fiber.Ctx) error {
	id, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err, "Invalid university ID")
	}

	if err := h.universities.Remove(c.UserContext(), id); err != nil {
		return response.FromError(c, err, "Failed to delete university")
	}

	return response.NoContent(c)
}

// AssignHead handles POST /api/universities/:id/assign-head/:headId
func (h *UniversityHandler) AssignHead(c *fiber.Ctx) error {
	universityID, headID, err := assignmentParams(c)
	if err != nil {
		return response.FromError(c, err, "Invalid assignment")
	}

	university, err := h.assignments.AssignToInstitution(c.UserContext(), headID, universityID)
	if err != nil {
		return response.FromError(c, err, "Failed to assign institutional head")
	}

	return response.SuccessWithMessage(c, "Institutional head assigned", university)
}

// UnassignHead handles DELETE /api/universities/:id/assign-head/:headId
func (h *UniversityHandler) UnassignHead(c *fiber.Ctx) error {
	universityID, headID, err := assignmentParams(c)
	if err != nil {
		return response.FromError(c, err, "Invalid assignment")
	}

	university, err := h.assignments.UnassignFromInstitution(c.UserContext(), headID, universityID)
	if err != nil {
		return response.FromError(c, err, "Failed to unassign institutional head")
	}

	return response.SuccessWithMessage(c, "Institutional head unassigned", university)
}

func assignmentParams(c *fiber.Ctx) (universityID, headID uint, err error) {
	if universityID, err = handlers.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}
	if headID, err = handlers.ParamID(c, "headId"); err != nil {
		return 0, 0, err
	}
	return universityID, headID, nil
}
