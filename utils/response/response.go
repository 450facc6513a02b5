package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Data       interface{}     `json:"data,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PerPage     int   `json:"perPage"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
}

// errorCodes maps statuses to the machine readable code and the message used
// when the caller passes none
var errorCodes = map[int][2]string{
	fiber.StatusBadRequest:          {"BAD_REQUEST", "Bad request"},
	fiber.StatusUnauthorized:        {"UNAUTHORIZED", "Unauthorized access"},
	fiber.StatusForbidden:           {"FORBIDDEN", "Access forbidden"},
	fiber.StatusNotFound:            {"NOT_FOUND", "Resource not found"},
	fiber.StatusConflict:            {"CONFLICT", "Resource already exists"},
	fiber.StatusTooManyRequests:     {"TOO_MANY_REQUESTS", "Too many requests"},
	fiber.StatusInternalServerError: {"INTERNAL_ERROR", "Internal server error"},
}

func fail(c *fiber.Ctx, status int, detail ErrorDetail) error {
	if known, ok := errorCodes[status]; ok {
		if detail.Code == "" {
			detail.Code = known[0]
		}
		if detail.Message == "" {
			detail.Message = known[1]
		}
	}
	return c.Status(status).JSON(Response{Error: &detail})
}

// Success returns a 200 response carrying data
func Success(c *fiber.Ctx, data interface{}) error {
	return SuccessWithMessage(c, "", data)
}

// SuccessWithMessage returns a 200 response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Message: message, Data: data})
}

// Created returns a 201 response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// NoContent returns a 204 with an empty body
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Paginated returns a page of data with its metadata
func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data, Pagination: &pagination})
}

// Error returns an error response with an explicit code
func Error(c *fiber.Ctx, status int, message, code string) error {
	return fail(c, status, ErrorDetail{Code: code, Message: message})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, ErrorDetail{Message: message})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusUnauthorized, ErrorDetail{Message: message})
}

func Forbidden(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusForbidden, ErrorDetail{Message: message})
}

func NotFound(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, ErrorDetail{Message: message})
}

func TooManyRequests(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusTooManyRequests, ErrorDetail{Message: message})
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusInternalServerError, ErrorDetail{Message: message})
}

// ValidationError returns a 400 with field-level messages
func ValidationError(c *fiber.Ctx, message string, fields map[string]string) error {
	if message == "" {
		message = "Validation failed"
	}
	return fail(c, fiber.StatusBadRequest, ErrorDetail{Code: "VALIDATION_ERROR", Message: message, Fields: fields})
}

// FromError maps service errors onto HTTP responses. Anything unrecognised is
// logged and answered with a generic 500 carrying fallback.
func FromError(c *fiber.Ctx, err error, fallback string) error {
	var (
		notFound   *apperror.NotFoundError
		conflict   *apperror.ConflictError
		validation *apperror.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return fail(c, fiber.StatusNotFound, ErrorDetail{Message: notFound.Message})
	case errors.As(err, &conflict):
		return fail(c, fiber.StatusConflict, ErrorDetail{Message: conflict.Message})
	case errors.As(err, &validation):
		return ValidationError(c, validation.Message, validation.Fields)
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error(fallback)
	return InternalServerError(c, fallback)
}

// Page is a clamped page request
type Page struct {
	Number int
	Size   int
}

// NewPage clamps page to at least 1 and size into [1, MaxPerPage], falling
// back to DefaultPerPage
func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPerPage
	}
	if size > MaxPerPage {
		size = MaxPerPage
	}
	return Page{Number: page, Size: size}
}

// Offset is the number of rows before this page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Meta describes this page within total rows
func (p Page) Meta(total int64) PaginationMeta {
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	return PaginationMeta{
		CurrentPage: p.Number,
		PerPage:     p.Size,
		Total:       total,
		TotalPages:  pages,
	}
}
