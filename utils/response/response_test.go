package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage(t *testing.T) {
	tests := []struct {
		page, size int
		total      int64
		want       PaginationMeta
		offset     int
	}{
		{0, 0, 0, PaginationMeta{CurrentPage: 1, PerPage: DefaultPerPage}, 0},
		{2, 10, 25, PaginationMeta{CurrentPage: 2, PerPage: 10, Total: 25, TotalPages: 3}, 10},
		{3, 500, 100, PaginationMeta{CurrentPage: 3, PerPage: MaxPerPage, Total: 100, TotalPages: 1}, 200},
	}
	for _, tt := range tests {
		p := NewPage(tt.page, tt.size)
		assert.Equal(t, tt.want, p.Meta(tt.total))
		assert.Equal(t, tt.offset, p.Offset())
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errors.Wrap(apperror.NotFound("University not found"), "load"), fiber.StatusNotFound, "NOT_FOUND"},
		{apperror.Conflict("Code already taken"), fiber.StatusConflict, "CONFLICT"},
		{apperror.Validation("Validation failed", map[string]string{"name": "name is required"}), fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{errors.New("connection reset"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return FromError(c, tt.err, "Failed") })

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var body Response
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.Equal(t, tt.code, body.Error.Code)
		if tt.status == fiber.StatusInternalServerError {
			assert.Equal(t, "Failed", body.Error.Message)
		}
	}
}
