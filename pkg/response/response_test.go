package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"affiliate/internal/service"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		code    string
	}{
		{"validation", service.Validation("linkId is required."), http.StatusBadRequest, "linkId is required.", "bad_request"},
		{"unauthorized", service.Unauthorized("invalid email or password"), http.StatusUnauthorized, "invalid email or password", "unauthorized"},
		{"forbidden", service.Forbidden("Not a member of this workspace."), http.StatusForbidden, "Not a member of this workspace.", "forbidden"},
		{"not found", service.NotFound("Link not found."), http.StatusNotFound, "Link not found.", "not_found"},
		{"wrapped conflict", fmt.Errorf("approve: %w", service.Conflict("Link is already associated with another partner.")),
			http.StatusConflict, "Link is already associated with another partner.", "conflict"},
		{"downstream", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "Failed to approve partner.", "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := FromError(tt.err, "Failed to approve partner.")
			if status != tt.status || body.StatusCode != tt.status {
				t.Fatalf("status = %d/%d, want %d", status, body.StatusCode, tt.status)
			}
			if body.Status != "error" || body.Error == nil {
				t.Fatalf("body = %+v, want error envelope", body)
			}
			if body.Error.Message != tt.message || body.Error.Code != tt.code {
				t.Fatalf("error = %+v, want {%s %s}", body.Error, tt.message, tt.code)
			}
		})
	}
}

func TestSuccessWithPagination(t *testing.T) {
	r := SuccessWithPagination(http.StatusOK, []int{1, 2}, 2, 10, 12)
	if r.Status != "success" || r.Meta == nil || r.Meta.Total != 12 || r.Meta.Page != 2 {
		t.Fatalf("response = %+v", r)
	}
	if r.Error != nil {
		t.Fatal("success response must not carry an error")
	}
}
