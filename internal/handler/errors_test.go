package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/teampulse/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidInput, http.StatusBadRequest},
		{model.ErrCodeInvalidPeriod, http.StatusBadRequest},
		{model.ErrCodeEmptyOrUnparseable, http.StatusBadRequest},
		{model.ErrCodeUploadValidation, http.StatusUnprocessableEntity},
		{model.ErrCodeTokenInvalid, http.StatusNotFound},
		{model.ErrCodeTeamNotFound, http.StatusNotFound},
		{model.ErrCodeCheckinNotFound, http.StatusNotFound},
		{model.ErrCodeTokenNotFound, http.StatusNotFound},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeForbidden, http.StatusForbidden},
		{model.ErrCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_APIError(t *testing.T) {
	rec := httptest.NewRecorder()

	handleServiceError(rec, model.NewUploadValidationError([]string{"行2: employee_idが空です"}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeUploadValidation {
		t.Errorf("code = %q, want UPLOAD_VALIDATION", body.Code)
	}
	if len(body.Details) != 1 {
		t.Errorf("details = %v, want 1 entry", body.Details)
	}
}

func TestHandleServiceError_UnknownErrorBecomes500(t *testing.T) {
	rec := httptest.NewRecorder()

	handleServiceError(rec, errors.New("connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
	// 内部エラーの詳細はレスポンスに漏らさない
	if body.Message != "内部エラーが発生しました。" {
		t.Errorf("message = %q", body.Message)
	}
}
