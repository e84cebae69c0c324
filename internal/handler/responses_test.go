package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/petpals/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeUnauthenticated, http.StatusUnauthorized},
		{model.ErrCodeForbidden, http.StatusForbidden},
		{model.ErrCodeInvalidAmount, http.StatusBadRequest},
		{model.ErrCodeInvalidStatus, http.StatusBadRequest},
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeInsufficientBalance, http.StatusConflict},
		{model.ErrCodeConcurrentConflict, http.StatusConflict},
		{model.ErrCodeDonationsPaused, http.StatusConflict},
		{model.ErrCodeUserAlreadyExists, http.StatusConflict},
		{model.ErrCodeCampaignNotFound, http.StatusNotFound},
		{model.ErrCodePetNotFound, http.StatusNotFound},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{model.ErrCodePaymentFailed, http.StatusBadGateway},
		{model.ErrCodePartialWrite, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
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

func TestHandleServiceError_APIErrorBody(t *testing.T) {
	w := httptest.NewRecorder()

	handleServiceError(w, fmt.Errorf("applying refund: %w", model.NewInsufficientBalanceError(100, 150)))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != model.ErrCodeInsufficientBalance {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInsufficientBalance)
	}
	if body.Message == "" || body.Action == "" {
		t.Error("error body should carry a message and an action")
	}
}

func TestHandleServiceError_UnknownErrorIs500(t *testing.T) {
	w := httptest.NewRecorder()

	handleServiceError(w, errors.New("db connection lost"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	// 内部エラーの詳細はユーザーに漏らさない
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
}
