// Phoneprice - Mobile Phone Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phoneprice

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type specRequest struct {
	Brand   string  `flag:"brand" validate:"required"`
	Battery int     `flag:"battery" validate:"min=1000,max=10000"`
	Screen  float64 `flag:"screen" validate:"min=4,max=8"`
	Mode    string  `validate:"omitempty,oneof=json text"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      specRequest
		wantFields []string
		wantMsg    string
	}{
		{
			name:  "valid",
			input: specRequest{Brand: "Samsung", Battery: 4500, Screen: 6.5},
		},
		{
			name:  "boundaries inclusive",
			input: specRequest{Brand: "Apple", Battery: 1000, Screen: 8},
		},
		{
			name:       "missing brand",
			input:      specRequest{Battery: 4500, Screen: 6.5},
			wantFields: []string{"brand"},
			wantMsg:    "brand is required",
		},
		{
			name:       "battery below range",
			input:      specRequest{Brand: "Apple", Battery: 500, Screen: 6.5},
			wantFields: []string{"battery"},
			wantMsg:    "battery must be at least 1000 (got 500)",
		},
		{
			name:       "multiple failures keep struct order",
			input:      specRequest{Brand: "Apple", Battery: 20000, Screen: 9, Mode: "xml"},
			wantFields: []string{"battery", "screen", "Mode"},
			wantMsg:    "Mode must be one of: json text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			var got []string
			for _, fe := range err.Errors() {
				got = append(got, fe.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("Errors() fields = %v, want %v", got, tt.wantFields)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want containing %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_FieldErrorDetails(t *testing.T) {
	err := ValidateStruct(&specRequest{Brand: "Apple", Battery: 500, Screen: 6.5})
	if err == nil {
		t.Fatal("ValidateStruct() expected error, got nil")
	}
	got := err.Errors()
	if len(got) != 1 {
		t.Fatalf("Errors() = %v, want one entry", got)
	}
	want := FieldError{
		Field:   "battery",
		Rule:    "min",
		Param:   "1000",
		Value:   500,
		Message: "battery must be at least 1000 (got 500)",
	}
	if got[0] != want {
		t.Errorf("Errors()[0] = %+v, want %+v", got[0], want)
	}
	if got[0].Error() != want.Message {
		t.Errorf("Error() = %q, want %q", got[0].Error(), want.Message)
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	err := &RequestValidationError{}
	if err.Error() != "validation failed" {
		t.Errorf("Error() = %q, want 'validation failed'", err.Error())
	}
}
