package dto

import (
	"strings"
	"testing"
)

func TestValidateSubmitRequest(t *testing.T) {
	lat := 91.0
	tests := []struct {
		name    string
		req     SubmitRequest
		wantErr string
	}{
		{
			name: "ok",
			req:  SubmitRequest{ContentKind: "primary", Title: "Healed", Description: "Thank you"},
		},
		{
			name:    "missing kind",
			req:     SubmitRequest{Title: "Healed", Description: "Thank you"},
			wantErr: "content_kind is required",
		},
		{
			name:    "title too long",
			req:     SubmitRequest{ContentKind: "request", Title: strings.Repeat("a", 101), Description: "x"},
			wantErr: "title must be at most 100 characters",
		},
		{
			name: "multibyte title at limit",
			req:  SubmitRequest{ContentKind: "request", Title: strings.Repeat("ж", 100), Description: "x"},
		},
		{
			name:    "bad urgency",
			req:     SubmitRequest{ContentKind: "request", Title: "t", Description: "d", Urgency: "asap"},
			wantErr: "urgency must be one of",
		},
		{
			name:    "bad latitude",
			req:     SubmitRequest{ContentKind: "primary", Title: "t", Description: "d", Latitude: &lat},
			wantErr: "latitude is invalid",
		},
	}

	for _, tt := range tests {
		err := Validate(tt.req)
		if tt.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: got %v want %q", tt.name, err, tt.wantErr)
		}
	}
}
