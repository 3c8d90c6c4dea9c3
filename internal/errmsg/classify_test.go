package errmsg

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/service"
)

func TestClassify(t *testing.T) {
	at := time.Unix(100, 0)
	tests := []struct {
		name      string
		err       error
		kind      catalog.ErrorKind
		retryable bool
		details   string
	}{
		{"validation", &service.ValidationError{Field: "query", Reason: "empty"}, catalog.ErrorValidation, false, ""},
		{"network", &service.NetworkError{Op: "GET", Err: errors.New("refused")}, catalog.ErrorNetwork, true, ""},
		{"wrapped network", fmt.Errorf("poll: %w", &service.NetworkError{Op: "GET", Err: errors.New("reset")}), catalog.ErrorNetwork, true, ""},
		{"deadline", context.DeadlineExceeded, catalog.ErrorNetwork, true, ""},
		{"api 5xx", &service.APIError{StatusCode: 503, Message: "busy"}, catalog.ErrorAPI, true, "busy"},
		{"api 4xx", &service.APIError{StatusCode: 422, Message: "bad album"}, catalog.ErrorAPI, false, "bad album"},
		{"not found", &service.APIError{StatusCode: 404}, catalog.ErrorAPI, false, ""},
		{"unknown", errors.New("weird"), catalog.ErrorUnknown, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(OpDownloadStatus, tt.err, at)
			if got == nil {
				t.Fatal("Classify() = nil")
			}
			if got.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if got.Details != tt.details {
				t.Errorf("Details = %q, want %q", got.Details, tt.details)
			}
			if got.Message != Format(OpDownloadStatus, tt.err) {
				t.Errorf("Message = %q", got.Message)
			}
			if !got.Timestamp.Equal(at) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, at)
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := Classify(OpSearch, nil, time.Now()); got != nil {
		t.Errorf("Classify(nil) = %+v, want nil", got)
	}
}
