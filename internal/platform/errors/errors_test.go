package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindConfig, "load", "failed to load config",
				errors.New("file not found")),
			contains: []string{"[config:load]", "failed to load config", "file not found"},
		},
		{
			name:     "error without cause",
			err:      New(KindValidation, "validate", "voice does not support language"),
			contains: []string{"[validation:validate]", "voice does not support language"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindTransport, "read", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindCache, "get", "message"),
			kind:     KindCache,
			expected: true,
		},
		{
			name:     "wrapped error kind match",
			err:      Wrap(KindAbnormalClose, "recv", "message", errors.New("cause")),
			kind:     KindAbnormalClose,
			expected: true,
		},
		{
			name:     "error kind mismatch",
			err:      New(KindConnect, "dial", "message"),
			kind:     KindMerge,
			expected: false,
		},
		{
			name:     "non-typed error",
			err:      errors.New("plain error"),
			kind:     KindConnect,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsKind(tt.err, tt.kind)
			if result != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindSynthesisTimeout, "turn", "deadline exceeded")); got != KindSynthesisTimeout {
		t.Errorf("KindOf() = %v, expected %v", got, KindSynthesisTimeout)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf() = %v, expected %v", got, KindUnknown)
	}
}
