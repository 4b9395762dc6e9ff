package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     bool
	}{
		{
			name:     "exit code 0 is success",
			exitCode: 0,
			want:     true,
		},
		{
			name:     "exit code 1 is failure (usage)",
			exitCode: 1,
			want:     false,
		},
		{
			name:     "exit code 2 is failure (compile errors)",
			exitCode: 2,
			want:     false,
		},
		{
			name:     "exit code -1 is failure (killed)",
			exitCode: -1,
			want:     false,
		},
		{
			name:     "exit code 127 is failure",
			exitCode: 127,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSuccess(tt.exitCode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     string
	}{
		{
			name:     "exit code 0",
			exitCode: 0,
			want:     "Success",
		},
		{
			name:     "exit code 1 - usage",
			exitCode: 1,
			want:     "Usage error",
		},
		{
			name:     "exit code 2 - compile errors",
			exitCode: 2,
			want:     "Compile errors",
		},
		{
			name:     "exit code 3 - link errors",
			exitCode: 3,
			want:     "Link errors",
		},
		{
			name:     "exit code 6 - linker create",
			exitCode: 6,
			want:     "Cannot create linker",
		},
		{
			name:     "unknown exit code",
			exitCode: 999,
			want:     "Unknown error",
		},
		{
			name:     "negative exit code",
			exitCode: -1,
			want:     "Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetErrorMessage(tt.exitCode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorCodes_Coverage(t *testing.T) {
	for code := 0; code <= 6; code++ {
		msg := GetErrorMessage(code)
		assert.NotEqual(t, "Unknown error", msg, "Code %d should have a message", code)
		assert.NotEmpty(t, msg, "Code %d should have a non-empty message", code)
	}
}
