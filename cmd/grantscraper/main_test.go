// cmd/grantscraper/main_test.go
package main

import (
	"testing"

	"github.com/grantio/grantscraper/internal/utils"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  utils.LogLevel
	}{
		{"debug", utils.DebugLevel},
		{"info", utils.InfoLevel},
		{"WARN", utils.WarnLevel},
		{"error", utils.ErrorLevel},
		{"", utils.InfoLevel},
		{"nonsense", utils.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
