package controllers

import (
	"testing"
	"time"
)

func TestNewLocationControllerInterval(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, defaultStreamInterval},
		{-time.Second, defaultStreamInterval},
		{500 * time.Millisecond, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := NewLocationController(nil, tt.in).interval; got != tt.want {
			t.Errorf("interval %v became %v, want %v", tt.in, got, tt.want)
		}
	}
}
