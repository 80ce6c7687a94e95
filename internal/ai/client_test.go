package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"score": 80}`, `{"score": 80}`},
		{"```json\n{\"score\": 80}\n```", `{"score": 80}`},
		{"```\n{\"score\": 80}\n```", `{"score": 80}`},
		{"  {\"score\": 80}  ", `{"score": 80}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in))
	}
}
