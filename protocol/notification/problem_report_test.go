package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ProblemReport
	}{
		{"coded", `{"code":"nack","description":"bad credential"}`,
			ProblemReport{Code: CodeNACK, Description: "bad credential"}},
		{"description only", `{"description":"no thanks"}`,
			ProblemReport{Description: "no thanks"}},
		{"plain text", "no thanks", ProblemReport{Description: "no thanks"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse([]byte(tt.body)))
		})
	}
}
