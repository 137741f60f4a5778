package linear_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pico/internal/adapters/linear"
	"go.trai.ch/pico/internal/compiler"
)

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name       string
		report     compiler.Report
		goldenName string
	}{
		{
			name:       "clean",
			report:     compiler.Report{Files: 3, Definitions: 12},
			goldenName: "report_clean",
		},
		{
			name: "problems",
			report: compiler.Report{
				Files:       4,
				Definitions: 1,
				Diagnostics: []compiler.Diagnostic{
					{Path: "b.graphql", Line: 2, Message: `type "User" is already declared in a.graphql`},
					{Path: "b.graphql", Line: 14, Message: `extension of unknown type "Post"`},
					{Path: "c.graphql", Line: 1, Message: `fragment "F" is on unknown type "Missing"`},
				},
			},
			goldenName: "report_problems",
		},
		{
			name: "single file",
			report: compiler.Report{
				Files:       1,
				Diagnostics: []compiler.Diagnostic{{Path: "d.graphql", Message: "unreadable"}},
			},
			goldenName: "report_single",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			var buf bytes.Buffer
			r := linear.NewRenderer(&buf)
			require.NoError(t, r.Render(tt.report, 12*time.Millisecond))

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestRenderer_WriteError(t *testing.T) {
	r := linear.NewRenderer(failingWriter{})
	require.Error(t, r.Render(compiler.Report{}, 0))
}
