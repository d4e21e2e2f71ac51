package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidjspooner/mms-ber/internal/framework"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
	"github.com/stretchr/testify/require"
)

var frames = []Frame{
	{
		Number: 1,
		Data:   []byte{0x85, 0x02, 0x01, 0x2C},
		Type:   "MMSpdu",
		Value:  pdu.Choice{Name: "cancel-RequestPDU", Value: uint64(300)},
	},
	{
		Number:      2,
		Source:      "10.0.0.1:40000",
		Destination: "10.0.0.2:102",
		Offset:      4,
		Data:        []byte{0xA7, 0x03},
		Type:        "MMSpdu",
		Err:         errors.New("truncated input"),
	},
}

func TestDefaultTemplate(t *testing.T) {
	r, err := NewReport("template", framework.Config{})
	require.NoError(t, err)
	got, err := r.Generate(context.Background(), frames)
	require.NoError(t, err)
	require.Equal(t, `frame 1 offset 0 MMSpdu
  bytes 8502012c
  cancel-RequestPDU: 300

frame 2 10.0.0.1:40000 -> 10.0.0.2:102 offset 4 MMSpdu
  bytes a703
  error truncated input

`, got)
}

func TestInlineTemplate(t *testing.T) {
	r, err := NewReport("template", framework.Config{
		"template_inline": `{{ .extra.title }}: {{ len .frames }} frames, {{ .errors }} errors`,
		"title":           "capture",
	})
	require.NoError(t, err)
	got, err := r.Generate(context.Background(), frames)
	require.NoError(t, err)
	require.Equal(t, "capture: 2 frames, 1 errors", got)
}

func TestTemplateFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "frames.tmpl")
	require.NoError(t, os.WriteFile(filename, []byte(`{{ range .frames }}{{ .Number }}={{ .Hex }};{{ end }}`), 0o644))

	r, err := NewReport("template", framework.Config{"template_file": filename})
	require.NoError(t, err)
	got, err := r.Generate(context.Background(), frames)
	require.NoError(t, err)
	require.Equal(t, "1=8502012c;2=a703;", got)
}

func TestReportErrors(t *testing.T) {
	tests := []struct {
		name string
		kind string
		args framework.Config
	}{
		{"unknown kind", "html", framework.Config{}},
		{"both templates", "template", framework.Config{"template_file": "x", "template_inline": "y"}},
		{"missing file", "template", framework.Config{"template_file": filepath.Join(t.TempDir(), "missing")}},
		{"bad template", "template", framework.Config{"template_inline": "{{ .frames"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewReport(test.kind, test.args)
			require.Error(t, err)
		})
	}
}
