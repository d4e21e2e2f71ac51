// Package report renders decoded frames as text.
package report

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/davidjspooner/mms-ber/internal/framework"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

// Frame is one value decoded from an input, or the error that stopped its
// decoding.
type Frame struct {
	Number      uint64
	Source      string
	Destination string
	Offset      int
	Data        []byte
	Type        string
	Value       pdu.Value
	Err         error
}

// Text renders the decoded value as an indented tree.
func (f Frame) Text() string {
	if f.Value == nil {
		return ""
	}
	return pdu.Sprint(f.Value)
}

func (f Frame) Hex() string {
	return hex.EncodeToString(f.Data)
}

// DefaultTemplate lists each frame with its bytes and decoded tree.
const DefaultTemplate = `{{ range .frames -}}
frame {{ .Number }}{{ if .Source }} {{ .Source }} -> {{ .Destination }}{{ end }} offset {{ .Offset }} {{ .Type }}
  bytes {{ .Hex }}
{{ if .Err }}  error {{ .Err }}
{{ else }}{{ indent 2 .Text }}{{ end }}
{{ end -}}
`

var funcs = template.FuncMap{
	"indent": func(n int, s string) string {
		pad := strings.Repeat(" ", n)
		lines := strings.SplitAfter(s, "\n")
		for i, line := range lines {
			if line != "" {
				lines[i] = pad + line
			}
		}
		return strings.Join(lines, "")
	},
}

type templatedReport struct {
	extra        framework.Config
	textTemplate *template.Template
}

func init() {
	Register("template", newTemplatedReport)
}

func newTemplatedReport(args framework.Config) (Interface, error) {
	//user can add arbitrary data to the report

	r := &templatedReport{}

	filename, err := framework.ConsumeOptionalArg(args, "template_file", "")
	if err != nil {
		return nil, err
	}

	templateText, err := framework.ConsumeOptionalArg(args, "template_inline", "")
	if err != nil {
		return nil, err
	}
	if filename != "" && templateText != "" {
		return nil, fmt.Errorf("template_file and template_inline are mutually exclusive")
	}

	if filename != "" {
		content, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		templateText = string(content)
	}
	if templateText == "" {
		templateText = DefaultTemplate
	}

	r.textTemplate, err = template.New("template").Funcs(funcs).Parse(templateText)
	if err != nil {
		return nil, err
	}

	r.extra = args

	return r, nil
}

func (r *templatedReport) Generate(ctx context.Context, frames []Frame) (string, error) {
	buffer := bytes.Buffer{}

	errors := 0
	for _, f := range frames {
		if f.Err != nil {
			errors++
		}
	}
	data := framework.Config{
		"frames": frames,
		"errors": errors,
		"extra":  r.extra,
	}

	err := r.textTemplate.Execute(&buffer, &data)
	if err != nil {
		return "", err
	}
	return buffer.String(), nil
}
