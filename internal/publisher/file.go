package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/davidjspooner/mms-ber/internal/framework"
)

// Stdout is where the "-" filename writes.
var Stdout io.Writer = os.Stdout

type filePublisher struct {
	fileName string
}

var _ Interface = &filePublisher{}

func init() {
	Register("file", newFilePublisher)
}

func newFilePublisher(args framework.Config) (Interface, error) {
	p := &filePublisher{}
	err := framework.CheckFields(args, "filename")
	if err != nil {
		return nil, err
	}

	p.fileName, err = framework.ConsumeOptionalArg(args, "filename", "")
	if err != nil {
		return nil, err
	}
	if p.fileName == "" {
		return nil, fmt.Errorf("filename is required")
	}

	return p, nil
}

// Publish replaces the file through a rename so readers never see a partial
// report.
func (p *filePublisher) Publish(ctx context.Context, report string, generated time.Time) error {
	if p.fileName == "-" {
		_, err := io.WriteString(Stdout, report)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.fileName), ".report-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(report); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chtimes(tmp.Name(), generated, generated); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.fileName)
}
