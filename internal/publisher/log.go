package publisher

import (
	"context"
	"time"

	"github.com/davidjspooner/mms-ber/internal/framework"
	"github.com/davidjspooner/mms-ber/pkg/logevent"
)

type logPublisher struct {
	prefix, suffix string
}

var _ Interface = &logPublisher{}

func init() {
	Register("log", newLogPublisher)
}

func newLogPublisher(args framework.Config) (Interface, error) {
	p := &logPublisher{}

	err := framework.CheckFields(args, "prefix", "suffix")
	if err != nil {
		return nil, err
	}

	p.prefix, err = framework.ConsumeOptionalArg(args, "prefix", "")
	if err != nil {
		return nil, err
	}
	p.suffix, err = framework.ConsumeOptionalArg(args, "suffix", "")
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *logPublisher) Publish(ctx context.Context, report string, generated time.Time) error {
	logevent.LoggerFromContext(ctx).Info(p.prefix+report+p.suffix, "generated", generated, logevent.Event("report_published"))
	return nil
}
