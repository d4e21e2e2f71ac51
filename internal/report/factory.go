package report

import (
	"context"

	"github.com/davidjspooner/mms-ber/internal/framework"
)

// Interface renders the decoded frames of a run as text.
type Interface interface {
	Generate(ctx context.Context, frames []Frame) (string, error)
}

type FactoryFunc func(args framework.Config) (Interface, error)

var factories = framework.Factories[Interface]{Class: "report"}

func Register(kind string, f FactoryFunc) {
	factories.Register(kind, f)
}

// NewReport matches the factory signature of framework.PluginMap.
func NewReport(kind string, args framework.Config) (Interface, error) {
	return factories.New(kind, args)
}
