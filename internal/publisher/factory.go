package publisher

import (
	"context"
	"time"

	"github.com/davidjspooner/mms-ber/internal/framework"
)

// Interface delivers a generated report somewhere.
type Interface interface {
	Publish(ctx context.Context, report string, generated time.Time) error
}

type FactoryFunc func(args framework.Config) (Interface, error)

var factories = framework.Factories[Interface]{Class: "publisher"}

func Register(kind string, f FactoryFunc) {
	factories.Register(kind, f)
}

// NewPublisher matches the factory signature of framework.PluginMap.
func NewPublisher(kind string, args framework.Config) (Interface, error) {
	return factories.New(kind, args)
}
