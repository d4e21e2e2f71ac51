package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/davidjspooner/mms-ber/internal/capture"
	"github.com/davidjspooner/mms-ber/internal/framework"
	"github.com/davidjspooner/mms-ber/internal/publisher"
	"github.com/davidjspooner/mms-ber/internal/report"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1ber"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1reflect"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/logevent"
	"github.com/davidjspooner/mms-ber/pkg/mms"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config     *Config
	registry   *asn1schema.Registry
	dumper     *Dumper
	reports    framework.PluginMap[report.Interface]
	publishers framework.PluginMap[publisher.Interface]
}

func NewApp(config *Config) (*App, error) {
	a := &App{
		config:   config,
		registry: asn1schema.NewRegistry(),
		reports: framework.PluginMap[report.Interface]{
			Class:       "report",
			Factory:     report.NewReport,
			Require:     framework.SupportName,
			DefaultKind: "template",
		},
		publishers: framework.PluginMap[publisher.Interface]{
			Class:   "publisher",
			Factory: publisher.NewPublisher,
			Require: framework.SupportName | framework.RequireKind | framework.RequireReports,
		},
	}

	decoder := asn1ber.NewDecoder(asn1ber.DecodeOptions{Strict: config.Strict, MaxDepth: config.MaxDepth})
	if *config.MMS {
		mapper := asn1reflect.NewMapper(a.registry, asn1ber.NewEncoder(asn1ber.EncodeOptions{}), decoder)
		if err := mms.Register(mapper); err != nil {
			return nil, fmt.Errorf("could not register mms types: %w", err)
		}
	}
	for _, filename := range config.Schemas {
		if _, err := asn1schema.LoadYAMLFile(a.registry, filename); err != nil {
			return nil, err
		}
	}
	root, err := a.registry.SchemaFor(config.Root)
	if err != nil {
		return nil, fmt.Errorf("root type: %w", err)
	}
	a.dumper = NewDumper(root, decoder, config.Capture)

	reports := config.Reports
	if len(reports) == 0 {
		reports = []framework.Config{{"name": "frames"}}
	}
	if err := a.reports.LoadAll(reports); err != nil {
		return nil, err
	}
	publishers := config.Publishers
	if len(publishers) == 0 {
		publishers = []framework.Config{{"kind": "file", "filename": "-"}}
	}
	if err := a.publishers.LoadAll(publishers); err != nil {
		return nil, err
	}
	return a, nil
}

// Logger builds the logger the config asks for.
func (a *App) Logger(w io.Writer) *slog.Logger {
	return slog.New(logevent.NewHandler(w, &slog.HandlerOptions{Level: a.config.level}))
}

func (a *App) ReplayPcap(ctx context.Context, filename string) error {
	protocol, err := a.config.Capture.protocol()
	if err != nil {
		return err
	}
	filter := capture.Filter{Protocol: protocol, Port: a.config.Capture.Port}
	return capture.ReplayFile(ctx, filename, filter, a.dumper)
}

// DecodeHex decodes each argument as one payload.
func (a *App) DecodeHex(ctx context.Context, args []string) error {
	for i, arg := range args {
		data, err := ParseHex(arg)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		a.dumper.Payload(ctx, uint64(i+1), "", "", data)
	}
	return nil
}

// DecodeLines decodes each non-empty line of r as one payload.
func (a *App) DecodeLines(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var number uint64
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		number++
		data, err := ParseHex(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", number, err)
		}
		a.dumper.Payload(ctx, number, "", "", data)
	}
	return scanner.Err()
}

// Publish renders the reports each publisher asks for and hands them over.
// A publisher that names no report gets every report.
func (a *App) Publish(ctx context.Context, generated time.Time) error {
	frames := a.dumper.Frames()
	rendered := make(map[string]string)
	render := func(name string) (string, error) {
		if text, ok := rendered[name]; ok {
			return text, nil
		}
		r, err := a.reports.Find(name)
		if err != nil {
			return "", err
		}
		text, err := r.Impl.Generate(ctx, frames)
		if err != nil {
			return "", fmt.Errorf("report %s: %w", name, err)
		}
		rendered[name] = text
		return text, nil
	}
	return a.publishers.ForEach(func(name string, p *framework.Plugin[publisher.Interface]) error {
		names := p.Reports
		if len(names) == 0 {
			names = a.reports.Names()
		}
		for _, reportName := range names {
			text, err := render(reportName)
			if err != nil {
				return err
			}
			if err := p.Impl.Publish(ctx, text, generated); err != nil {
				return fmt.Errorf("publisher %s: %w", name, err)
			}
		}
		return nil
	})
}

// Failures counts frames that did not decode.
func (a *App) Failures() int {
	n := 0
	for _, f := range a.dumper.Frames() {
		if f.Err != nil {
			n++
		}
	}
	return n
}

func (a *App) WriteMetrics() error {
	if a.config.MetricsFile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(a.config.MetricsFile, prometheus.DefaultGatherer)
}
