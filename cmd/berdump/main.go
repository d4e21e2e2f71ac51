// Command berdump decodes BER values from hex arguments, hex lines on stdin
// or a pcap capture, using the built-in MMS types or YAML schema files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/davidjspooner/mms-ber/pkg/logevent"
)

func main() {

	configPath := flag.String("config", "", "path to config file")
	pcapPath := flag.String("pcap", "", "pcap file to replay instead of hex arguments")
	root := flag.String("type", "", "root type to decode, overrides the config")
	strict := flag.Bool("strict", false, "reject encodings DER forbids")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [hex ...|-]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	config := DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	if *root != "" {
		config.Root = *root
	}
	if *strict {
		config.Strict = true
	}

	app, err := NewApp(config)
	if err != nil {
		log.Fatal(err)
	}
	ctx := logevent.WithLogger(context.Background(), app.Logger(os.Stderr))

	switch {
	case *pcapPath != "":
		err = app.ReplayPcap(ctx, *pcapPath)
	case flag.NArg() == 1 && flag.Arg(0) == "-":
		err = app.DecodeLines(ctx, os.Stdin)
	case flag.NArg() > 0:
		err = app.DecodeHex(ctx, flag.Args())
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Publish(ctx, time.Now()); err != nil {
		log.Fatal(err)
	}
	if err := app.WriteMetrics(); err != nil {
		log.Fatal(err)
	}
	if app.Failures() > 0 {
		os.Exit(1)
	}
}
