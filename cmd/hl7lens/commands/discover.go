package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hl7lens/hl7lens-go/pkg/discovery"
)

// DiscoverOptions configures the discover command.
type DiscoverOptions struct {
	Timeout   time.Duration
	Interface string
	JSON      bool
}

// Browser finds web adapters. Tests replace it.
type Browser interface {
	FindAll(ctx context.Context) ([]*discovery.Service, error)
}

// NewBrowser creates the browser used by RunDiscover.
var NewBrowser = func(cfg discovery.BrowserConfig) Browser {
	return discovery.NewMDNSBrowser(cfg)
}

// RunDiscover lists hl7lens-web instances on the local network.
func RunDiscover(args []string, stdout, stderr io.Writer) int {
	opts, err := parseDiscoverArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printDiscoverUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	browser := NewBrowser(discovery.BrowserConfig{
		Interface: opts.Interface,
		Timeout:   opts.Timeout,
	})

	services, err := browser.FindAll(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.JSON {
		if services == nil {
			services = []*discovery.Service{}
		}
		return writeJSON(stdout, stderr, services)
	}

	if len(services) == 0 {
		fmt.Fprintln(stdout, "No hl7lens-web instances found.")
		return exitSuccess
	}
	for _, svc := range services {
		line := svc.String()
		if !svc.Compatible {
			line += " [incompatible]"
		}
		fmt.Fprintln(stdout, line)
		if len(svc.HL7Versions) > 0 {
			fmt.Fprintf(stdout, "  HL7 versions: %s\n", strings.Join(svc.HL7Versions, ", "))
		}
	}
	return exitSuccess
}

func parseDiscoverArgs(args []string) (DiscoverOptions, error) {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	opts := DiscoverOptions{}

	fs.DurationVar(&opts.Timeout, "timeout", discovery.BrowseTimeout, "How long to browse")
	fs.StringVar(&opts.Interface, "interface", "", "Network interface to browse on")
	fs.BoolVar(&opts.JSON, "json", false, "Output services as JSON")

	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func printDiscoverUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: hl7lens discover [options]

Options:
  --timeout D     How long to browse (default 3s)
  --interface IF  Network interface to browse on
  --json          Output services as JSON`)
}
