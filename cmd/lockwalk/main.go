package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	"lockwalk/pkg/analyzer"
	"lockwalk/pkg/driver"
	"lockwalk/pkg/report"
)

const (
	exitDiagnostics = 1 << 0
	exitFileErrors  = 1 << 1
)

func main() {
	configPath := flag.String("config", "", "YAML lock catalog file (default: built-in families)")
	locks := flag.String("locks", "", "comma-separated subset of lock families to check")
	jobs := flag.Int("jobs", runtime.NumCPU(), "number of files analyzed in parallel")
	verbose := flag.Bool("v", false, "enable debug logging")
	noColor := flag.Bool("no-color", false, "disable styled output")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: lockwalk [flags] file.c ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cat, err := buildCatalog(*configPath, *locks)
	if err != nil {
		log.Fatal(err)
	}

	results := driver.Run(context.Background(), flag.Args(), cat, *jobs)

	printer := report.NewPrinter(os.Stdout, cat, !*noColor)
	exit := 0
	for _, r := range results {
		if r.Err != nil {
			log.WithField("file", r.File).Warn(r.Err)
			exit |= exitFileErrors
			continue
		}
		if len(r.Diags) > 0 {
			exit |= exitDiagnostics
			printer.PrintAll(r.Diags)
		}
	}
	os.Exit(exit)
}

func buildCatalog(configPath, locks string) (*analyzer.Catalog, error) {
	cat := analyzer.DefaultCatalog()
	if configPath != "" {
		var err error
		cat, err = analyzer.LoadCatalog(configPath)
		if err != nil {
			return nil, err
		}
	}
	if locks != "" {
		names := strings.Split(locks, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		return cat.Filter(names...)
	}
	return cat, nil
}
