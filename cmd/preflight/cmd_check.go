package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/preflight/pkg/preflight"
)

type CheckParams struct {
	GlobalSettings
	preflight.CheckParams
}

//go:embed cmd_check_help.txt
var checkHelp string

func init() {
	checkHelp = strings.TrimSpace(internal.Colorize(checkHelp))
}

func GetCheckParams(settings GlobalSettings, source io.Reader, args []string) (*CheckParams, error) {
	flagset := flag.NewFlagSet("check", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), checkHelp)
		flagset.PrintDefaults()
	}

	params := CheckParams{
		GlobalSettings: settings,
		CheckParams:    preflight.CheckParams{Input: source},
	}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.BoolVar(&params.Chart, "chart", false, "treat the input as a gzipped helm chart archive and check every deployment it renders")

	flagset.Parse(args)

	params.Path = flagset.Arg(0)
	params.CheckParams.Namespace = params.GlobalSettings.Namespace

	if params.Input == nil && params.Path == "" {
		return nil, fmt.Errorf("descriptor path is required as first positional arg")
	}

	return &params, nil
}

func Check(ctx context.Context, params CheckParams) error {
	findings, err := preflight.Check(ctx, params.CheckParams)
	if err != nil {
		return err
	}

	var total int
	for _, finding := range findings {
		total += len(finding.Violations)
	}

	if total == 0 {
		_, err := fmt.Fprintf(internal.Stdout(ctx), "checked %d descriptor(s): no violations found\n", len(findings))
		return err
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)

	tbl.AppendHeader(table.Row{"descriptor", "field", "violation"})
	for _, finding := range findings {
		for _, violation := range finding.Violations {
			tbl.AppendRow(table.Row{finding.Descriptor, violation.Field, violation.Detail})
		}
	}

	if _, err := io.WriteString(internal.Stdout(ctx), tbl.Render()+"\n"); err != nil {
		return err
	}

	return fmt.Errorf("found %d violation(s)", total)
}
