package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/davidmdm/preflight/internal"
	"github.com/davidmdm/preflight/pkg/preflight"
)

type ApplyParams struct {
	GlobalSettings
	preflight.ApplyParams
}

//go:embed cmd_apply_help.txt
var applyHelp string

func init() {
	applyHelp = strings.TrimSpace(internal.Colorize(applyHelp))
}

func GetApplyParams(settings GlobalSettings, source io.Reader, args []string) (*ApplyParams, error) {
	flagset := flag.NewFlagSet("apply", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), applyHelp)
		flagset.PrintDefaults()
	}

	params := ApplyParams{
		GlobalSettings: settings,
		ApplyParams:    preflight.ApplyParams{Input: source},
	}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.BoolVar(&params.SkipDryRun, "skip-dry-run", false, "disables the dry run apply that runs before the real one")
	flagset.BoolVar(&params.ForceConflicts, "force-conflicts", false, "force apply changes on field manager conflicts")
	flagset.BoolVar(&params.DiffOnly, "diff-only", false, "show diff between the live object and the descriptor. Does not apply anything to cluster")
	flagset.BoolVar(&params.Color, "color", term.IsTerminal(int(os.Stdout.Fd())), "use colored output in diffs")
	flagset.IntVar(&params.DiffContext, "context", 4, "number of lines of context in diff (ignored if not using --diff-only)")
	flagset.DurationVar(&params.Wait, "wait", 0, "time to wait for the deployment to become ready")
	flagset.DurationVar(&params.Poll, "poll", 5*time.Second, "interval to poll resource state at. Used with --wait")

	flagset.Parse(args)

	params.Path = flagset.Arg(0)
	params.ApplyParams.Namespace = params.GlobalSettings.Namespace

	if params.Input == nil && params.Path == "" {
		return nil, fmt.Errorf("descriptor path is required as first positional arg")
	}

	return &params, nil
}

func Apply(ctx context.Context, params ApplyParams) error {
	commander, err := preflight.FromKubeConfig(params.KubeConfigPath)
	if err != nil {
		return err
	}

	if err := commander.Apply(ctx, params.ApplyParams); err != nil {
		return err
	}

	if !params.DiffOnly {
		if _, err := io.WriteString(internal.Stdout(ctx), "descriptor applied\n"); err != nil {
			return err
		}
	}

	return nil
}
