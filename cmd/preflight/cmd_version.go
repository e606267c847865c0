package main

import (
	"cmp"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
)

func Version() error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("binary was built without module support: no version information available")
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)

	tbl.AppendRow(table.Row{"preflight", cmp.Or(info.Main.Version, "(devel)")})

	for _, mod := range info.Deps {
		if !slices.Contains([]string{"k8s.io/client-go", "helm.sh/helm/v3"}, mod.Path) {
			continue
		}
		tbl.AppendRow(table.Row{mod.Path, mod.Version})
	}

	fmt.Println(tbl.Render())

	return nil
}
