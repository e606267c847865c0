package main

import (
	"cmp"
	"flag"
	"os"
	"path/filepath"

	"github.com/davidmdm/conf"
)

type GlobalSettings struct {
	KubeConfigPath string
	Namespace      string
	Debug          bool
}

var home string

func init() {
	home, _ = os.UserHomeDir()
}

func GetSettings() (settings GlobalSettings, err error) {
	conf.Var(conf.Environ, &settings.KubeConfigPath, "PREFLIGHT_KUBECONFIG", conf.Required[string](false))
	conf.Var(conf.Environ, &settings.Namespace, "PREFLIGHT_NAMESPACE", conf.Required[string](false))
	if err = conf.Environ.Parse(); err != nil {
		return
	}

	settings.KubeConfigPath = cmp.Or(settings.KubeConfigPath, filepath.Join(home, ".kube/config"))
	settings.Namespace = cmp.Or(settings.Namespace, "default")

	return
}

func RegisterGlobalFlags(flagset *flag.FlagSet, settings *GlobalSettings) {
	flagset.StringVar(&settings.KubeConfigPath, "kubeconfig", settings.KubeConfigPath, "path to kube config")
	flagset.StringVar(&settings.Namespace, "namespace", settings.Namespace, "preferred namespace for the descriptor if it does not define one")
	flagset.BoolVar(&settings.Debug, "debug", settings.Debug, "print debug timings to stderr")
}
