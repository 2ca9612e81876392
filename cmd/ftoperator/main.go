package main

import (
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"

	"ftoperator/pkg/api/v1alpha1"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(v1alpha1.AddToScheme(scheme))
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ftoperator",
		Short: "Kubernetes operator for freqtrade trading bots",
		Long: `ftoperator runs freqtrade trading bots declared as Bot resources
(freqtrade.io/v1alpha1). Each Bot gets a Deployment, its runtime config Secret,
a strategy ConfigMap and, when enabled, an API Service and a data volume.`,
		SilenceUsage: true,
	}
	root.AddCommand(newControllerCommand(), newCRDsCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
