package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/printers"
	"k8s.io/utils/ptr"

	"github.com/akuity/devportal/pkg/kubernetes/backend"
)

type clustersOptions struct {
	*genericclioptions.PrintFlags

	ConfigPath string
	Kubeconfig string

	Out io.Writer
}

func newClustersCommand() *cobra.Command {
	cmdOpts := &clustersOptions{
		PrintFlags: genericclioptions.NewPrintFlags(""),
	}

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "List the clusters known to the Kubernetes backend",
		Example: `
# List clusters as a table
devportal clusters

# List clusters from a kubeconfig file in YAML output format
devportal clusters --kubeconfig ~/.kube/config -o yaml
`,
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmdOpts.validate(); err != nil {
				return err
			}
			cmdOpts.Out = cmd.OutOrStdout()

			return cmdOpts.run(cmd.Context())
		},
	}
	cmdOpts.addFlags(cmd)

	return cmd
}

func (o *clustersOptions) addFlags(cmd *cobra.Command) {
	o.PrintFlags.AddFlags(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&o.ConfigPath, "config", "c", "", configFlagUsage)
	flags.StringVar(
		&o.Kubeconfig,
		"kubeconfig",
		"",
		"Path to a kubeconfig file whose contexts are listed as clusters. Overrides the configuration file.",
	)
}

// validate rejects output formats no printer supports. An empty format
// selects the table output.
func (o *clustersOptions) validate() error {
	if ptr.Deref(o.PrintFlags.OutputFormat, "") == "" {
		return nil
	}
	_, err := o.PrintFlags.ToPrinter()
	return err
}

func (o *clustersOptions) run(ctx context.Context) error {
	appCfg, err := loadAppConfig(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.Kubeconfig != "" {
		appCfg.Kubernetes.Kubeconfig = o.Kubeconfig
	}
	svc, err := startKubernetesBackend(ctx, appCfg.Kubernetes)
	if err != nil {
		return err
	}
	clusters, err := svc.ListClusters(ctx)
	if err != nil {
		return fmt.Errorf("error listing clusters: %w", err)
	}
	return o.print(clusters)
}

func (o *clustersOptions) print(clusters []backend.ClusterSummary) error {
	if ptr.Deref(o.PrintFlags.OutputFormat, "") == "" {
		return printers.NewTablePrinter(printers.PrintOptions{}).
			PrintObj(newClustersTable(clusters), o.Out)
	}
	list, err := newClustersList(clusters)
	if err != nil {
		return err
	}
	printer, err := o.PrintFlags.ToPrinter()
	if err != nil {
		return fmt.Errorf("error creating printer: %w", err)
	}
	return printer.PrintObj(list, o.Out)
}

func newClustersTable(clusters []backend.ClusterSummary) *metav1.Table {
	table := &metav1.Table{
		ColumnDefinitions: []metav1.TableColumnDefinition{
			{Name: "Name", Type: "string"},
			{Name: "Title", Type: "string"},
			{Name: "Auth Provider", Type: "string"},
			{Name: "Dashboard URL", Type: "string"},
		},
		Rows: make([]metav1.TableRow, len(clusters)),
	}
	for i, cluster := range clusters {
		table.Rows[i] = metav1.TableRow{
			Cells: []any{
				cluster.Name,
				cluster.Title,
				cluster.AuthProvider,
				cluster.DashboardURL,
			},
		}
	}
	return table
}

func newClustersList(clusters []backend.ClusterSummary) (*metav1.List, error) {
	list := &metav1.List{
		TypeMeta: metav1.TypeMeta{
			APIVersion: metav1.Unversioned.String(),
			Kind:       "List",
		},
		Items: make([]runtime.RawExtension, 0, len(clusters)),
	}
	for _, cluster := range clusters {
		raw, err := json.Marshal(cluster)
		if err != nil {
			return nil, fmt.Errorf("error marshaling cluster %q: %w", cluster.Name, err)
		}
		list.Items = append(list.Items, runtime.RawExtension{Raw: raw})
	}
	return list, nil
}
