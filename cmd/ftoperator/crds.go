package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ftoperator/pkg/api/v1alpha1"
)

func newCRDsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crds",
		Short: "Print the Bot CustomResourceDefinition as YAML",
		Example: `  # Install the CRD
  ftoperator crds | kubectl apply -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, err := v1alpha1.CustomResourceDefinitionYAML()
			if err != nil {
				return fmt.Errorf("render crd: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(manifest)
			return err
		},
	}
}
