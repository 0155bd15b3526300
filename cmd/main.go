package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	storeKind  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "restaurant",
		Short:         "Restaurant ordering core: order lifecycle, permissions, sweeper and notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&storeKind, "store", "postgres", "order and permission store: postgres | memory")

	root.AddCommand(
		serveCmd(),
		sweeperCmd(),
		subscriberCmd(),
		migrateCmd(),
		seedPermissionsCmd(),
		tokenCmd(),
	)
	return root
}
