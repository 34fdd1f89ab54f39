package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swissjobs-utils/pkg/models"
)

var detailsLang string

var detailsCmd = &cobra.Command{
	Use:   "details <id>",
	Short: "Fetch one listing by its portal id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newEngine(true)
		if err != nil {
			return err
		}
		defer cleanup()

		listing, err := svc.GetDetails(context.Background(), args[0], models.Language(detailsLang))
		if err != nil {
			return err
		}
		return writeListing(os.Stdout, outputFormat, listing)
	},
}

func init() {
	detailsCmd.Flags().StringVar(&detailsLang, "lang", "en", "description language: en, de, fr or it")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <location>",
	Short: "Resolve a location name or postal code to BFS communal codes",
	Example: `  swissjobs resolve 8000
  swissjobs resolve "Genève"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newEngine(false)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := svc.ResolveLocation(args[0])
		if err != nil {
			return err
		}
		if !resp.Resolved {
			fmt.Printf("no municipality match for %q\n", args[0])
			return nil
		}
		return writeJSONOrPlain(os.Stdout, outputFormat, resp, func() {
			fmt.Printf("%s -> %v\n", resp.Input, resp.Codes)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the configured job portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newEngine(false)
		if err != nil {
			return err
		}
		defer cleanup()

		health := svc.ProviderHealth(context.Background())
		err = writeJSONOrPlain(os.Stdout, outputFormat, health, func() {
			if health.Reachable {
				fmt.Printf("%s: reachable (%s)\n", health.Provider, health.Latency)
			} else {
				fmt.Printf("%s: unreachable: %s\n", health.Provider, health.Message)
			}
		})
		if err != nil {
			return err
		}
		if !health.Reachable {
			os.Exit(1)
		}
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the registered job portal providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newEngine(false)
		if err != nil {
			return err
		}
		defer cleanup()

		for _, name := range svc.Providers() {
			fmt.Println(name)
		}
		return nil
	},
}
