package main

import (
	"fmt"

	"github.com/restlens/go-restlens/config"
	"github.com/restlens/go-restlens/model"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Short:   "Validate the provider file",
	Long:    "Loads the provider file and reports every provider with a missing id or url, an unknown flag, or a pattern that does not compile. With --print, the providers that were loaded are printed as TOML.",
	Example: "restlens check --config restlens.toml --print",
	Args:    cobra.NoArgs,
	RunE:    check,
}

var printProviders bool

func init() {
	checkCmd.Flags().BoolVar(&printProviders, "print", false, "print the loaded providers as TOML")
}

func check(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	if env.Config == "" {
		return fmt.Errorf("no provider file; use --config or RESTLENS_CONFIG")
	}
	providers, err := loadProviders(env)
	if err != nil {
		return err
	}
	if err = model.ValidateProviders(providers); err != nil {
		return err
	}
	if printProviders {
		data, err := config.Encode(providers)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d provider(s) OK\n", len(providers))
	return nil
}
