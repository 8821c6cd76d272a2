package main

import (
	"context"
	"encoding/json"

	"github.com/restlens/go-restlens/model"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:     "fetch <provider> <request-url>",
	Short:   "Resolve one lens and print its payload",
	Long:    "Sends one lens request and prints the resulting lens title, command and arguments as JSON. Failed requests print the error lens.",
	Example: "restlens fetch jira 'https://lens.example.com/jira?m[]=PROJ-1&m[]=PROJ-1'",
	Args:    cobra.ExactArgs(2),
	RunE:    fetch,
}

func fetch(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	resolver, err := newResolver(env)
	if err != nil {
		return err
	}

	m := model.Match{
		ProviderID: args[0],
		RequestURL: args[1],
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res := resolver.Resolve(ctx, m)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res.Payload)
}
