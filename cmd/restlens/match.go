package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/restlens/go-restlens/config"
	"github.com/restlens/go-restlens/document"
	"github.com/restlens/go-restlens/match"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:     "match <file>",
	Short:   "Print the lens matches in a file",
	Long:    "Matches the configured providers against a file and prints each match with its position and request URL. No requests are sent.",
	Example: "restlens match --config restlens.toml NOTES.md",
	Args:    cobra.ExactArgs(1),
	RunE:    runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	providers, err := loadProviders(env)
	if err != nil {
		return err
	}

	filename := args[0]
	text, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	uri := "file://" + filepath.ToSlash(abs)

	store := config.NewStore(providers)
	doc := document.New(uri, 0, string(text))
	out := cmd.OutOrStdout()
	for _, m := range match.Find(doc.Text(), store.Providers(uri)) {
		pos := doc.PositionAt(m.Range.Start)
		fmt.Fprintf(out, "%s:%d:%d\t%s\t%s\n", filename, pos.Line+1, pos.Character+1, m.ProviderID, m.RequestURL)
	}
	return nil
}
