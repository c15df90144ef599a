// Describe command prints the full introspection record for an object type.
package main

import (
	"github.com/spf13/cobra"

	"github.com/captify-io/ontology/introspect"
)

var describeCmd = &cobra.Command{
	Use:   "describe <object-type-slug>",
	Short: "Describe an object type",
	Long: `Describe aggregates an object type's schema, its outgoing and visible
incoming link types, its actions and its physical storage location into a
single record.

Example:
  ontology describe contract
  ontology describe object-type`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	svc := introspect.New(eng.Registry())
	desc, err := svc.Describe(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(desc)
}
