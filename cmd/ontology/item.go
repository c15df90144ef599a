// Item commands operate on instances of registered object types.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/captify-io/ontology/engine"
	"github.com/captify-io/ontology/links"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage instances of object types",
}

var (
	itemLimit     int32
	itemNextToken string
	itemFilters   []string
	linkDirection string
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list <object-type-slug>",
		Short: "List instances of an object type",
		Long: `List pages through instances of an object type. Equality filters use
--filter property=value; filters on a foreign-key property are served by
a secondary index, anything else falls back to a flagged full scan.

Example:
  ontology item list contract
  ontology item list clin --filter contractId=abc123 --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: runItemList,
	}
	listCmd.Flags().Int32Var(&itemLimit, "limit", 0, "page size (0 = store default)")
	listCmd.Flags().StringVar(&itemNextToken, "next-token", "", "resume token from a previous page")
	listCmd.Flags().StringArrayVar(&itemFilters, "filter", nil, "equality filter, property=value (repeatable)")

	linksCmd := &cobra.Command{
		Use:   "links <object-type-slug> <id>",
		Short: "Resolve an instance's links",
		Args:  cobra.ExactArgs(2),
		RunE:  runItemLinks,
	}
	linksCmd.Flags().StringVar(&linkDirection, "direction", "both", "outgoing, incoming or both")

	itemCmd.AddCommand(
		&cobra.Command{
			Use:   "create <object-type-slug> <payload.json>",
			Short: "Create an instance from a JSON payload",
			Args:  cobra.ExactArgs(2),
			RunE:  runItemCreate,
		},
		&cobra.Command{
			Use:   "get <object-type-slug> <id>",
			Short: "Get an instance by ID",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				inst, err := eng.GetItem(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(inst)
			},
		},
		&cobra.Command{
			Use:   "update <object-type-slug> <id> <partial.json>",
			Short: "Apply a partial update to an instance",
			Args:  cobra.ExactArgs(3),
			RunE:  runItemUpdate,
		},
		&cobra.Command{
			Use:   "delete <object-type-slug> <id>",
			Short: "Delete an instance",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := eng.DeleteItem(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("deleted %s %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "act <action-slug> [id] [params.json]",
			Short: "Execute an action",
			Long: `Act executes a registered action type. Omit the id for actions that
create a new instance.

Example:
  ontology item act approve-contract abc123
  ontology item act approve-contract abc123 params.json`,
			Args: cobra.RangeArgs(1, 3),
			RunE: runItemAct,
		},
		listCmd,
		linksCmd,
	)
}

func runItemCreate(cmd *cobra.Command, args []string) error {
	var payload map[string]any
	if err := readDefinition(args[1], &payload); err != nil {
		return err
	}
	inst, err := eng.CreateItem(cmd.Context(), args[0], payload, cliActor())
	if err != nil {
		return err
	}
	return printJSON(inst)
}

func runItemUpdate(cmd *cobra.Command, args []string) error {
	var partial map[string]any
	if err := readDefinition(args[2], &partial); err != nil {
		return err
	}
	inst, err := eng.UpdateItem(cmd.Context(), args[0], args[1], partial, cliActor())
	if err != nil {
		return err
	}
	return printJSON(inst)
}

func runItemList(cmd *cobra.Command, args []string) error {
	opts := engine.ListOptions{Limit: itemLimit, NextToken: itemNextToken}
	for _, f := range itemFilters {
		prop, value, ok := strings.Cut(f, "=")
		if !ok || prop == "" {
			return fmt.Errorf("bad filter %q, want property=value", f)
		}
		if opts.Filter == nil {
			opts.Filter = map[string]any{}
		}
		opts.Filter[prop] = value
	}
	page, err := eng.ListItems(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}
	return printJSON(page)
}

func runItemLinks(cmd *cobra.Command, args []string) error {
	resolver := links.New(eng)
	out := map[string]any{}
	if linkDirection == "outgoing" || linkDirection == "both" {
		res, err := resolver.ResolveOutgoing(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		out["outgoing"] = res
	}
	if linkDirection == "incoming" || linkDirection == "both" {
		res, err := resolver.ResolveIncoming(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		out["incoming"] = res
	}
	if len(out) == 0 {
		return fmt.Errorf("bad direction %q, want outgoing, incoming or both", linkDirection)
	}
	return printJSON(out)
}

func runItemAct(cmd *cobra.Command, args []string) error {
	var itemID string
	params := map[string]any{}
	if len(args) > 1 {
		itemID = args[1]
	}
	if len(args) > 2 {
		if err := readDefinition(args[2], &params); err != nil {
			return err
		}
	}
	inst, err := eng.ExecuteAction(cmd.Context(), args[0], itemID, params, cliActor())
	if err != nil {
		return err
	}
	return printJSON(inst)
}
