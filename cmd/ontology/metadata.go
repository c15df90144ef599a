// Metadata commands manage the registry's object, link and action types.
package main

import (
	"github.com/spf13/cobra"

	"github.com/captify-io/ontology/registry"
)

var objectTypeCmd = &cobra.Command{
	Use:     "object-type",
	Aliases: []string{"ot"},
	Short:   "Manage object types",
}

var linkTypeCmd = &cobra.Command{
	Use:     "link-type",
	Aliases: []string{"lt"},
	Short:   "Manage link types",
}

var actionTypeCmd = &cobra.Command{
	Use:     "action-type",
	Aliases: []string{"at"},
	Short:   "Manage action types",
}

func init() {
	objectTypeCmd.AddCommand(
		&cobra.Command{
			Use:   "create <definition.json>",
			Short: "Register an object type from a JSON definition",
			Long: `Create registers a new object type. The definition file holds the
slug, app, name and property schema; pass "-" to read it from stdin.

Example:
  ontology object-type create contract.json
  cat contract.json | ontology object-type create -`,
			Args: cobra.ExactArgs(1),
			RunE: runObjectTypeCreate,
		},
		&cobra.Command{
			Use:   "get <slug>",
			Short: "Get an object type by slug",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ot, err := eng.Registry().GetObjectType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(ot)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all object types, built-ins included",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				types, err := eng.Registry().ListObjectTypes(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(types)
			},
		},
		&cobra.Command{
			Use:   "set-status <slug> <active|deprecated>",
			Short: "Change an object type's status",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ot, err := eng.Registry().SetObjectTypeStatus(cmd.Context(), args[0], registry.Status(args[1]), cliActor())
				if err != nil {
					return err
				}
				return printJSON(ot)
			},
		},
	)

	linkTypeCmd.AddCommand(
		&cobra.Command{
			Use:   "create <definition.json>",
			Short: "Register a link type from a JSON definition",
			Args:  cobra.ExactArgs(1),
			RunE:  runLinkTypeCreate,
		},
		&cobra.Command{
			Use:   "get <slug>",
			Short: "Get a link type by slug",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				lt, err := eng.Registry().GetLinkType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(lt)
			},
		},
	)

	actionTypeCmd.AddCommand(
		&cobra.Command{
			Use:   "create <definition.json>",
			Short: "Register an action type from a JSON definition",
			Args:  cobra.ExactArgs(1),
			RunE:  runActionTypeCreate,
		},
		&cobra.Command{
			Use:   "get <slug>",
			Short: "Get an action type by slug",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				at, err := eng.Registry().GetActionType(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(at)
			},
		},
	)
}

func runObjectTypeCreate(cmd *cobra.Command, args []string) error {
	var def registry.ObjectType
	if err := readDefinition(args[0], &def); err != nil {
		return err
	}
	def.CreatedBy = cliActor()
	created, err := eng.Registry().CreateObjectType(cmd.Context(), def)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func runLinkTypeCreate(cmd *cobra.Command, args []string) error {
	var def registry.LinkType
	if err := readDefinition(args[0], &def); err != nil {
		return err
	}
	def.CreatedBy = cliActor()
	created, err := eng.Registry().CreateLinkType(cmd.Context(), def)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func runActionTypeCreate(cmd *cobra.Command, args []string) error {
	var def registry.ActionType
	if err := readDefinition(args[0], &def); err != nil {
		return err
	}
	def.CreatedBy = cliActor()
	created, err := eng.Registry().CreateActionType(cmd.Context(), def)
	if err != nil {
		return err
	}
	return printJSON(created)
}
