package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cayleygraph/rdfobjects/model"
	"github.com/cayleygraph/rdfobjects/query/compiler"
)

func registerPageFlags(cmd *cobra.Command, limit int) {
	cmd.Flags().IntP("limit", "n", limit, "number of root objects")
	cmd.Flags().Int("offset", 0, "number of root objects to skip")
}

func pageFlags(cmd *cobra.Command) (limit, offset int, err error) {
	if limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return
	}
	offset, err = cmd.Flags().GetInt("offset")
	return
}

func printObjects(cmd *cobra.Command, objs []model.Object) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, o := range objs {
		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return nil
}

func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print a page of objects, one JSON document per line.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := mustSetupProfile(cmd)
			defer mustFinishProfile(p)

			limit, offset, err := pageFlags(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := getContext()
			defer cancel()
			m, _, err := openModel(ctx)
			if err != nil {
				return err
			}
			objs, err := m.List(ctx, limit, offset)
			if err != nil {
				return err
			}
			return printObjects(cmd, objs)
		},
	}
	registerPageFlags(cmd, 10)
	return cmd
}

func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id> [<id>...]",
		Short: "Print objects by identifier.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := getContext()
			defer cancel()
			m, _, err := openModel(ctx)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				obj, err := m.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printObjects(cmd, []model.Object{obj})
			}
			objs, err := m.GetMany(ctx, args)
			if err != nil {
				return err
			}
			return printObjects(cmd, objs)
		},
	}
	return cmd
}

func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query [<id>...]",
		Aliases: []string{"qu"},
		Short:   "Print the SPARQL query for a page, or for a lookup of the given identifiers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := openModel(context.Background())
			if err != nil {
				return err
			}
			var req compiler.Request
			if len(args) != 0 {
				req = m.Lookup(args...)
			} else {
				limit, offset, err := pageFlags(cmd)
				if err != nil {
					return err
				}
				req = compiler.Page(limit, offset)
			}
			q, err := m.Query(req)
			if err != nil {
				return err
			}
			if withContext, _ := cmd.Flags().GetBool("context"); withContext {
				data, err := json.MarshalIndent(map[string]interface{}{
					"@context": m.Context().Document(),
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
			}
			if aliases, _ := cmd.Flags().GetBool("aliases"); aliases {
				if vocab := m.Context().Vocab(); vocab != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "# @vocab = %s\n", vocab)
				}
				byName := q.Aliases.Map()
				names := make([]string, 0, len(byName))
				for name := range byName {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "# %s = %s\n", name, string(byName[name]))
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), q.Text)
			return nil
		},
	}
	registerPageFlags(cmd, 10)
	cmd.Flags().Bool("aliases", false, "print assigned aliases before the query")
	cmd.Flags().Bool("context", false, "print the JSON-LD context of the objects before the query")
	return cmd
}
