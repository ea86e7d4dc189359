package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/caddy/internal/jsonfile"
	"github.com/mesh-intelligence/caddy/pkg/teas"
	"github.com/mesh-intelligence/caddy/pkg/types"
)

func (a *app) newAddCmd() *cobra.Command {
	var (
		name        string
		description string
		fields      []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tea, or update the tea with the same name",
		Long: `Add saves a tea by name. When a tea with that name exists its id is
kept and the record is replaced; otherwise a new id is generated.

Example:
  caddy add --name "Thé vert" --description "Un thé classique"
  caddy add --name "Sencha" --field price=4.5 --field origin=Japon
  caddy add --name "Oolong" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseFields(fields)
			if err != nil {
				return userError(err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			svc := teas.New(store, teas.WithLogger(a.logger))
			result := svc.AddTea(types.TeaInput{Name: name, Description: description, Extra: extra})

			if a.jsonMode {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return sysError(err)
				}
			} else if result.Success {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved tea: %s\n", name)
			}
			if !result.Success {
				return userError(fmt.Errorf("add tea %q: %w", name, result.Err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "tea name (required)")
	cmd.Flags().StringVar(&description, "description", "", "tea description")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "extra field as key=value; JSON values are decoded (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show the tea with the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tea, ok, err := store.GetByName(args[0])
			if err != nil {
				return sysError(fmt.Errorf("get tea: %w", err))
			}
			if !ok {
				return userError(fmt.Errorf("%w: %s", types.ErrNotFound, args[0]))
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), tea)
			}
			printTea(cmd.OutOrStdout(), tea)
			return nil
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all teas in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.Load()
			if err != nil {
				return sysError(fmt.Errorf("list teas: %w", err))
			}

			if a.jsonMode {
				if all == nil {
					all = []types.Tea{}
				}
				return printJSON(cmd.OutOrStdout(), all)
			}
			for _, tea := range all {
				printTea(cmd.OutOrStdout(), tea)
			}
			return nil
		},
	}
}

func (a *app) newNextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Print the id the next new tea would get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.GenerateNewID()
			if err != nil {
				return sysError(fmt.Errorf("generate id: %w", err))
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"id": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Copy the teas of a JSON data file into the configured store",
		Long: `Import reads a data.json style file and saves each tea, in order,
into the configured store. Typically used to seed the sqlite backend:

  caddy --backend sqlite import ./data.json

The import is all or nothing: if any tea breaks name or id uniqueness the
store is left as it was.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := afero.Exists(a.fs, args[0])
			if err != nil {
				return userError(fmt.Errorf("read %s: %w", args[0], err))
			}
			if !ok {
				return userError(fmt.Errorf("read %s: file not found", args[0]))
			}
			src, err := jsonfile.New(a.fs, args[0]).Load()
			if err != nil {
				return userError(fmt.Errorf("read %s: %w", args[0], err))
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(src); err != nil {
				return userError(fmt.Errorf("import: %w", err))
			}

			a.logger.Info("teas imported", "count", len(src), "from", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d teas\n", len(src))
			return nil
		},
	}
}

// parseFields turns key=value pairs into extra fields. Values that parse as
// JSON keep their JSON type; anything else is a string.
func parseFields(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	extra := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: want key=value", pair)
		}
		switch key {
		case "id", "name", "description":
			return nil, fmt.Errorf("invalid field %q: %s is not an extra field", pair, key)
		}
		value, err := types.DecodeValue([]byte(raw))
		if err != nil {
			value = raw
		}
		extra[key] = value
	}
	return extra, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printTea(w io.Writer, tea types.Tea) {
	fmt.Fprintf(w, "%d\t%s\t%s\n", tea.ID, tea.Name, tea.Description)
}
