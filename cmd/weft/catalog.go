package main

import (
	"fmt"

	"github.com/matsen/weft/internal/catalog"
	"github.com/spf13/cobra"
)

func init() {
	catalogListCmd.Flags().StringP("category", "c", "", "Filter by category")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse node templates",
	Long: `Browse the node templates available to 'weft node add'. The builtin
catalog is merged with the global catalog (WEFT_CATALOG or the global config)
and then the repository catalog; later definitions replace earlier ones.`,
}

// CatalogListResult is the response for the catalog list command.
type CatalogListResult struct {
	Nodes []catalog.Template `json:"nodes"`
	Count int                `json:"count"`
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List node templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)
		cat, err := loadCatalog(repoRoot, cfg)
		if err != nil {
			exitWithError(ExitConfigError, "loading catalog: %v", err)
		}
		category, _ := cmd.Flags().GetString("category")

		templates := []catalog.Template{}
		for _, typ := range cat.Types() {
			t, _ := cat.Lookup(typ)
			if category != "" && t.Category != category {
				continue
			}
			templates = append(templates, t)
		}

		if !humanOutput {
			outputJSON(CatalogListResult{Nodes: templates, Count: len(templates)})
			return nil
		}
		for _, t := range templates {
			fmt.Printf("%-12s %s %s\n", styleID.Sprint(t.Type), styleMuted.Sprintf("[%s]", t.Category), t.Description)
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show a node template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)
		cat, err := loadCatalog(repoRoot, cfg)
		if err != nil {
			exitWithError(ExitConfigError, "loading catalog: %v", err)
		}
		t, err := cat.Lookup(args[0])
		mustEdit(err)

		if !humanOutput {
			outputJSON(t)
			return nil
		}
		fmt.Println(styleID.Sprint(t.Type))
		if t.Description != "" {
			fmt.Printf("  %s\n", t.Description)
		}
		for _, p := range t.Inputs {
			req := ""
			if p.Required {
				req = styleWarn.Sprint(" required")
			}
			fmt.Printf("  in  %-10s %s%s\n", p.ID, p.Type, req)
		}
		for _, p := range t.Outputs {
			fmt.Printf("  out %-10s %s\n", p.ID, p.Type)
		}
		for _, p := range t.Parameters {
			fmt.Printf("  param %s = %v\n", p.Name, p.Default)
		}
		return nil
	},
}
