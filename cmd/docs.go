package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshhighet/r7/pkg/assist"
	"github.com/joshhighet/r7/pkg/format"
	"github.com/joshhighet/r7/pkg/insight"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Search docs.rapid7.com content",
}

var docsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search product documentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openCache(cfg)
		if store != nil {
			defer store.Close()
		}
		docsClient := insight.NewDocsClient(store, flagNoCache)
		results, err := docsClient.Search(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		p := newPrinter(cfg)
		if p.JSON() {
			return p.WriteJSON(results)
		}
		if len(results) == 0 {
			p.Warn("No documentation found matching your search")
			return nil
		}
		if p.Format == format.OutputSimple {
			for _, result := range results {
				fmt.Printf("%s - %s\n", result.Title, result.URL)
			}
			return nil
		}
		rows := make([][]string, 0, len(results))
		for _, result := range results {
			rows = append(rows, []string{format.Truncate(result.Title, 40), result.Product, result.URL})
		}
		title := fmt.Sprintf("Documentation Search: %q", args[0])
		if err := p.Table(title, []string{"Title", "Product", "URL"}, rows); err != nil {
			return err
		}
		p.Dim("Found %d result(s). Use --output json to see descriptions.", len(results))
		return nil
	},
}

var docsAskCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the docs with Gemini",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		model, _ := cmd.Flags().GetString("model")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := openCache(cfg)
		if store != nil {
			defer store.Close()
		}
		docsClient := insight.NewDocsClient(store, flagNoCache)
		results, err := docsClient.Search(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no documentation found to answer from, try rephrasing the question")
		}
		assistant, err := assist.New(cmd.Context(), cfg.GeminiAPIKey, model)
		if err != nil {
			return err
		}
		defer assistant.Close()
		answer, err := assistant.Ask(cmd.Context(), args[0], results)
		if err != nil {
			return err
		}
		p := newPrinter(cfg)
		if p.JSON() {
			return p.WriteJSON(map[string]any{
				"question": args[0],
				"answer":   answer,
				"sources":  results,
			})
		}
		fmt.Println(answer)
		p.Dim("Answered from %d documentation page(s)", len(results))
		return nil
	},
}

func init() {
	docsSearchCmd.Flags().Int("limit", 15, "Maximum number of results to return")
	docsAskCmd.Flags().Int("limit", 8, "Documentation pages to ground the answer on")
	docsAskCmd.Flags().String("model", "", "Gemini model to use")

	docsCmd.AddCommand(docsSearchCmd, docsAskCmd)
	rootCmd.AddCommand(docsCmd)
}
