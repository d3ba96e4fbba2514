package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"autonomous_spa_agent/generator"
	"autonomous_spa_agent/validator"
)

var (
	validateExtract bool
	validateJSON    bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a document against the structural rules",
	Long: `Run the structural validator on a file ("-" for stdin) and print every
violated rule. Exits non-zero when the document is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Recover the HTML document from raw model output",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	validateCmd.Flags().BoolVar(&validateExtract, "extract", false, "extract HTML from raw model output first")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the verdict as JSON")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(extractCmd)
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	if validateExtract {
		doc = generator.ExtractHTML(doc)
	}

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}
	verdict := validator.New(logger).Validate(doc)

	out := cmd.OutOrStdout()
	if validateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(verdict); err != nil {
			return err
		}
	} else {
		for _, w := range verdict.Warnings {
			fmt.Fprintf(out, "warning: external dependency (%s)\n", w)
		}
		for _, v := range verdict.Violations {
			fmt.Fprintf(out, "%s: %s\n", v.Rule, v.Detail)
		}
		if verdict.Accepted {
			fmt.Fprintf(out, "ok (%d bytes)\n", verdict.Bytes)
		}
	}
	return verdict.Err()
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	html, via := generator.ExtractHTMLWith(raw)
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "extracted %d bytes via %s\n", len(html), via)
	}
	fmt.Fprintln(cmd.OutOrStdout(), html)
	return nil
}
