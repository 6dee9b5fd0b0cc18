package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"party-quiz-service/internal/config"
	"party-quiz-service/internal/infra/postgres"
	"party-quiz-service/internal/infra/sheet"
)

// NewImportCmd loads a workbook into the question bank.
func NewImportCmd(flags *Flags) *cobra.Command {
	var setID, name string
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a question workbook into the question bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			questions, err := sheet.ParseQuestions(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if setID == "" {
				setID = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			if name == "" {
				name = setID
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.NewQuestionWriter(db).SaveQuestionSet(cmd.Context(), setID, name, questions); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions into set %q\n", len(questions), setID)
			return nil
		},
	}
	cmd.Flags().StringVar(&setID, "set", "", "question set id (defaults to the file name)")
	cmd.Flags().StringVar(&name, "name", "", "display name of the set")
	return cmd
}

// NewTemplateCmd writes the import template workbook.
func NewTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [out.xlsx]",
		Short: "Write the question import template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := sheet.TemplateFilename
			if len(args) == 1 {
				out = args[0]
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := sheet.WriteTemplate(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
}
