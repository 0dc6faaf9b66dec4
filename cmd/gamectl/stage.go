package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"changekit/internal/flow"

	"github.com/spf13/cobra"
)

func newStageCmd(a *app) *cobra.Command {
	var file, rulesPath string

	cmd := &cobra.Command{
		Use:   "stage [text...]",
		Short: "Classify text into an ADKAR stage",
		Long: `Classify text into an ADKAR stage by keyword counts.

The text comes from the arguments, from --file, or from stdin when neither is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := flow.DefaultRules()
			if rulesPath == "" {
				rulesPath = a.cfg.StageRulesPath
			}
			if rulesPath != "" {
				loaded, err := flow.LoadRules(rulesPath)
				if err != nil {
					return err
				}
				rules = loaded
			}

			text, err := stageInput(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			stage := flow.Classify(text, rules)
			st := a.styles()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", st.muted.Render("ADKAR stage:"), st.title.Render(stage.Label()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the text from a file")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML keyword rules (defaults to STAGE_RULES_PATH or the built-in rules)")
	return cmd
}

func stageInput(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass either text arguments or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
