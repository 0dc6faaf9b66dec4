package main

import (
	"fmt"
	"strings"

	"changekit/internal/client"
	"changekit/internal/flow"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newDraftCmd(a *app) *cobra.Command {
	var form flow.DraftForm
	var keyPoints []string
	var gameType string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Generate a change communication draft",
		Long: `Generate a change communication draft and render it as markdown.

With --game the draft is also turned into a game for its ADKAR stage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if value, ok := flow.ChangeTypeForSlug(form.ChangeType); ok {
				form.ChangeType = value
			}
			form.KeyPoints = strings.Join(keyPoints, "\n")
			if err := form.Validate(); err != nil {
				return err
			}

			backend := a.backend()
			resp, err := backend.CreateDraft(cmd.Context(), form.DraftRequest())
			if err != nil {
				return fmt.Errorf("failed to generate draft: %s", client.Detail(err))
			}

			out := cmd.OutOrStdout()
			st := a.styles()
			stage := flow.DetermineStage(resp.Draft, form.KeyPointList(), form.Purpose, nil)

			fmt.Fprintln(out, st.title.Render(flow.Subject(form.Purpose)))
			fmt.Fprintf(out, "%s %s\n", st.muted.Render("ADKAR stage:"), st.heading.Render(stage.Label()))

			rendered, err := a.renderMarkdown(resp.Draft)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)

			for i, ref := range resp.ScholarlyReferences {
				if i == 0 {
					fmt.Fprintln(out, st.heading.Render("References"))
				}
				fmt.Fprintf(out, "  %s (%s) %s\n", ref.Title, ref.Year, st.muted.Render(ref.Authors))
			}

			if gameType != "" {
				g, err := backend.CreateGame(cmd.Context(), form.GameRequest(resp.Draft, gameType, nil))
				if err != nil {
					return fmt.Errorf("failed to create game: %s", client.Detail(err))
				}
				fmt.Fprintf(out, "%s %s  %s\n", st.muted.Render("Game created:"), st.heading.Render(g.GameID), st.muted.Render("gamectl play "+g.GameID))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.ChangeType, "change-type", "", "change type, e.g. technology_upgrade")
	flags.StringVar(&form.Audience, "audience", "", "target audience, e.g. all_employees")
	flags.StringVar(&form.TechProficiency, "tech-proficiency", "", "audience tech proficiency")
	flags.StringVar(&form.Urgency, "urgency", "", "urgency of the change")
	flags.StringVar(&form.Purpose, "purpose", "", "purpose of the communication")
	flags.StringArrayVar(&keyPoints, "key-point", nil, "key point to cover; repeat for more")
	flags.StringVar(&form.SpecialConsiderations, "considerations", "", "special considerations")
	flags.BoolVar(&form.IncludeReferences, "references", false, "include scholarly references")
	flags.StringVar(&gameType, "game", "", "also create a game of this type (mcq, truefalse_fillblank, challenge, simulation)")
	return cmd
}

func (a *app) renderMarkdown(md string) (string, error) {
	style := "light"
	switch {
	case a.plain:
		style = "notty"
	case a.dark:
		style = "dark"
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render draft: %w", err)
	}
	return out, nil
}
