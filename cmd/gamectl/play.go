package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"changekit/internal/game"
	"changekit/internal/models"
	"changekit/internal/routes"

	"github.com/spf13/cobra"
)

const playHelp = "Answer with an option number or text. Enter continues, :prev goes back, :submit finishes, :reset restarts, :quit leaves."

var errBadChoice = errors.New("choose one of the listed numbers")

func newPlayCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "play <gameId>",
		Short: "Play a game interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.play(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], kind)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "game kind (mcq, quiz, challenge, simulation); defaults to the game's type")
	return cmd
}

// screen is the terminal side of a page transition
type screen struct {
	out   io.Writer
	table *routes.Table
	st    styles
	clear bool
}

func (s *screen) ScrollTop() {
	if s.clear {
		fmt.Fprint(s.out, "\033[H\033[2J")
	}
}

func (s *screen) Exit(ctx context.Context, path string) error {
	return nil
}

func (s *screen) Enter(ctx context.Context, path string) error {
	m := s.table.Resolve(path)
	fmt.Fprintln(s.out, s.st.muted.Render(m.Route.Title+" · "+m.Path))
	return nil
}

func (a *app) play(ctx context.Context, in io.Reader, out io.Writer, gameID, kind string) error {
	backend := a.backend()
	st := a.styles()

	games, err := backend.ListGames(ctx, models.GameFilter{})
	if err != nil {
		return fmt.Errorf("failed to load games: %w", err)
	}
	var selected *models.Game
	for i := range games {
		if games[i].GameID == gameID {
			selected = &games[i]
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}

	if kind == "" {
		kind = selected.GameType
	}
	t, err := game.ParseType(kind)
	if err != nil {
		return err
	}
	strategy, err := game.StrategyFor(t)
	if err != nil {
		return err
	}

	ctrl := game.NewController(strategy, backend, game.Options{
		UserID: a.userID,
		Owner:  "terminal",
		Debug:  a.debug,
	})
	defer ctrl.Close()
	if err := ctrl.Load(ctx, gameID, selected); err != nil {
		return err
	}

	table := routes.Default()
	scr := &screen{out: out, table: table, st: st, clear: !a.plain}
	nav := routes.NewTransitioner(table.Build(routes.Games, nil), routes.TransitionOptions{
		Scroller: scr,
		Animator: scr,
	})
	nav.Navigate(ctx, table.Build(routes.Play, map[string]string{"kind": string(t), "gameId": gameID}))

	view := ctrl.Snapshot()
	fmt.Fprintln(out, st.title.Render(view.Game.Title))
	if view.Game.Instructions != "" {
		fmt.Fprintln(out, view.Game.Instructions)
	}
	fmt.Fprintln(out, st.muted.Render(playHelp))

	scanner := bufio.NewScanner(in)
	for {
		view = ctrl.Snapshot()
		if view.Completed() {
			printResult(out, st, view)
		} else {
			printItem(out, st, view)
		}
		fmt.Fprint(out, st.heading.Render("> "))

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var err error
		switch line {
		case ":quit", ":q":
			return nil
		case ":prev", ":p":
			err = ctrl.Prev()
		case ":next", ":n":
			err = ctrl.Next()
		case ":submit", ":s":
			_, err = ctrl.Submit(ctx)
		case ":reset", ":r":
			err = ctrl.Reset()
		case "":
			if !view.Completed() {
				err = advance(ctx, ctrl, view)
			}
		default:
			if view.Completed() {
				err = errors.New("the game is over; :reset plays again")
				break
			}
			err = answer(ctx, ctrl, view, line)
		}

		if err != nil {
			if a.debug {
				log.Printf("[DEBUG] play: %v", err)
			}
			fmt.Fprintln(out, st.err.Render(playError(err)))
		}
	}
}

// answer records a line as the answer of the current item and moves on,
// except after a simulation decision whose outcome should be read first
func answer(ctx context.Context, ctrl *game.Controller, view game.View, line string) error {
	value := line
	if len(view.Item.Options) > 0 {
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(view.Item.Options) {
			return errBadChoice
		}
		value = view.Item.Options[n-1].ID
	}

	if err := ctrl.Answer(view.Item.ID, value); err != nil {
		return err
	}
	view = ctrl.Snapshot()
	if view.Item.Outcome != nil {
		return nil
	}
	return advance(ctx, ctrl, view)
}

// advance goes to the next item, or submits on the last one
func advance(ctx context.Context, ctrl *game.Controller, view game.View) error {
	if view.IsLast {
		_, err := ctrl.Submit(ctx)
		return err
	}
	return ctrl.Next()
}

func playError(err error) string {
	switch {
	case errors.Is(err, game.ErrNotAnswered):
		return "Answer the current item first."
	case errors.Is(err, game.ErrSessionCompleted):
		return "This game is already finished."
	case errors.Is(err, errBadChoice):
		return "Please " + errBadChoice.Error() + "."
	}
	return err.Error()
}

func printItem(w io.Writer, st styles, view game.View) {
	item := view.Item
	fmt.Fprintln(w)

	header := fmt.Sprintf("%d of %d · %d%%", view.Index+1, view.Total, view.Progress)
	if item.Heading != "" {
		header = item.Heading + " · " + header
	}
	fmt.Fprintln(w, st.muted.Render(header))
	if view.Timed {
		if view.Remaining > 0 {
			fmt.Fprintln(w, st.timer.Render("Time left "+game.FormatClock(view.Remaining)))
		} else {
			fmt.Fprintln(w, st.timer.Render("Time's up"))
		}
	}

	if item.Title != "" {
		fmt.Fprintln(w, st.heading.Render(item.Title))
	}
	if item.Description != "" {
		fmt.Fprintln(w, item.Description)
	}
	if item.Prompt != "" {
		fmt.Fprintln(w, st.title.Render(item.Prompt))
	}
	if item.Error != "" {
		fmt.Fprintln(w, st.err.Render(item.Error+" Press Enter to skip."))
		return
	}

	for i, o := range item.Options {
		line := fmt.Sprintf("%d. %s", i+1, o.Text)
		if o.Selected {
			fmt.Fprintln(w, st.chosen.Render(line+" ✓"))
		} else {
			fmt.Fprintln(w, st.option.Render(line))
		}
	}
	for _, c := range item.SuccessCriteria {
		fmt.Fprintln(w, st.muted.Render("  • "+c))
	}
	if len(item.Options) == 0 && item.Answer != "" {
		fmt.Fprintln(w, st.muted.Render("Your answer: ")+item.Answer)
	} else if len(item.Options) == 0 && item.Placeholder != "" {
		fmt.Fprintln(w, st.muted.Render(item.Placeholder))
	}
	if item.Outcome != nil {
		fmt.Fprintln(w, st.heading.Render("Outcome: ")+item.Outcome.Text)
		fmt.Fprintln(w, st.muted.Render(impactLine(item.Outcome.Impact)))
	}
}

func printResult(w io.Writer, st styles, view game.View) {
	r := view.Result
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", st.title.Render("Score"), st.band(view.Band).Render(fmt.Sprintf("%d%%", r.Score)))
	fmt.Fprintln(w, r.Message)
	fmt.Fprintf(w, "%s %d  %s %s\n",
		st.muted.Render("Points earned:"), r.PointsEarned,
		st.muted.Render("Time:"), game.FormatClock(r.TimeTakenSeconds))

	for _, s := range view.Stages {
		fmt.Fprintf(w, "  Stage %d %s  %s / %s\n", s.Number, s.Name, game.FormatClock(s.Spent), game.FormatClock(s.Limit))
	}
	if r.TotalImpact != nil {
		fmt.Fprintln(w, st.muted.Render(impactLine(*r.TotalImpact)))
	}

	if r.Progress != nil {
		line := fmt.Sprintf("Total points: %d", r.Progress.Points)
		if len(r.Progress.Badges) > 0 {
			line += "  Badges: " + strings.Join(r.Progress.Badges, ", ")
		}
		fmt.Fprintln(w, st.heading.Render(line))
	} else {
		fmt.Fprintln(w, st.err.Render("Your progress could not be saved."))
	}
	fmt.Fprintln(w, st.muted.Render("Type :reset to play again or :quit to leave."))
}

func impactLine(i models.Impact) string {
	return fmt.Sprintf("Timeline %+.0f  Adoption %+.0f  Results %+.0f", i.Timeline, i.Adoption, i.Results)
}
