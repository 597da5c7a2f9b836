package roletest

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/pkg/frecency"
	"github.com/common-fate/roletest/pkg/roles"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// pickRole lists the account's roles filtered by query and prompts for a
// selection. Outside a terminal, a role name argument is required instead.
func pickRole(ctx context.Context, cfg aws.Config, query string) (string, error) {
	if !isTerminal() {
		return "", clierr.New("no role name provided",
			clierr.Info("Pass a role name, e.g. 'roletest assume MyAppRole', or run from a terminal to pick one interactively"),
		)
	}

	all, err := roles.NewLister(cfg).List(ctx)
	if err != nil {
		return "", err
	}
	matched := roles.Filter(all, query)
	if len(matched) == 0 {
		if query != "" {
			return "", clierr.New("no roles matched the filter " + query)
		}
		return "", clierr.New("no roles found in the account")
	}

	byName := make(map[string]roles.Role, len(matched))
	names := make([]string, 0, len(matched))
	for _, r := range matched {
		byName[r.Name] = r
		names = append(names, r.Name)
	}
	fr, ordered := frecency.ForRoles(names)

	type Column struct {
		Title string
		Width int
	}
	cols := []Column{{Title: "Role", Width: 40}, {Title: "ARN", Width: 70}}
	var s = make([]string, 0, len(cols))
	for _, col := range cols {
		style := lipgloss.NewStyle().Width(col.Width).MaxWidth(col.Width).Inline(true)
		renderedCell := style.Render(runewidth.Truncate(col.Title, col.Width, "…"))
		s = append(s, lipgloss.NewStyle().Bold(true).Padding(0).Render(renderedCell))
	}
	header := lipgloss.NewStyle().PaddingLeft(6).Render(lipgloss.JoinHorizontal(lipgloss.Left, s...))

	var options []huh.Option[string]
	for _, name := range ordered {
		r := byName[name]
		style := lipgloss.NewStyle().Width(cols[0].Width).MaxWidth(cols[0].Width).Inline(true)
		name := lipgloss.NewStyle().Padding(0).Render(style.Render(runewidth.Truncate(r.Name, cols[0].Width, "…")))

		style = lipgloss.NewStyle().Width(cols[1].Width).MaxWidth(cols[1].Width).Inline(true)
		arn := lipgloss.NewStyle().Padding(0).Render(style.Render(runewidth.Truncate(r.ARN, cols[1].Width, "…")))

		options = append(options, huh.Option[string]{
			Key:   lipgloss.JoinHorizontal(lipgloss.Left, name, arn),
			Value: r.Name,
		})
	}

	selector := huh.NewSelect[string]().
		Options(options...).
		Title("Select the role to assume:").
		Description(header).WithTheme(huh.ThemeBase())
	if err := selector.Run(); err != nil {
		return "", err
	}

	selected := selector.GetValue().(string)
	fr.Update(selected)
	return selected, nil
}
