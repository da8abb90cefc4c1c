package activity

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/streamguard/internal/application"
	"github.com/bnema/streamguard/internal/domain"
)

type RenderOptions struct {
	ShowSessions bool
}

func renderView(report application.CycleReport, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("StreamGuard Activity"),
		s.header.Render(fmt.Sprintf("servers: %d  users: %d", len(report.Sources), len(report.Users))),
	}

	for _, source := range report.Sources {
		lines = append(lines, renderSource(source, s))
	}

	if len(report.Users) == 0 {
		lines = append(lines, s.empty.Render("No active sessions."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, username := range sortedUsernames(report.Users) {
		lines = append(lines, s.section.Render(renderUser(report.Users[username], report.Verdicts[username], opts, s)))
	}

	if len(report.Terminations) > 0 {
		lines = append(lines, s.section.Render(renderTerminations(report.Terminations, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSource(source application.SourceResult, s styles) string {
	if source.Failure != "" {
		return s.warning.Render(fmt.Sprintf("%s: %s", source.Server, source.Failure))
	}

	return s.server.Render(fmt.Sprintf("%s: %s", source.Server, pluralSessions(source.Sessions)))
}

func renderUser(user domain.UserSessions, verdict domain.Verdict, opts RenderOptions, s styles) string {
	parts := []string{
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.user.Render(user.Username),
			" ",
			s.detail.Render(pluralSessions(user.Count)),
			" ",
			verdictBadge(verdict, s),
		),
	}

	if opts.ShowSessions {
		for _, session := range user.Sessions {
			parts = append(parts, s.detail.Render(fmt.Sprintf("  %s  %s", session.Origin.ServerName(), session.SessionID)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTerminations(outcomes []application.TerminationOutcome, s styles) string {
	parts := []string{s.header.Render(fmt.Sprintf("terminations: %d", len(outcomes)))}
	for _, outcome := range outcomes {
		if outcome.Failure != "" {
			parts = append(parts, s.warning.Render(fmt.Sprintf("  failed %s on %s: %s", outcome.SessionID, outcome.Server, outcome.Failure)))
			continue
		}
		parts = append(parts, s.detail.Render(fmt.Sprintf("  terminated %s on %s (%s)", outcome.SessionID, outcome.Server, outcome.Username)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func verdictBadge(verdict domain.Verdict, s styles) string {
	switch verdict {
	case domain.VerdictExempt:
		return s.exempt.Render("[exempt]")
	case domain.VerdictViolating:
		return s.violating.Render("[over limit]")
	default:
		return s.within.Render("[ok]")
	}
}

func pluralSessions(count int) string {
	if count == 1 {
		return "1 stream"
	}

	return fmt.Sprintf("%d streams", count)
}

func sortedUsernames(users map[string]domain.UserSessions) []string {
	usernames := make([]string, 0, len(users))
	for username := range users {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	return usernames
}
