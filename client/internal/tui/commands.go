package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/redactvault/client/internal/repository"
	"github.com/maynagashev/redactvault/client/internal/review"
	"github.com/maynagashev/redactvault/client/internal/session"
)

// clearStatusCmd sends clearStatusMsg for status id after delay.
func clearStatusCmd(id int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// makeLoginCmd logs in through the session provider.
func (m *model) makeLoginCmd(username, password string) tea.Cmd {
	provider := m.provider
	return func() tea.Msg {
		sess, err := provider.Login(context.Background(), username, password)
		if err != nil {
			slog.Warn("login failed", "username", username, "error", err)
			return loginErrorMsg{err: err}
		}
		slog.Info("logged in", "subject", sess.Subject())
		return loginSuccessMsg{sess: sess}
	}
}

// makeRegisterCmd creates a reviewer account.
func (m *model) makeRegisterCmd(username, password string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		if err := client.Register(context.Background(), username, password); err != nil {
			slog.Warn("registration failed", "username", username, "error", err)
			return registerErrorMsg{err: err}
		}
		slog.Info("registered", "username", username)
		return registerSuccessMsg{}
	}
}

// fetchPageCmd loads a page through the repository.
func fetchPageCmd(repo *repository.Repository, page, pageSize int) tea.Cmd {
	return func() tea.Msg {
		p, err := repo.FetchPage(context.Background(), page, pageSize)
		switch {
		case errors.Is(err, repository.ErrStaleResponse):
			return pageStaleMsg{}
		case err != nil:
			slog.Error("page fetch failed", "page", page, "error", err)
			return pageErrorMsg{repo: repo, err: err}
		}
		slog.Debug("page loaded", "page", p.Page, "items", len(p.Items), "total", p.Total)
		return pageLoadedMsg{repo: repo, page: p}
	}
}

// runReviewCmd runs a prepared review command off the update loop.
func runReviewCmd(controller *review.Controller, cmd *review.Command) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{controller: controller, outcome: cmd.Run(context.Background())}
	}
}

// loadStatsCmd fetches the aggregate statistics.
func loadStatsCmd(repo *repository.Repository) tea.Cmd {
	return func() tea.Msg {
		stats, err := repo.Stats(context.Background())
		if err != nil {
			slog.Error("stats fetch failed", "error", err)
			return statsErrorMsg{repo: repo, err: err}
		}
		return statsLoadedMsg{repo: repo, stats: stats}
	}
}

// refreshSessionCmd exchanges the restored credential for a new one. repo
// identifies the session the request was made for.
func refreshSessionCmd(
	provider *session.Provider,
	sess session.Session,
	refresher session.TokenRefresher,
	repo *repository.Repository,
) tea.Cmd {
	return func() tea.Msg {
		fresh, err := provider.Refresh(context.Background(), sess, refresher)
		if err != nil {
			slog.Warn("session refresh failed", "subject", sess.Subject(), "error", err)
			return sessionRefreshErrorMsg{repo: repo, err: err}
		}
		return sessionRefreshedMsg{repo: repo, sess: fresh}
	}
}

// fetchEntryCmd loads one entry the open dialog no longer finds on the page.
func fetchEntryCmd(repo *repository.Repository, id int64) tea.Cmd {
	return func() tea.Msg {
		entry, err := repo.FetchEntry(context.Background(), id)
		if err != nil {
			slog.Error("entry fetch failed", "entry", id, "error", err)
			return entryFetchErrorMsg{repo: repo, id: id, err: err}
		}
		return entryFetchedMsg{repo: repo, entry: entry}
	}
}
