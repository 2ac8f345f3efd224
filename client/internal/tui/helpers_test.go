package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/session"
	"github.com/maynagashev/redactvault/models"
)

// mockAPIClient is a testify mock of api.Client. WithCredentials returns the
// mock itself so expectations cover calls made through any session.
type mockAPIClient struct {
	mock.Mock
}

func (m *mockAPIClient) Register(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *mockAPIClient) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username, password)
	resp, _ := args.Get(0).(*models.LoginResponse)
	return resp, args.Error(1)
}

func (m *mockAPIClient) RefreshToken(ctx context.Context) (*models.LoginResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*models.LoginResponse)
	return resp, args.Error(1)
}

func (m *mockAPIClient) GetEntry(ctx context.Context, id int64) (*models.VaultEntry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.VaultEntry)
	return e, args.Error(1)
}

func (m *mockAPIClient) ListEntries(ctx context.Context, page, pageSize int) (*models.Page, error) {
	args := m.Called(ctx, page, pageSize)
	p, _ := args.Get(0).(*models.Page)
	return p, args.Error(1)
}

func (m *mockAPIClient) ArchiveEntry(ctx context.Context, id int64) (*models.VaultEntry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.VaultEntry)
	return e, args.Error(1)
}

func (m *mockAPIClient) SubmitFeedback(
	ctx context.Context,
	id int64,
	req models.FeedbackRequest,
) (*models.VaultEntry, error) {
	args := m.Called(ctx, id, req)
	e, _ := args.Get(0).(*models.VaultEntry)
	return e, args.Error(1)
}

func (m *mockAPIClient) RevertEntry(ctx context.Context, id int64) (*models.VaultEntry, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*models.VaultEntry)
	return e, args.Error(1)
}

func (m *mockAPIClient) GetStats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.Stats)
	return s, args.Error(1)
}

func (m *mockAPIClient) WithCredentials(api.Credentials) api.Client {
	return m
}

// newTestModel creates a model bound to a mock client. With subject set the
// model starts logged in.
func newTestModel(t *testing.T, subject string) (*model, *mockAPIClient) {
	t.Helper()
	client := &mockAPIClient{}
	provider := session.NewProvider(client, nil)
	sess := session.Anonymous()
	if subject != "" {
		sess = session.New(subject, "token-"+subject)
	}
	return newModel(client, provider, sess, 10, false), client
}

// withPage loads page into the model through the repository, as the TUI does.
func withPage(t *testing.T, m *model, client *mockAPIClient, page *models.Page) {
	t.Helper()
	client.On("ListEntries", mock.Anything, page.Page, 10).Return(page, nil).Once()
	update(t, m, fetchPageCmd(m.repo, page.Page, 10)())
	require.Same(t, page, m.page)
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func toModel(t *testing.T, tm tea.Model) *model {
	t.Helper()
	m, ok := tm.(*model)
	require.True(t, ok, "expected *model, got %T", tm)
	return m
}

// update feeds msg to the model and returns the produced command.
func update(t *testing.T, m *model, msg tea.Msg) tea.Cmd {
	t.Helper()
	tm, cmd := m.Update(msg)
	require.Same(t, m, toModel(t, tm))
	return cmd
}

// execCmd runs cmd and any batched commands, returning the messages.
// Commands must not include timers.
func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, execCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// drive runs cmd and feeds the resulting messages back into the model.
func drive(t *testing.T, m *model, cmd tea.Cmd) {
	t.Helper()
	for _, msg := range execCmd(cmd) {
		update(t, m, msg)
	}
}

func testPage(n int, entries ...models.VaultEntry) *models.Page {
	return &models.Page{Items: entries, Page: n, PageSize: 10, Total: 25}
}
