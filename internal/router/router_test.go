package router

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinsaver/internal/domain"
	"pinsaver/internal/notify"
	"pinsaver/internal/pinry"
)

type fakeStore struct {
	settings map[int64]domain.Settings
	tabs     map[int64]domain.Tab
	pins     map[int64]map[string]domain.PinRecord
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: map[int64]domain.Settings{},
		tabs:     map[int64]domain.Tab{},
		pins:     map[int64]map[string]domain.PinRecord{},
	}
}

func (s *fakeStore) EnsureSettings(ctx context.Context, userID int64, defaults domain.Settings) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.settings[userID]; ok {
		return false, nil
	}
	s.settings[userID] = defaults
	return true, nil
}

func (s *fakeStore) GetSettings(ctx context.Context, userID int64) (domain.Settings, error) {
	return s.settings[userID], s.err
}

func (s *fakeStore) SaveSettings(ctx context.Context, userID int64, settings domain.Settings) error {
	if s.err != nil {
		return s.err
	}
	s.settings[userID] = settings
	return nil
}

func (s *fakeStore) SetCurrentTab(ctx context.Context, userID int64, tab domain.Tab) error {
	s.tabs[userID] = tab
	return s.err
}

func (s *fakeStore) GetCurrentTab(ctx context.Context, userID int64) (domain.Tab, bool, error) {
	tab, ok := s.tabs[userID]
	return tab, ok, s.err
}

func (s *fakeStore) RecordPin(ctx context.Context, pin domain.PinRecord) error {
	if s.pins[pin.UserID] == nil {
		s.pins[pin.UserID] = map[string]domain.PinRecord{}
	}
	s.pins[pin.UserID][pin.ImageURL] = pin
	return nil
}

func (s *fakeStore) GetPinsByUser(ctx context.Context, userID int64) ([]domain.PinRecord, error) {
	var pins []domain.PinRecord
	for _, p := range s.pins[userID] {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].Timestamp.After(pins[j].Timestamp) })
	return pins, nil
}

func (s *fakeStore) DeletePin(ctx context.Context, userID int64, imageURL string) error {
	delete(s.pins[userID], imageURL)
	return nil
}

type fakeScraper struct {
	image       domain.DOMMetadata
	page        domain.PageMetadata
	description string
	err         error
	calls       []string
}

func (s *fakeScraper) ImageMetadata(ctx context.Context, pageURL, imageURL string) (domain.DOMMetadata, error) {
	s.calls = append(s.calls, pageURL)
	return s.image, s.err
}

func (s *fakeScraper) PageMetadata(ctx context.Context, pageURL string) (domain.PageMetadata, error) {
	s.calls = append(s.calls, pageURL)
	return s.page, s.err
}

func (s *fakeScraper) ExtractDescription(ctx context.Context, pageURL string) (string, error) {
	s.calls = append(s.calls, pageURL)
	return s.description, s.err
}

type fakeSubmitter struct {
	result   domain.SubmissionResult
	payloads []domain.PinPayload
}

func (s *fakeSubmitter) Submit(ctx context.Context, settings domain.Settings, payload domain.PinPayload) domain.SubmissionResult {
	if !settings.Configured() {
		return domain.SubmissionResult{Error: pinry.ErrNotConfigured, Kind: domain.KindConfiguration}
	}
	s.payloads = append(s.payloads, payload)
	return s.result
}

type fakePresenter struct {
	toasts []notify.Toast
	chats  []int64
}

func (p *fakePresenter) Present(ctx context.Context, chatID int64, toast notify.Toast) error {
	p.toasts = append(p.toasts, toast)
	p.chats = append(p.chats, chatID)
	return nil
}

type fixture struct {
	router    *Router
	store     *fakeStore
	scraper   *fakeScraper
	submitter *fakeSubmitter
	presenter *fakePresenter
}

var origin = Origin{UserID: 10, ChatID: 20}

var configured = domain.Settings{ServiceURL: "https://pins.example.com", APIToken: "tok"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		store:     newFakeStore(),
		scraper:   &fakeScraper{},
		submitter: &fakeSubmitter{result: domain.SubmissionResult{Success: true, Data: []byte(`{"id":1}`)}},
		presenter: &fakePresenter{},
	}
	f.router = New(f.store, f.scraper, f.submitter, f.presenter, domain.Settings{}, logger)
	return f
}

func click(imageURL, pageURL string) ContextMenuClick {
	return ContextMenuClick{MenuItemID: SaveToPinry.ID, ImageURL: imageURL, PageURL: pageURL}
}

func TestRouter_Install(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.router.Install(ctx, origin))
	assert.Equal(t, domain.Settings{}, f.store.settings[origin.UserID])

	f.store.settings[origin.UserID] = configured
	require.NoError(t, f.router.Install(ctx, origin))
	assert.Equal(t, configured, f.store.settings[origin.UserID], "reinstall keeps settings")
}

func TestRouter_SaveImage_NotConfigured(t *testing.T) {
	f := newFixture(t)

	toast := f.router.SaveImage(context.Background(), origin, click("https://img.example.com/a.jpg", ""))

	assert.Equal(t, notify.Error(MsgNotConfigured), toast)
	assert.Empty(t, f.submitter.payloads)
	assert.Equal(t, []notify.Toast{toast}, f.presenter.toasts)
	assert.Equal(t, []int64{origin.ChatID}, f.presenter.chats)
}

func TestRouter_SaveImage_NotAnImage(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = configured

	for _, imageURL := range []string{"", "images/a.jpg", "https:"} {
		toast := f.router.SaveImage(context.Background(), origin, click(imageURL, "https://example.com"))
		assert.Equal(t, notify.Error(MsgNotAnImage), toast, imageURL)
	}
	assert.Empty(t, f.submitter.payloads)
}

func TestRouter_SaveImage_IgnoresOtherMenuItems(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = configured

	toast := f.router.SaveImage(context.Background(), origin, ContextMenuClick{MenuItemID: "other", ImageURL: "https://img.example.com/a.jpg"})
	assert.Equal(t, notify.Toast{}, toast)
	assert.Empty(t, f.presenter.toasts)
	assert.Empty(t, f.submitter.payloads)
}

func TestRouter_SaveImage_WithMetadata(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = domain.Settings{ServiceURL: "https://pins.example.com", APIToken: "tok", DefaultBoardID: "5"}
	f.scraper.image = domain.DOMMetadata{AltText: "A fox", TitleText: "Fox in snow", Found: true}

	toast := f.router.SaveImage(context.Background(), origin, click("https://img.example.com/fox.jpg", "https://wild.example.org/gallery"))

	assert.Equal(t, notify.Success(MsgSaved), toast)
	require.Len(t, f.submitter.payloads, 1)
	assert.Equal(t, domain.PinPayload{
		URL:         "https://img.example.com/fox.jpg",
		Description: "A fox | Fox in snow | Source: wild.example.org",
		Tags:        []string{},
		Board:       "5",
	}, f.submitter.payloads[0])

	history, err := f.router.History(context.Background(), origin)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "https://img.example.com/fox.jpg", history[0].ImageURL)
	assert.Equal(t, "5", history[0].Board)
}

func TestRouter_SaveImage_UsesCurrentTab(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = configured
	f.store.tabs[origin.UserID] = domain.Tab{URL: "https://blog.example.com/post"}

	f.router.SaveImage(context.Background(), origin, click("https://img.example.com/a.jpg", ""))

	assert.Equal(t, []string{"https://blog.example.com/post"}, f.scraper.calls)
	require.Len(t, f.submitter.payloads, 1)
	assert.Equal(t, "Source: blog.example.com", f.submitter.payloads[0].Description)
}

func TestRouter_SaveImage_MetadataFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = configured
	f.scraper.err = errors.New("browser missing")

	toast := f.router.SaveImage(context.Background(), origin, click("https://img.example.com/a.jpg", "https://example.com/p"))

	assert.Equal(t, notify.Success(MsgSaved), toast)
	require.Len(t, f.submitter.payloads, 1)
	assert.Equal(t, "Source: example.com", f.submitter.payloads[0].Description)
}

func TestRouter_SaveImage_NoPageFallsBackToFilename(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = configured

	f.router.SaveImage(context.Background(), origin, click("https://img.example.com/x/photo.jpg", ""))

	assert.Empty(t, f.scraper.calls, "no page means no DOM lookup")
	require.Len(t, f.submitter.payloads, 1)
	assert.Equal(t, "Image: photo.jpg", f.submitter.payloads[0].Description)
}

func TestRouter_SaveImage_RemoteRejection(t *testing.T) {
	f := newFixture(t)
	f.store.settings[origin.UserID] = configured
	f.submitter.result = domain.SubmissionResult{
		Error:   "HTTP 400: Bad Request",
		Details: `{"url-or-image":["bad"]}`,
		Kind:    domain.KindRemoteRejection,
	}

	toast := f.router.SaveImage(context.Background(), origin, click("https://img.example.com/a.jpg", ""))

	assert.Equal(t, notify.Error("Invalid image URL - try a different image"), toast)
	history, err := f.router.History(context.Background(), origin)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRouter_SaveImage_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("disk full")

	toast := f.router.SaveImage(context.Background(), origin, click("https://img.example.com/a.jpg", ""))
	assert.Equal(t, notify.Error(MsgUnexpected), toast)
}

func TestRouter_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown action", func(t *testing.T) {
		f := newFixture(t)
		resp := f.router.Dispatch(ctx, Message{Action: "bogus", Origin: origin})
		assert.False(t, resp.Success)
		assert.Equal(t, "unknown action: bogus", resp.Error)
	})

	t.Run("getCurrentTab", func(t *testing.T) {
		f := newFixture(t)
		resp := f.router.Dispatch(ctx, Message{Action: ActionGetCurrentTab, Origin: origin})
		assert.False(t, resp.Success)

		f.store.tabs[origin.UserID] = domain.Tab{URL: "https://example.com"}
		resp = f.router.Dispatch(ctx, Message{Action: ActionGetCurrentTab, Origin: origin})
		require.True(t, resp.Success)
		assert.Equal(t, "https://example.com", resp.Tab.URL)
	})

	t.Run("shareToPinry", func(t *testing.T) {
		f := newFixture(t)
		pin := domain.PinPayload{URL: "https://img/x.png", Description: "d", Tags: []string{"a"}}

		resp := f.router.Dispatch(ctx, Message{Action: ActionShareToPinry, Origin: origin, Pin: &pin})
		assert.False(t, resp.Success)
		assert.Equal(t, pinry.ErrNotConfigured, resp.Error)

		f.store.settings[origin.UserID] = configured
		resp = f.router.Dispatch(ctx, Message{Action: ActionShareToPinry, Origin: origin, Pin: &pin})
		require.True(t, resp.Success)
		assert.Equal(t, []domain.PinPayload{pin}, f.submitter.payloads)

		resp = f.router.Dispatch(ctx, Message{Action: ActionShareToPinry, Origin: origin})
		assert.Equal(t, "missing pin data", resp.Error)
	})

	t.Run("getPageMetadata", func(t *testing.T) {
		f := newFixture(t)
		f.scraper.page = domain.PageMetadata{Title: "T", Tags: []string{"x"}}

		resp := f.router.Dispatch(ctx, Message{Action: ActionGetPageMetadata, Origin: origin})
		assert.False(t, resp.Success, "no page known")

		resp = f.router.Dispatch(ctx, Message{Action: ActionGetPageMetadata, Origin: origin, URL: "https://example.com"})
		require.True(t, resp.Success)
		assert.Equal(t, "T", resp.Metadata.Title)
	})

	t.Run("extractDescription", func(t *testing.T) {
		f := newFixture(t)
		f.scraper.description = "A long enough paragraph."
		f.store.tabs[origin.UserID] = domain.Tab{URL: "https://example.com/a"}

		resp := f.router.Dispatch(ctx, Message{Action: ActionExtractDescription, Origin: origin})
		require.True(t, resp.Success)
		assert.Equal(t, "A long enough paragraph.", resp.Description)
		assert.Equal(t, []string{"https://example.com/a"}, f.scraper.calls)
	})
}

func TestRouter_SaveSettings(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		form SettingsForm
		want notify.Toast
	}{
		{name: "missing url", form: SettingsForm{APIToken: "tok"}, want: notify.Error(MsgSettingsRequired)},
		{name: "blank key", form: SettingsForm{ServiceURL: "https://pins.example.com", APIToken: "   "}, want: notify.Error(MsgSettingsRequired)},
		{name: "bad url", form: SettingsForm{ServiceURL: "pins", APIToken: "tok"}, want: notify.Error(MsgSettingsInvalidURL)},
		{name: "ok", form: SettingsForm{ServiceURL: " https://pins.example.com ", APIToken: " tok ", DefaultBoardID: " 2 "}, want: notify.Success(MsgSettingsSaved)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			assert.Equal(t, tt.want, f.router.SaveSettings(ctx, origin, tt.form))
		})
	}

	f := newFixture(t)
	f.router.SaveSettings(ctx, origin, SettingsForm{ServiceURL: " https://pins.example.com ", APIToken: " tok ", DefaultBoardID: " 2 "})
	settings, err := f.router.LoadSettings(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{ServiceURL: "https://pins.example.com", APIToken: "tok", DefaultBoardID: "2"}, settings)

	f.store.err = errors.New("disk full")
	assert.Equal(t, notify.Error(MsgSettingsError), f.router.SaveSettings(ctx, origin, SettingsForm{ServiceURL: "https://a.example.com", APIToken: "tok"}))
}

func TestRouter_TabAndForget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, notify.SeverityError, f.router.SetCurrentTab(ctx, origin, "not a url").Severity)
	assert.Equal(t, notify.SeverityInfo, f.router.SetCurrentTab(ctx, origin, "https://example.com").Severity)
	assert.Equal(t, "https://example.com", f.store.tabs[origin.UserID].URL)

	f.store.settings[origin.UserID] = configured
	f.router.SaveImage(ctx, origin, click("https://img.example.com/a.jpg", ""))
	assert.Equal(t, notify.SeverityInfo, f.router.Forget(ctx, origin, "https://img.example.com/a.jpg").Severity)
	history, err := f.router.History(ctx, origin)
	require.NoError(t, err)
	assert.Empty(t, history)
}
