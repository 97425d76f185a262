package commands

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"nabi/interfaces"
	"nabi/logger"
	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	return logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newTestStore(t *testing.T) *storage.DBStore {
	t.Helper()
	store, err := storage.NewDBStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMemberDisplayName(t *testing.T) {
	assert.Equal(t, "신원미상", memberDisplayName(nil))
	assert.Equal(t, "닉", memberDisplayName(&discordgo.Member{Nick: "닉", User: &discordgo.User{Username: "user", GlobalName: "global"}}))
	assert.Equal(t, "global", memberDisplayName(&discordgo.Member{User: &discordgo.User{Username: "user", GlobalName: "global"}}))
	assert.Equal(t, "user", memberDisplayName(&discordgo.Member{User: &discordgo.User{Username: "user"}}))
}

func TestInteractionUser(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: &discordgo.Member{User: &discordgo.User{ID: "m"}}}}
	assert.Equal(t, "m", interactionUser(guild).ID)

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "d"}}}
	assert.Equal(t, "d", interactionUser(dm).ID)
}

func TestHasPermission(t *testing.T) {
	member := func(perms int64) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: &discordgo.Member{Permissions: perms}}}
	}
	assert.True(t, hasPermission(member(discordgo.PermissionAdministrator), discordgo.PermissionVoiceMoveMembers))
	assert.True(t, hasPermission(member(discordgo.PermissionVoiceMoveMembers), discordgo.PermissionVoiceMoveMembers))
	assert.False(t, hasPermission(member(discordgo.PermissionSendMessages), discordgo.PermissionVoiceMoveMembers))
	assert.False(t, hasPermission(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}, discordgo.PermissionSendMessages))
}

func TestComponentHandlerLongestPrefix(t *testing.T) {
	short := &LottoCommand{}
	long := &AttendanceCommand{}
	reg := &Registry{Components: map[string]interfaces.CommandHandler{
		"league_":      short,
		"league_menu_": long,
	}}

	h, ok := reg.ComponentHandler("league_menu_teams")
	require.True(t, ok)
	assert.Same(t, long, h)

	h, ok = reg.ComponentHandler("league_back")
	require.True(t, ok)
	assert.Same(t, short, h)

	_, ok = reg.ComponentHandler("music_add")
	assert.False(t, ok)
}

func TestRegisterCommands(t *testing.T) {
	reg := RegisterCommands(&AppContext{Log: testLogger()})

	assert.Len(t, reg.Definitions, 10)
	for _, name := range []string{"attendance", "attendance-rank", "lotto", "ow-summary", "steam", "team-shuffle", "league", "music", "ping", "help"} {
		assert.Contains(t, reg.Commands, name)
	}
	for customID, want := range map[string]string{
		"music_rm_exec:1,2":    "music",
		"league_modal_score:a": "league",
		"ts_reshuffle:abc":     "team-shuffle",
	} {
		h, ok := reg.ComponentHandler(customID)
		require.True(t, ok, customID)
		assert.Equal(t, want, h.GetCommandDef().Name, customID)
	}
	assert.NotNil(t, reg.Music)
	assert.NotNil(t, reg.League)
	assert.NotNil(t, reg.TeamShuffle)
}

type recordingScheduler struct{ specs []string }

func (r *recordingScheduler) Start()                {}
func (r *recordingScheduler) Stop() context.Context { return context.Background() }
func (r *recordingScheduler) AddFunc(spec string, cmd func()) (cron.EntryID, error) {
	r.specs = append(r.specs, spec)
	return cron.EntryID(len(r.specs)), nil
}

func TestRegisterCommandsSchedulesMaintenance(t *testing.T) {
	sched := &recordingScheduler{}
	RegisterCommands(&AppContext{Log: testLogger(), Scheduler: sched})

	assert.Equal(t, []string{"@every 10m", "@hourly"}, sched.specs)
}

// restRecorder は Discord REST への送信を記録し、すべて空の JSON で応答します。
type restRecorder struct {
	mu       sync.Mutex
	requests []string
}

func (r *restRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	r.mu.Lock()
	r.requests = append(r.requests, req.Method+" "+req.URL.Path+" "+string(body))
	r.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader("{}")),
		Request:    req,
	}, nil
}

func (r *restRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}

// count は substr を含むリクエストの数を返します。
func (r *restRecorder) count(substr string) int {
	n := 0
	for _, req := range r.all() {
		if strings.Contains(req, substr) {
			n++
		}
	}
	return n
}

func newRecordingSession(t *testing.T) (*discordgo.Session, *restRecorder) {
	t.Helper()
	s, err := discordgo.New("Bot test")
	require.NoError(t, err)
	rec := &restRecorder{}
	s.Client = &http.Client{Transport: rec}
	return s, rec
}
