package stats

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/lepinkainen/steamfetch/internal/cache"
	"github.com/lepinkainen/steamfetch/internal/config"
	steamstats "github.com/lepinkainen/steamfetch/internal/stats"
	"github.com/lepinkainen/steamfetch/internal/testutil"
	_ "modernc.org/sqlite"
)

const (
	summaryPath      = "/ISteamUser/GetPlayerSummaries/v2/"
	ownedPath        = "/IPlayerService/GetOwnedGames/v1/"
	levelPath        = "/IPlayerService/GetSteamLevel/v1/"
	recentPath       = "/IPlayerService/GetRecentlyPlayedGames/v1/"
	achievementsPath = "/ISteamUserStats/GetPlayerAchievements/v1/"
	percentagesPath  = "/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/"
)

var fakeBodies = map[string]string{
	summaryPath: `{"response":{"players":[{"personaname":"tester","timecreated":1234567890,"loccountrycode":"FI"}]}}`,
	ownedPath: `{"response":{"game_count":2,"games":[
		{"appid":10,"name":"Alpha","playtime_forever":120,"rtime_last_played":100},
		{"appid":20,"name":"Beta","playtime_forever":0,"rtime_last_played":0}]}}`,
	levelPath:        `{"response":{"player_level":7}}`,
	recentPath:       `{"response":{"total_count":1,"games":[{"appid":10,"name":"Alpha","playtime_2weeks":30,"playtime_forever":120}]}}`,
	achievementsPath: `{"playerstats":{"success":true,"achievements":[{"apiname":"A1","achieved":1,"name":"First"},{"apiname":"A2","achieved":0,"name":"Second"}]}}`,
	percentagesPath:  `{"achievementpercentages":{"achievements":[{"name":"A1","percent":12.5},{"name":"A2","percent":"3.0"}]}}`,
}

type fakeSteam struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeSteam) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	body, ok := fakeBodies[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (f *fakeSteam) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func setupRun(t *testing.T) (*testutil.TestEnv, *fakeSteam) {
	t.Helper()

	env := testutil.NewTestEnv(t)
	testutil.SetTestConfig(t, env)

	fake := &fakeSteam{calls: map[string]int{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	orig := steamBaseURL
	steamBaseURL = server.URL
	t.Cleanup(func() { steamBaseURL = orig })

	return env, fake
}

func decodeReport(t *testing.T, data []byte) steamstats.Report {
	t.Helper()

	var report steamstats.Report
	assert.NoError(t, json.Unmarshal(data, &report))
	return report
}

func TestRunFetchesReport(t *testing.T) {
	_, fake := setupRun(t)

	var out bytes.Buffer
	err := Run(context.Background(), Options{}, &out)
	assert.NoError(t, err)

	report := decodeReport(t, out.Bytes())
	assert.Equal(t, "tester", report.Username)
	assert.Equal(t, "FI", report.Country)
	assert.Equal(t, 2, report.GameCount)
	assert.Equal(t, 1, report.UnplayedCount)
	assert.Equal(t, 120, report.TotalPlaytimeMinutes)
	assert.Equal(t, 7, *report.SteamLevel)
	assert.Equal(t, []steamstats.GameStat{{AppID: 10, Name: "Alpha", PlaytimeMinutes: 30}}, report.RecentlyPlayed)

	assert.Equal(t, 2, report.Achievements.TotalAchieved)
	assert.Equal(t, 4, report.Achievements.TotalPossible)
	assert.Equal(t, 0, report.Achievements.PerfectGames)
	assert.Equal(t, "First", report.Achievements.Rarest.Name)
	assert.Equal(t, "Alpha", report.Achievements.Rarest.Game)
	assert.Equal(t, 12.5, report.Achievements.Rarest.Percent)

	assert.Equal(t, 2, fake.count(achievementsPath))
	assert.Equal(t, 2, fake.count(percentagesPath))
	assert.Equal(t, 2, cache.Load(config.CacheDBFile).Len())
}

func TestRunUsesCacheOnSecondRun(t *testing.T) {
	_, fake := setupRun(t)

	var first, second bytes.Buffer
	assert.NoError(t, Run(context.Background(), Options{}, &first))
	assert.NoError(t, Run(context.Background(), Options{}, &second))

	assert.Equal(t, 2, fake.count(achievementsPath))
	assert.Equal(t, 2, fake.count(percentagesPath))
	assert.Equal(t, decodeReport(t, first.Bytes()).Achievements, decodeReport(t, second.Bytes()).Achievements)
}

func TestRunWithExternalIdentity(t *testing.T) {
	env, fake := setupRun(t)
	env.WriteFileString("owned.txt", "# owned games\n10\n20 30\n")

	var out bytes.Buffer
	err := Run(context.Background(), Options{
		Username:        "external",
		OwnedAppIDsFile: env.Path("owned.txt"),
	}, &out)
	assert.NoError(t, err)

	report := decodeReport(t, out.Bytes())
	assert.Equal(t, "external", report.Username)
	assert.Equal(t, config.SteamID, report.SteamID)
	assert.Equal(t, 3, report.GameCount)
	assert.Equal(t, 1, fake.count(ownedPath))
	assert.Equal(t, 3, fake.count(achievementsPath))
}

func TestRunRequiresCredentials(t *testing.T) {
	setupRun(t)
	config.SteamAPIKey = ""

	err := Run(context.Background(), Options{}, &bytes.Buffer{})
	assert.IsError(t, err, config.ErrMissingAPIKey)
}

func TestRunWritesFileOutputs(t *testing.T) {
	env, _ := setupRun(t)

	var out bytes.Buffer
	err := Run(context.Background(), Options{
		Demo:        true,
		JSONOutput:  env.Path("out", "report.json"),
		YAMLOutput:  env.Path("out", "report.yaml"),
		MetricsFile: env.Path("out", "steamfetch.prom"),
	}, &out)
	assert.NoError(t, err)

	assert.Equal(t, 0, out.Len())
	env.AssertFileContains("out/report.json", `"username": "demo_player"`)
	env.AssertFileContains("out/report.yaml", "username: demo_player")
	env.RequireFileExists("out/steamfetch.prom")
}

func TestRunExportsSnapshot(t *testing.T) {
	env, _ := setupRun(t)
	dbPath := testutil.SetupDatasetteDB(t, env)

	origNow := now
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { now = origNow })

	err := Run(context.Background(), Options{Datasette: true}, &bytes.Buffer{})
	assert.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	var username string
	err = db.QueryRow("SELECT username FROM steam_snapshots").Scan(&username)
	assert.NoError(t, err)
	assert.Equal(t, "tester", username)
}

func TestDemoReportGolden(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), Options{Demo: true}, &out)
	assert.NoError(t, err)

	golden := testutil.NewGoldenHelper(t, "testdata")
	golden.AssertGoldenJSON("demo.json", out.Bytes())
}

func TestCmdOptions(t *testing.T) {
	testutil.ResetConfig(t)
	testutil.SetViperValue(t, "datasette.enabled", true)

	cmd := &Cmd{Demo: true, JSONOutput: "r.json", Username: "me", OwnedAppIDsFile: "ids.txt"}
	assert.Equal(t, Options{
		Demo:            true,
		JSONOutput:      "r.json",
		Datasette:       true,
		Username:        "me",
		OwnedAppIDsFile: "ids.txt",
	}, cmd.options())
}

func TestCmdRunAppliesFlags(t *testing.T) {
	testutil.ResetConfig(t)

	var got Options
	orig := runStats
	runStats = func(_ context.Context, opts Options, _ io.Writer) error {
		got = opts
		return nil
	}
	t.Cleanup(func() { runStats = orig })

	cmd := &Cmd{SteamID: "123", APIKey: "key", Overwrite: true, Demo: true}
	assert.NoError(t, cmd.Run())

	assert.Equal(t, "123", config.SteamID)
	assert.Equal(t, "key", config.SteamAPIKey)
	assert.True(t, config.OverwriteFiles)
	assert.True(t, got.Demo)
}
