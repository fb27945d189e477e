package importing

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/eventbus"
	"github.com/orinfm/pipeline/src/infra/ledger"
)

const handlerLRCFixture = "[00:01.00]one\n[00:05.00]two\n[00:10.00]three\n[00:15.00]four"

func newTestAPI(t *testing.T) (*fiber.App, *curated.Store, *ledger.Ledger) {
	t.Helper()
	dir := t.TempDir()

	store, err := curated.Open(filepath.Join(dir, "curated.db"))
	if err != nil {
		t.Fatalf("opening curated store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ldg, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	t.Cleanup(func() { ldg.Close() })

	runner := New(store, eventbus.New(), nil)
	app := fiber.New()
	RegisterRoutes(app, runner, store, ldg)
	return app, store, ldg
}

func seedTracks(t *testing.T, store *curated.Store, n int) {
	t.Helper()
	playlistID, err := store.UpsertPlaylist("https://youtube.com/playlist?list=test", "pop", "Test Playlist")
	if err != nil {
		t.Fatalf("upserting playlist: %v", err)
	}
	for i := 1; i <= n; i++ {
		video := curated.YouTubeVideo{
			VideoID: fmt.Sprintf("vid%d", i), Title: fmt.Sprintf("Artist %d - Song %d", i, i), Duration: 60,
		}
		err := store.InsertTrack(playlistID, video, fmt.Sprintf("Artist %d", i), fmt.Sprintf("Song %d", i), "", handlerLRCFixture, "pop")
		if err != nil {
			t.Fatalf("inserting track %d: %v", i, err)
		}
	}
}

type tracksResponse struct {
	Tracks []curated.Track `json:"tracks"`
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

func getTracks(t *testing.T, app *fiber.App, query string) tracksResponse {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tracks"+query, nil))
	if err != nil {
		t.Fatalf("requesting tracks: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body tracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return body
}

func TestListTracks_ProcessedPagesAreFilledDespiteInterleaving(t *testing.T) {
	app, store, ldg := newTestAPI(t)
	seedTracks(t, store, 6)

	// Odd ids processed, even ids pending - a SQL-level LIMIT would fetch a
	// page dominated by pending rows and return a half-empty result.
	for _, id := range []int64{1, 3, 5} {
		if err := ldg.MarkProcessed("curated", id, ledger.StatusSuccess, ""); err != nil {
			t.Fatalf("seeding ledger: %v", err)
		}
	}

	body := getTracks(t, app, "?status=processed&limit=2")
	if body.Total != 3 {
		t.Errorf("expected total 3 processed tracks, got %d", body.Total)
	}
	if len(body.Tracks) != 2 {
		t.Fatalf("expected a full page of 2 tracks, got %d", len(body.Tracks))
	}
	if body.Tracks[0].ID != 1 || body.Tracks[1].ID != 3 {
		t.Errorf("expected track ids [1 3], got [%d %d]", body.Tracks[0].ID, body.Tracks[1].ID)
	}

	body = getTracks(t, app, "?status=processed&limit=2&offset=2")
	if len(body.Tracks) != 1 {
		t.Fatalf("expected the last page to hold 1 track, got %d", len(body.Tracks))
	}
	if body.Tracks[0].ID != 5 {
		t.Errorf("expected track id 5 on the last page, got %d", body.Tracks[0].ID)
	}
}

func TestListTracks_PendingExcludesSettled(t *testing.T) {
	app, store, ldg := newTestAPI(t)
	seedTracks(t, store, 4)

	ldg.MarkProcessed("curated", 1, ledger.StatusSuccess, "")
	ldg.MarkProcessed("curated", 2, ledger.StatusFailed, "segmentation_failed")

	body := getTracks(t, app, "?status=pending")
	if body.Total != 2 {
		t.Errorf("expected 2 pending tracks, got %d", body.Total)
	}
	for _, track := range body.Tracks {
		if track.ID == 1 || track.ID == 2 {
			t.Errorf("expected settled track %d to be excluded from pending", track.ID)
		}
	}
}

func TestListTracks_OffsetPastEndIsEmptyNotError(t *testing.T) {
	app, store, ldg := newTestAPI(t)
	seedTracks(t, store, 2)
	ldg.MarkProcessed("curated", 1, ledger.StatusSuccess, "")

	body := getTracks(t, app, "?status=processed&offset=50")
	if len(body.Tracks) != 0 {
		t.Errorf("expected an empty page past the end, got %d tracks", len(body.Tracks))
	}
	if body.Total != 1 {
		t.Errorf("expected total 1, got %d", body.Total)
	}
}

func TestListTracks_InvalidLimitRejected(t *testing.T) {
	app, _, _ := newTestAPI(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/tracks?limit=501", nil))
	if err != nil {
		t.Fatalf("requesting tracks: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range limit, got %d", resp.StatusCode)
	}
}
