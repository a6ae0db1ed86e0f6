package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub-engine/internal/events"
	"hackhub-engine/internal/settings"
)

func getJSON(t *testing.T, url, token string, v any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestConfig_RequiresAdmin(t *testing.T) {
	d := newTestDeps(t)
	srv := startServer(t, d)

	assert.Equal(t, http.StatusUnauthorized, getJSON(t, srv.URL+"/api/admin/config", "", nil))
	assert.Equal(t, http.StatusUnauthorized, getJSON(t, srv.URL+"/api/admin/config", "garbage", nil))

	resp := post(t, srv.URL+"/api/auth/login", "", `{"username":"ada","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConfig_GetDefaults(t *testing.T) {
	d := newTestDeps(t)
	srv := startServer(t, d)
	token := login(t, srv)

	var s settings.Settings
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/admin/config", token, &s))
	assert.Equal(t, settings.DefaultTeamSize, s.TeamSize)
	assert.Nil(t, s.Deadline)
}

func TestConfig_DeadlineChangeIsBroadcast(t *testing.T) {
	d := newTestDeps(t)
	srv := startServer(t, d)
	token := login(t, srv)
	_, stream := openStream(t, srv)

	resp := post(t, srv.URL+"/api/admin/config", token, `{"deadline":"2030-01-02T15:04:05Z","teamSize":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s settings.Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, 4, s.TeamSize)
	require.NotNil(t, s.Deadline)

	frame := readFrame(t, stream)
	require.True(t, strings.HasPrefix(frame, "data: "))
	var env struct {
		Type string `json:"type"`
		Data struct {
			Deadline time.Time `json:"deadline"`
			Message  string    `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(frame, "data: "))), &env))
	assert.Equal(t, events.TypeDeadlineUpdated, env.Type)
	assert.Equal(t, deadlineMessage, env.Data.Message)
	assert.True(t, env.Data.Deadline.Equal(time.Date(2030, 1, 2, 15, 4, 5, 0, time.UTC)))
}

func TestConfigHandler_PublishesOnlyRelevantChanges(t *testing.T) {
	d := newTestDeps(t)
	spy := &spyPublisher{}
	h := ConfigHandler{DB: d.DB, Publisher: spy, Logger: d.Logger}

	do := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/admin/config", strings.NewReader(body)))
		return rec
	}

	rec := do(`{"teamSize":3,"tracksEnabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, spy.published())

	rec = do(`{"eventStarted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := spy.published()
	require.Len(t, got, 1)
	assert.Equal(t, events.TypeEventStatusUpdated, got[0].Type)
	assert.JSONEq(t, `{"eventStarted":true,"eventEnded":false}`, string(got[0].Data))

	rec = do(`{"eventStarted":true,"deadline":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = spy.published()
	require.Len(t, got, 2)
	assert.Equal(t, events.TypeDeadlineUpdated, got[1].Type)
	assert.JSONEq(t, `{"deadline":null,"message":"The submission deadline has been updated"}`, string(got[1].Data))
}

func TestConfigHandler_ValidationErrors(t *testing.T) {
	d := newTestDeps(t)
	spy := &spyPublisher{}
	h := ConfigHandler{DB: d.DB, Publisher: spy, Logger: d.Logger}

	rec := httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/admin/config", strings.NewReader(`{"teamSize":1,"deadline":"soon"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var vr settings.Validation
	body, _ := io.ReadAll(rec.Body)
	require.NoError(t, json.Unmarshal(body, &vr))
	assert.Len(t, vr.Errors, 2)
	assert.Empty(t, spy.published())

	rec = httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/admin/config", strings.NewReader(`{"unknown":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")

	rec = httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/admin/config", strings.NewReader(`null`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfig_RejectsNonJSONContentType(t *testing.T) {
	d := newTestDeps(t)
	srv := startServer(t, d)
	token := login(t, srv)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/admin/config", strings.NewReader(`{"teamSize":3}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	var cur settings.Settings
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/admin/config", token, &cur))
	assert.Equal(t, settings.DefaultTeamSize, cur.TeamSize)
}
