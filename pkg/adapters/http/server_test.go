package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	voyago "github.com/voyago/voyago"
	httpadapter "github.com/voyago/voyago/pkg/adapters/http"
	"github.com/voyago/voyago/pkg/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *voyago.Engine) {
	t.Helper()
	engine := voyago.New()
	srv := httptest.NewServer(httpadapter.NewHandler(engine))
	t.Cleanup(srv.Close)
	return srv, engine
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_TurnFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/conversations/c1/turns", map[string]string{
		"turnToken": "tok-1",
		"message":   "I want to go to Paris",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[voyago.TurnResult](t, resp)
	assert.Contains(t, result.Response, "Paris")
	assert.False(t, result.Duplicate)

	// Redelivery with the same token returns the identical response.
	resp = postJSON(t, srv.URL+"/conversations/c1/turns", map[string]string{
		"turnToken": "tok-1",
		"message":   "I want to go to Paris",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	replay := decode[voyago.TurnResult](t, resp)
	assert.True(t, replay.Duplicate)
	assert.Equal(t, result.Response, replay.Response)
}

func TestServer_TurnValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/conversations/c1/turns", map[string]string{"turnToken": "t"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_GetConversation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/conversations/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	postJSON(t, srv.URL+"/conversations/c2/turns", map[string]string{
		"turnToken": "t1", "message": "I want to go to Kyoto",
	}).Body.Close()

	resp, err = http.Get(srv.URL + "/conversations/c2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[domain.State](t, resp)
	assert.Equal(t, "c2", state.ID)
	assert.Equal(t, "Kyoto", state.Slot(domain.SlotDestination).Value.Text)
}

func TestServer_SearchNotReady(t *testing.T) {
	srv, _ := newTestServer(t)

	postJSON(t, srv.URL+"/conversations/c3/turns", map[string]string{
		"turnToken": "t1", "message": "I want to go to Kyoto",
	}).Body.Close()

	resp := postJSON(t, srv.URL+"/conversations/c3/search", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_SignalUnknown(t *testing.T) {
	srv, _ := newTestServer(t)

	postJSON(t, srv.URL+"/conversations/c4/turns", map[string]string{
		"turnToken": "t1", "message": "hello",
	}).Body.Close()

	resp := postJSON(t, srv.URL+"/conversations/c4/signals", map[string]string{
		"signal": "SYSTEM_SOMETHING",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_ListAndDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	postJSON(t, srv.URL+"/conversations/c5/turns", map[string]string{
		"turnToken": "t1", "message": "hello",
	}).Body.Close()

	resp, err := http.Get(srv.URL + "/conversations")
	require.NoError(t, err)
	ids := decode[[]string](t, resp)
	assert.Contains(t, ids, "c5")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/conversations/c5", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()

	getResp, err := http.Get(srv.URL + "/conversations/c5")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}
