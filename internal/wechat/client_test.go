package wechat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIBase: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
}

func TestStableToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/cgi-bin/stable_token", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "client_credential", req["grant_type"])
		require.Equal(t, "app", req["appid"])
		require.Equal(t, "sec", req["secret"])
		require.Equal(t, false, req["force_refresh"])

		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "expires_in": 7200})
	})

	token, err := c.StableToken(context.Background(), "app", "sec")
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
}

func TestStableToken_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"errcode": 40001, "errmsg": "invalid credential"})
	})

	_, err := c.StableToken(context.Background(), "app", "bad")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid credential")
}

func TestStableToken_EmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	_, err := c.StableToken(context.Background(), "app", "sec")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no access_token")
}

func TestSendTemplate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cgi-bin/message/template/send", r.URL.Path)
		require.Equal(t, "tok-123", r.URL.Query().Get("access_token"))

		var msg TemplateMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		require.Equal(t, "USER1", msg.ToUser)
		require.Equal(t, "tpl", msg.TemplateID)
		require.Equal(t, "hi", msg.Data["content"].Value)

		_ = json.NewEncoder(w).Encode(SendResult{ErrMsg: "ok", MsgID: 42})
	})

	res, err := c.SendTemplate(context.Background(), "tok-123", TemplateMessage{
		ToUser:     "USER1",
		TemplateID: "tpl",
		URL:        "https://relay.example.com/message?sign=abc",
		Data:       map[string]Value{"content": {Value: "hi"}},
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, int64(42), res.MsgID)
}

func TestSendTemplate_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(SendResult{ErrCode: 40003, ErrMsg: "invalid openid"})
	})

	res, err := c.SendTemplate(context.Background(), "tok", TemplateMessage{ToUser: "X"})
	require.NoError(t, err)
	require.False(t, res.OK())
	require.Equal(t, "invalid openid", res.ErrMsg)
}

func TestSendTemplate_GarbageBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	})

	_, err := c.SendTemplate(context.Background(), "tok", TemplateMessage{ToUser: "X"})
	require.Error(t, err)
}
