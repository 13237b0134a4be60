package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/jsonx"
	"github.com/soltip/soltip/program"
	"github.com/soltip/soltip/ratelimit"
	"github.com/soltip/soltip/tip"
	"github.com/soltip/soltip/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	mu    sync.Mutex
	sends int
}

func (n *fakeNetwork) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return 1_500_000_000, nil
}

func (n *fakeNetwork) GetLatestBlockhash(context.Context) (client.Blockhash, error) {
	return client.Blockhash{Hash: solana.Hash{9}, LastValidBlockHeight: 50}, nil
}

func (n *fakeNetwork) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends++
	return solana.Signature{byte(n.sends)}, nil
}

func (n *fakeNetwork) sendCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sends
}

func (n *fakeNetwork) ConfirmTransaction(context.Context, solana.Signature, uint64) error {
	return nil
}

func (n *fakeNetwork) GetAccountData(context.Context, solana.PublicKey) ([]byte, error) {
	return nil, client.ErrAccountNotFound
}

type testEnv struct {
	server *APIServer
	http   *httptest.Server
	client *http.Client
	key    solana.PrivateKey
	net    *fakeNetwork
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	adapter, err := wallet.NewAdapter("local", wallet.KindBase58, key.String())
	require.NoError(t, err)

	net := &fakeNetwork{}
	limiter := ratelimit.NewTipRateLimiter(&ratelimit.RateLimiterConfig{MaxRequests: limit, WindowSize: time.Minute})
	s := NewAPIServer("127.0.0.1:0", Deps{
		Network:  net,
		Program:  program.Default(),
		Endpoint: "http://fake",
		Adapters: []wallet.Adapter{adapter},
	}, limiter)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{
		server: s,
		http:   srv,
		client: &http.Client{Jar: jar},
		key:    key,
		net:    net,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.http.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, jsonx.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func randomAddress(t *testing.T) string {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey().String()
}

func TestPage_NewSession(t *testing.T) {
	env := newTestEnv(t, 10)

	resp, err := env.client.Get(env.http.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.server.Sessions().Len())
	u, _ := url.Parse(env.http.URL)
	cookies := env.client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<h1>SolTip</h1>")
	assert.Contains(t, string(body), "Connect your wallet to send tips")

	// same cookie, same session
	resp2, err := env.client.Get(env.http.URL + "/")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, 1, env.server.Sessions().Len())
}

func TestTipFlow(t *testing.T) {
	env := newTestEnv(t, 10)

	resp := env.postJSON(t, "/wallet/connect", url.Values{"wallet": {"local"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[StateView](t, resp)
	assert.True(t, state.Wallet.Connected)
	assert.Equal(t, env.key.PublicKey().String(), state.Wallet.PublicKey)
	assert.Equal(t, "http://fake", state.Wallet.Endpoint)

	creator := randomAddress(t)
	resp = env.postJSON(t, "/tip", url.Values{"creator": {creator}, "amount": {"1.5"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decode[StateView](t, resp)

	assert.Equal(t, tip.StatusSuccess, state.Banner.Status)
	assert.Equal(t, "Tip of 1.5 SOL sent successfully!", state.Banner.Message)
	assert.Equal(t, creator, state.Creator)
	assert.Empty(t, state.Amount)
	require.Len(t, state.History, 1)
	assert.Equal(t, "1.5", state.History[0].Amount.String())
	assert.True(t, strings.HasPrefix(state.History[0].Display, "1.5 SOL  "))
	assert.Equal(t, "1.5", state.TipTotal)
	assert.Equal(t, 2, env.net.sendCount())

	resp, err := env.client.Get(env.http.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	state = decode[StateView](t, resp)
	assert.Len(t, state.History, 1)
	assert.Equal(t, tip.StatusSuccess, state.Banner.Status)

	page, err := env.client.Get(env.http.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close()
	body, err := io.ReadAll(page.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Total sent: 1.5 SOL")
}

func TestTip_Rejections(t *testing.T) {
	env := newTestEnv(t, 10)

	resp := env.postJSON(t, "/tip", url.Values{"creator": {randomAddress(t)}, "amount": {"1"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "wallet_not_connected", body.Code)
	assert.Equal(t, "Please connect your wallet first", body.Message)

	env.postJSON(t, "/wallet/connect", url.Values{})

	resp = env.postJSON(t, "/tip", url.Values{"creator": {env.key.PublicKey().String()}, "amount": {"1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "self_tip", decode[errorBody](t, resp).Code)

	resp = env.postJSON(t, "/tip", url.Values{"creator": {randomAddress(t)}, "amount": {"0"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Tip amount must be greater than 0", decode[errorBody](t, resp).Message)

	assert.Zero(t, env.net.sendCount())
}

func TestTip_BrowserRedirect(t *testing.T) {
	env := newTestEnv(t, 10)
	env.client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := env.client.PostForm(env.http.URL+"/tip", url.Values{"creator": {randomAddress(t)}, "amount": {"1"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, 10)

	resp, err := env.client.Get(env.http.URL + "/tip")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "method_not_allowed", decode[errorBody](t, resp).Code)
}

func TestBalanceEndpoint(t *testing.T) {
	env := newTestEnv(t, 2)
	addr := randomAddress(t)

	resp, err := env.client.Get(env.http.URL + "/api/balance?address=" + addr)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[BalanceResponse](t, resp)
	assert.Equal(t, "Balance: 1.50 SOL", got.Display)
	assert.Equal(t, "1.5", got.Balance)

	resp, err = env.client.Get(env.http.URL + "/api/balance?address=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_address", decode[errorBody](t, resp).Code)

	resp, err = env.client.Get(env.http.URL + "/api/balance?address=" + addr)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decode[errorBody](t, resp).Code)
}

func TestWebsocketPushesChanges(t *testing.T) {
	env := newTestEnv(t, 10)

	resp, err := env.client.Get(env.http.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	u, _ := url.Parse(env.http.URL)
	header := http.Header{}
	for _, c := range env.client.Jar.Cookies(u) {
		header.Add("Cookie", c.String())
	}
	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	var first StateView
	require.NoError(t, conn.ReadJSON(&first))
	assert.False(t, first.Wallet.Connected)

	creator := randomAddress(t)
	env.postJSON(t, "/form", url.Values{"creator": {creator}, "amount": {"0.5"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var v StateView
		require.NoError(t, conn.ReadJSON(&v))
		if v.Amount == "0.5" && v.Balance.Loaded {
			assert.Equal(t, creator, v.Creator)
			assert.Equal(t, "Balance: 1.50 SOL", v.Balance.Display)
			break
		}
	}
}

func TestWebsocketRequiresSession(t *testing.T) {
	env := newTestEnv(t, 10)
	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionSweep(t *testing.T) {
	env := newTestEnv(t, 10)
	resp, err := env.client.Get(env.http.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	m := env.server.Sessions()
	assert.Zero(t, m.Sweep(time.Now()))
	assert.Equal(t, 1, m.Sweep(time.Now().Add(2*defaultSessionTTL)))
	assert.Zero(t, m.Len())
}
