package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/soltip/soltip/balance"
	"github.com/soltip/soltip/common"
	apierrors "github.com/soltip/soltip/errors"
	"github.com/soltip/soltip/exception"
	"github.com/soltip/soltip/jsonx"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/monitoring"
	"github.com/soltip/soltip/ratelimit"
	"github.com/soltip/soltip/tip"
	"github.com/soltip/soltip/wallet"
)

const (
	maxFormBytes  = 4 << 10
	sweepInterval = time.Minute
)

type APIServer struct {
	ListenAddr string

	deps     Deps
	sessions *SessionManager
	limiter  *ratelimit.TipRateLimiter
	mux      *http.ServeMux
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewAPIServer(addr string, deps Deps, limiter *ratelimit.TipRateLimiter) *APIServer {
	if limiter == nil {
		limiter = ratelimit.NewTipRateLimiter(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &APIServer{
		ListenAddr: addr,
		deps:       deps,
		sessions:   NewSessionManager(ctx, deps, defaultSessionTTL),
		limiter:    limiter,
		mux:        http.NewServeMux(),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.routes()
	return s
}

func (s *APIServer) routes() {
	s.mux.Handle("/", s.route("page", http.MethodGet, s.handlePage))
	s.mux.Handle("/wallet/connect", s.route("wallet_connect", http.MethodPost, s.handleConnect))
	s.mux.Handle("/wallet/disconnect", s.route("wallet_disconnect", http.MethodPost, s.handleDisconnect))
	s.mux.Handle("/form", s.route("form", http.MethodPost, s.handleForm))
	s.mux.Handle("/tip", s.route("tip", http.MethodPost, s.handleTip))
	s.mux.Handle("/api/state", s.route("state", http.MethodGet, s.handleState))
	s.mux.Handle("/api/balance", s.route("balance", http.MethodGet, s.handleBalance))
	s.mux.HandleFunc("/ws", s.handleWS)
	monitoring.RegisterMetrics(s.mux)
}

func (s *APIServer) Handler() http.Handler {
	return s.mux
}

func (s *APIServer) Sessions() *SessionManager {
	return s.sessions
}

// Start serves until ctx is done, then shuts the listener down and ends all
// sessions.
func (s *APIServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	exception.SafeGo("SessionSweeper", func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sessions.Sweep(now)
			}
		}
	})

	errCh := make(chan error, 1)
	exception.SafeGoWithPanic("APIServer", func() {
		logx.Info("API", "listen on ", s.ListenAddr)
		errCh <- srv.ListenAndServe()
	})

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	}
}

func (s *APIServer) Close() {
	s.cancel()
	s.sessions.CloseAll()
	s.limiter.Stop()
}

func (s *APIServer) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sess := s.sessions.Get(w, r)
	view := snapshot(sess)
	view.Notice = sess.takeNotice()

	var buf bytes.Buffer
	if err := renderPage(&buf, view); err != nil {
		logx.Error("API", "render page: ", err)
		http.Error(w, apierrors.ErrMsgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *APIServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	if !parseForm(w, r) {
		s.respond(w, r, sess, apierrors.NewError(apierrors.ErrCodeInvalidRequest, apierrors.ErrMsgInvalidRequest))
		return
	}

	if name := r.PostForm.Get("wallet"); name != "" {
		if err := sess.Wallet.Select(name); err != nil {
			s.respond(w, r, sess, apierrors.NewError(apierrors.ErrCodeUnknownWallet, apierrors.ErrMsgUnknownWallet))
			return
		}
	}
	if err := sess.Wallet.Connect(r.Context()); err != nil {
		logx.Warn("API", fmt.Sprintf("session %s: connect wallet %q: %v", sess.ID, sess.Wallet.Selected(), err))
		code, msg := apierrors.ErrCodeWalletUnlock, apierrors.ErrMsgWalletUnlock
		if errors.Is(err, wallet.ErrNoWallets) || errors.Is(err, wallet.ErrUnknownWallet) {
			code, msg = apierrors.ErrCodeUnknownWallet, apierrors.ErrMsgUnknownWallet
		}
		s.respond(w, r, sess, apierrors.NewError(code, msg))
		return
	}
	s.respond(w, r, sess, nil)
}

func (s *APIServer) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	sess.Wallet.Disconnect()
	s.respond(w, r, sess, nil)
}

func (s *APIServer) handleForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	if !parseForm(w, r) {
		s.respond(w, r, sess, apierrors.NewError(apierrors.ErrCodeInvalidRequest, apierrors.ErrMsgInvalidRequest))
		return
	}
	s.applyForm(sess, r)
	s.respond(w, r, sess, nil)
}

// applyForm copies the posted fields into the controller; a new creator
// address moves the balance card to it.
func (s *APIServer) applyForm(sess *Session, r *http.Request) {
	if _, ok := r.PostForm["creator"]; ok {
		creator := strings.TrimSpace(r.PostForm.Get("creator"))
		sess.Controller.SetCreator(creator)
		if creator != "" {
			sess.Balance.Watch(sess.ctx, creator)
		}
	}
	if _, ok := r.PostForm["amount"]; ok {
		sess.Controller.SetAmount(r.PostForm.Get("amount"))
	}
}

func (s *APIServer) handleTip(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	if !parseForm(w, r) {
		s.respond(w, r, sess, apierrors.NewError(apierrors.ErrCodeInvalidRequest, apierrors.ErrMsgInvalidRequest))
		return
	}

	tipper := ""
	if pub, ok := sess.Wallet.PublicKey(); ok {
		tipper = pub.String()
	}
	if err := s.limiter.AllowTip(clientIP(r), tipper); err != nil {
		logx.Warn("API", err.Error())
		s.respond(w, r, sess, apierrors.NewError(apierrors.ErrCodeRateLimited, apierrors.ErrMsgRateLimited))
		return
	}

	s.applyForm(sess, r)

	// the tip keeps going if the browser goes away mid-flight
	err := sess.Controller.Submit(context.WithoutCancel(r.Context()))
	if err != nil {
		s.respond(w, r, sess, tipError(err, sess.Controller.Banner()))
		return
	}
	s.respond(w, r, sess, nil)
}

func tipError(err error, banner tip.Banner) error {
	switch {
	case errors.Is(err, tip.ErrSubmissionInFlight):
		return apierrors.NewError(apierrors.ErrCodeTipInFlight, apierrors.ErrMsgTipInFlight)
	case errors.Is(err, tip.ErrWalletNotConnected):
		return apierrors.NewError(apierrors.ErrCodeWalletNotConnected, err.Error())
	case errors.Is(err, tip.ErrInvalidCreator):
		return apierrors.NewError(apierrors.ErrCodeInvalidAddress, err.Error())
	case errors.Is(err, tip.ErrSelfTip):
		return apierrors.NewError(apierrors.ErrCodeSelfTip, err.Error())
	case errors.Is(err, tip.ErrInvalidAmount):
		return apierrors.NewError(apierrors.ErrCodeInvalidAmount, err.Error())
	default:
		return apierrors.NewError(apierrors.ErrCodeTipFailed, banner.Message)
	}
}

func (s *APIServer) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(w, r)
	_ = jsonx.WriteResponse(w, http.StatusOK, snapshot(sess))
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Display string `json:"display"`
}

func (s *APIServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.AllowIP(clientIP(r)); err != nil {
		logx.Warn("API", err.Error())
		apierrors.WriteError(w, apierrors.NewError(apierrors.ErrCodeRateLimited, apierrors.ErrMsgRateLimited))
		return
	}

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if !common.IsValidAddress(address) {
		apierrors.WriteError(w, apierrors.NewError(apierrors.ErrCodeInvalidAddress, apierrors.ErrMsgInvalidAddress))
		return
	}

	sol, err := balance.Fetch(r.Context(), s.deps.Network, address)
	if err != nil {
		logx.Error("API", fmt.Sprintf("balance of %s: %v", address, err))
		apierrors.WriteError(w, apierrors.NewError(apierrors.ErrCodeClusterUnavailable, apierrors.ErrMsgClusterUnavailable))
		return
	}

	view := balance.View{Address: address, Loaded: true, Balance: sol}
	_ = jsonx.WriteResponse(w, http.StatusOK, BalanceResponse{
		Address: address,
		Balance: sol.String(),
		Display: view.Display(),
	})
}

// respond finishes a form action: JSON clients get the state or the error,
// browsers are sent back to the page with the error as a notice.
func (s *APIServer) respond(w http.ResponseWriter, r *http.Request, sess *Session, err error) {
	if wantsJSON(r) {
		if err != nil {
			apierrors.WriteError(w, err)
			return
		}
		_ = jsonx.WriteResponse(w, http.StatusOK, snapshot(sess))
		return
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) && apiErr.Code != apierrors.ErrCodeTipFailed && !isBannerError(apiErr.Code) {
		sess.SetNotice(apiErr.Message)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// isBannerError reports codes the tip controller already shows on the banner.
func isBannerError(code apierrors.APIErrorCode) bool {
	switch code {
	case apierrors.ErrCodeWalletNotConnected, apierrors.ErrCodeInvalidAddress, apierrors.ErrCodeSelfTip, apierrors.ErrCodeInvalidAmount:
		return true
	}
	return false
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return r.ParseForm() == nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
