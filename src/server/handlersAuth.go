package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	app "photozone/src/app"
	cfg "photozone/src/configuration"
)

type (
	// PinInput carries either one key press or a whole sequence.
	PinInput struct {
		Digit  string `json:"digit"`
		Digits string `json:"digits"`
	}

	PinResponse struct {
		Outcome string       `json:"outcome,omitempty"`
		Pad     app.PadState `json:"pad"`
		Admin   bool         `json:"admin"`
	}

	// AuthHandler signs staff in through an OIDC provider and marks their
	// viewer session as admin, bypassing the PIN pad.
	AuthHandler struct {
		oidcProvider *oidc.Provider
		AuthConfig   *oauth2.Config
		ClientID     string
		states       sync.Map
		now          func() time.Time
	}

	loginState struct {
		value  string
		issued time.Time
	}
)

const (
	pinPath = "/admin/pin"

	// loginStateTTL bounds how long an unanswered sign-in stays valid.
	loginStateTTL = 10 * time.Minute
)

var errAdminRequired = errors.New("admin authentication required")

func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// requireAdmin rejects non-admin viewers and opens their PIN pad so the
// client can show it straight away.
func requireAdmin(c *gin.Context) {
	v := viewerOf(c)
	if v.IsAdmin() {
		c.Next()
		return
	}
	pad := v.Pad.Open()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":   "error",
		"message":  errAdminRequired.Error(),
		"redirect": pinPath,
		"pad":      pad,
	})
}

func pinResponse(v *app.Viewer, outcome app.Outcome, pad app.PadState, withOutcome bool) PinResponse {
	resp := PinResponse{Pad: pad, Admin: v.IsAdmin()}
	if withOutcome {
		resp.Outcome = outcome.String()
	}
	return resp
}

func (a *AppHandler) GetPin(c *gin.Context) {
	v := viewerOf(c)
	success(c, pinResponse(v, app.OutcomeIgnored, v.Pad.State(), false))
}

func (a *AppHandler) PostPinOpen(c *gin.Context) {
	v := viewerOf(c)
	success(c, pinResponse(v, app.OutcomeIgnored, v.Pad.Open(), false))
}

// PostPinDigit presses keys on the viewer's pad. A successful verification
// turns the session into an admin session.
func (a *AppHandler) PostPinDigit(c *gin.Context) {
	var input PinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("can not parse pin input: %w", err))
		return
	}
	v := viewerOf(c)
	var (
		outcome app.Outcome
		pad     app.PadState
	)
	if input.Digit != "" {
		r, _ := utf8.DecodeRuneInString(input.Digit)
		outcome, pad = v.Pad.Press(r)
	} else {
		outcome, pad = v.Pad.Enter(input.Digits)
	}
	if outcome == app.OutcomeAuthenticated {
		v.SetAdmin(true)
		slog.Info("viewer authenticated as admin")
	}
	pinOutcomes.WithLabelValues(outcome.String()).Inc()
	success(c, pinResponse(v, outcome, pad, true))
}

func (a *AppHandler) PostPinClear(c *gin.Context) {
	v := viewerOf(c)
	success(c, pinResponse(v, app.OutcomeIgnored, v.Pad.Clear(), false))
}

func (a *AppHandler) PostPinChange(c *gin.Context) {
	v := viewerOf(c)
	pad, ok := v.Pad.StartChange()
	if !ok {
		failure(c, http.StatusBadRequest, fmt.Errorf("pin change starts from the verification prompt"))
		return
	}
	success(c, pinResponse(v, app.OutcomeIgnored, pad, false))
}

func (a *AppHandler) PostPinCancel(c *gin.Context) {
	v := viewerOf(c)
	success(c, pinResponse(v, app.OutcomeIgnored, v.Pad.Cancel(), false))
}

func (a *AppHandler) PostLogout(c *gin.Context) {
	v := viewerOf(c)
	v.SetAdmin(false)
	success(c, pinResponse(v, app.OutcomeIgnored, v.Pad.Cancel(), false))
}

// NewAuthHandler connects to the configured OIDC issuer. It returns nil
// when staff sign-in is disabled.
func NewAuthHandler(ctx context.Context, config *cfg.Properties) (*AuthHandler, error) {
	if !config.Auth.Enabled {
		return nil, nil
	}
	provider, err := oidc.NewProvider(ctx, config.Auth.Host)
	if err != nil {
		return nil, fmt.Errorf("creating OIDC provider for %s: %w", config.Auth.Host, err)
	}
	slog.Info("staff sign-in enabled", "issuer", config.Auth.Host)
	return &AuthHandler{
		oidcProvider: provider,
		AuthConfig: &oauth2.Config{
			ClientID:     config.Auth.ID,
			ClientSecret: config.Auth.Secret,
			RedirectURL:  config.Auth.Redirect,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile"},
		},
		ClientID: config.Auth.ID,
		now:      time.Now,
	}, nil
}

func (a *AuthHandler) Login(c *gin.Context) {
	state, err := randString(16)
	if err != nil {
		failure(c, http.StatusInternalServerError, err)
		return
	}
	now := a.now()
	a.expireStates(now)
	a.states.Store(viewerOf(c).Token, loginState{value: state, issued: now})
	c.Redirect(http.StatusFound, a.AuthConfig.AuthCodeURL(state))
}

// expireStates forgets sign-ins that were started but never completed.
func (a *AuthHandler) expireStates(now time.Time) {
	a.states.Range(func(key, value any) bool {
		if now.Sub(value.(loginState).issued) > loginStateTTL {
			a.states.Delete(key)
		}
		return true
	})
}

func (a *AuthHandler) Callback(c *gin.Context) {
	v := viewerOf(c)
	stored, ok := a.states.LoadAndDelete(v.Token)
	if ok {
		expected := stored.(loginState)
		ok = c.Query("state") == expected.value && a.now().Sub(expected.issued) <= loginStateTTL
	}
	if !ok {
		failure(c, http.StatusBadRequest, fmt.Errorf("no current state found"))
		return
	}

	ctx := c.Request.Context()
	token, err := a.AuthConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("error getting access token: %w", err))
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		failure(c, http.StatusBadRequest, fmt.Errorf("no ID token found in callback"))
		return
	}
	verifier := a.oidcProvider.Verifier(&oidc.Config{ClientID: a.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		failure(c, http.StatusUnauthorized, fmt.Errorf("error verifying ID token: %w", err))
		return
	}
	var claims struct {
		Name string `json:"nickname"`
	}
	if err := idToken.Claims(&claims); err != nil {
		slog.Warn("can not parse ID token claims", "error", err)
	}
	v.SetAdmin(true)
	v.Pad.Cancel()
	slog.Info("staff signed in", "name", claims.Name)
	c.Redirect(http.StatusFound, "/")
}
