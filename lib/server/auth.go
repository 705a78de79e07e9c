// Copyright 2026 The JobFunnel Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jobfunnel/jobfunnel/lib/api"
)

// sessionCookie carries the opaque session token. Tokens live in the
// sessions table; the cookie itself holds no identity.
const sessionCookie = "funnel_session"

// withUser resolves the request's user and rejects unauthenticated
// requests with 401. Resolution order: session cookie, then the
// X-User-Id dev header when dev mode is on.
func (server *Server) withUser(next func(http.ResponseWriter, *http.Request, api.User)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if cookie, err := request.Cookie(sessionCookie); err == nil && cookie.Value != "" {
			user, err := server.store.SessionUser(cookie.Value)
			if err == nil {
				next(writer, request, user)
				return
			}
			if !errors.Is(err, ErrNotFound) {
				server.logger.Error("resolving session", "error", err)
				httpError(writer, http.StatusInternalServerError, "Failed to resolve session.")
				return
			}
		}

		if server.config.DevMode {
			if raw := request.Header.Get("X-User-Id"); raw != "" {
				userID, err := strconv.Atoi(raw)
				if err == nil {
					user, err := server.store.UserByID(userID)
					if err == nil {
						next(writer, request, user)
						return
					}
					if !errors.Is(err, ErrNotFound) {
						server.logger.Error("resolving dev user", "error", err)
						httpError(writer, http.StatusInternalServerError, "Failed to resolve user.")
						return
					}
				}
			}
		}

		httpError(writer, http.StatusUnauthorized, "Not authenticated.")
	}
}

// handleLogin is the dev sign-in entry: it finds or creates the user
// named by the email query parameter, opens a session, and redirects
// to the frontend. Production sign-in goes through the OAuth provider
// instead; this route exists so local setups work without one.
func (server *Server) handleLogin(writer http.ResponseWriter, request *http.Request) {
	if !server.config.DevMode {
		httpError(writer, http.StatusInternalServerError, "Sign-in is not configured.")
		return
	}
	email := request.URL.Query().Get("email")
	if email == "" {
		httpError(writer, http.StatusBadRequest, "Email is required.")
		return
	}

	user, err := server.store.UserByEmail(email)
	if errors.Is(err, ErrNotFound) {
		user, err = server.store.CreateUser(email, nil, nil, nil)
	}
	if err != nil {
		server.logger.Error("dev login", "email", email, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to sign in.")
		return
	}

	token := uuid.NewString()
	if err := server.store.CreateSession(token, user.ID); err != nil {
		server.logger.Error("creating session", "user_id", user.ID, "error", err)
		httpError(writer, http.StatusInternalServerError, "Failed to create session.")
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	server.logger.Info("user signed in", "user_id", user.ID)

	target := server.config.FrontendOrigin
	if target == "" {
		writeJSON(writer, http.StatusOK, user)
		return
	}
	http.Redirect(writer, request, target, http.StatusFound)
}

// handleLogout drops the session and expires the cookie. Always
// succeeds, even without a session.
func (server *Server) handleLogout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := server.store.DeleteSession(cookie.Value); err != nil {
			server.logger.Error("deleting session", "error", err)
		}
	}
	http.SetCookie(writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(writer, http.StatusOK, map[string]bool{"ok": true})
}
