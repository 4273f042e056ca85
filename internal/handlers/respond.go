// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP surface of Inkwell: the JSON API
// procedures for categories and posts, and author login.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inkwell/internal/blog"
)

// maxBodyBytes caps request bodies. A maximal post (100,000 characters of
// four-byte runes plus metadata) fits comfortably.
const maxBodyBytes = 1 << 20

type resultEnvelope struct {
	Result any `json:"result"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeResult(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, resultEnvelope{Result: v})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorDetail{Code: code, Message: message}})
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind blog.Kind) int {
	switch kind {
	case blog.KindNotFound:
		return http.StatusNotFound
	case blog.KindConflict:
		return http.StatusConflict
	case blog.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case blog.KindValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err as an error envelope. Only messages of
// blog errors reach the client; anything else becomes a generic INTERNAL.
func writeServiceError(w http.ResponseWriter, err error) {
	detail := errorDetail{Code: string(blog.KindInternal), Message: "Internal server error"}

	var e *blog.Error
	if errors.As(err, &e) {
		detail = errorDetail{Code: string(e.Kind), Message: e.Message, Count: e.Count}
	}
	writeJSON(w, statusFor(blog.Kind(detail.Code)), errorEnvelope{Error: detail})
}
