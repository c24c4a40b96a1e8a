package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecret rechaza requests cuyo header de secreto no coincide con el
// configurado al registrar el webhook. Con secret vacío (modo dev) deja pasar
// todo.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	want := []byte(strings.TrimSpace(secret))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(want) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			got := []byte(strings.TrimSpace(r.Header.Get(SecretTokenHeader)))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
