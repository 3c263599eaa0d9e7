package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-membership/internal/http/response"
)

// AllowedHosts отклоняет с 400 запросы, чей Host не указан в списке. Запись "*"
// разрешает любой хост, запись с "." в начале покрывает и поддомены.
func AllowedHosts(hosts []string, log *slog.Logger) func(http.Handler) http.Handler {
	allowAll := false
	exact := make(map[string]struct{}, len(hosts))
	var suffixes []string
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case h == "":
		case h == "*":
			allowAll = true
		case strings.HasPrefix(h, "."):
			suffixes = append(suffixes, h)
		default:
			exact[h] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if allowAll {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(r.Host)
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if _, ok := exact[host]; ok {
				next.ServeHTTP(w, r)
				return
			}
			for _, s := range suffixes {
				if host == s[1:] || strings.HasSuffix(host, s) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("host not allowed", slog.String("host", r.Host))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid host header"))
		})
	}
}
