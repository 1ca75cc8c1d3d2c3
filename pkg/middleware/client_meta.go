package middleware

import (
	"net"
	"net/http"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/utils"
)

// ClientMeta records the caller IP and User-Agent for audit events. Run it
// after chi's RealIP so RemoteAddr already reflects proxy headers.
func ClientMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		meta := entity.ClientMeta{
			IP:        utils.StringPtr(ip),
			UserAgent: utils.StringPtr(r.UserAgent()),
		}

		next.ServeHTTP(w, r.WithContext(utils.SetClientMetaContext(r.Context(), meta)))
	})
}
