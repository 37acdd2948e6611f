package auth_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/auth"
	"github.com/frahmantamala/document-repository/internal/transport"
)

var _ = Describe("RequirePasswordChanged", func() {
	var (
		handler *auth.Handler
		next    http.Handler
		reached bool
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = auth.NewHandler(&transport.BaseHandler{Logger: lg}, nil)
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(user *internal.SessionUser) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/repositorio/panel", nil)
		req = req.WithContext(internal.ContextWithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		handler.RequirePasswordChanged(next).ServeHTTP(rec, req)
		return rec
	}

	It("answers 403 with the change-password hint while the flag is set", func() {
		rec := serve(&internal.SessionUser{ID: 1, PasswordChangeRequired: true})

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(reached).To(BeFalse())

		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["redirect"]).To(Equal("/cambiar_clave"))
	})

	It("lets the request through once the flag is cleared", func() {
		rec := serve(&internal.SessionUser{ID: 1, PasswordChangeRequired: false})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})
})
