package document_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/document-repository/internal"
	auditDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/audit"
	documentDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/document"
	"github.com/frahmantamala/document-repository/internal/audit"
	auditPostgres "github.com/frahmantamala/document-repository/internal/audit/postgres"
	"github.com/frahmantamala/document-repository/internal/document"
	documentPostgres "github.com/frahmantamala/document-repository/internal/document/postgres"
	"github.com/frahmantamala/document-repository/internal/transport"
)

var _ = Describe("Document Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *document.Handler
		router  *chi.Mux
		admin   *internal.SessionUser
	)

	multipartBody := func(title, filename string, data []byte) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		Expect(writer.WriteField("titulo", title)).To(Succeed())
		part, err := writer.CreateFormFile("archivo", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())
		return body, writer.FormDataContentType()
	}

	withUser := func(req *http.Request) *http.Request {
		return req.WithContext(internal.ContextWithUser(req.Context(), admin))
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&documentDatamodel.Area{}, &documentDatamodel.Document{}, &auditDatamodel.AuditLog{})
		Expect(err).NotTo(HaveOccurred())

		auditService := audit.NewService(auditPostgres.NewAuditRepository(db), slogger)
		repo := documentPostgres.NewRepository(db)
		service := document.NewService(repo, auditService, slogger)
		baseHandler := &transport.BaseHandler{Logger: slogger}
		handler = document.NewHandler(baseHandler, service, internal.DefaultMaxUploadBytes)

		admin = &internal.SessionUser{ID: 1, FullName: "Admin", RoleName: "Admin"}

		router = chi.NewRouter()
		router.Post("/admin/area/crear", handler.CreateArea)
		router.Post("/admin/area/{id}/documentos", handler.UploadDocument)
		router.Get("/repositorio/area/{id}", handler.AreaDocuments)
		router.Get("/repositorio/documento/{id}/ver", handler.ViewDocument)
		router.Get("/repositorio/documento/{id}/descargar", handler.DownloadDocument)
	})

	It("walks an area from creation to download", func() {
		// create the area
		areaBody, _ := json.Marshal(map[string]string{"nombre": "Finanzas"})
		req := withUser(httptest.NewRequest(http.MethodPost, "/admin/area/crear", bytes.NewReader(areaBody)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var area document.Area
		Expect(json.NewDecoder(w.Body).Decode(&area)).To(Succeed())
		Expect(area.Name).To(Equal("Finanzas"))

		// upload 500 bytes of pdf
		data := make([]byte, 500)
		for i := range data {
			data[i] = byte(i % 251)
		}
		digest := sha256.Sum256(data)

		body, contentType := multipartBody("Balance Anual", "balance.pdf", data)
		req = withUser(httptest.NewRequest(http.MethodPost, "/admin/area/1/documentos", body))
		req.Header.Set("Content-Type", contentType)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var doc document.Document
		Expect(json.NewDecoder(w.Body).Decode(&doc)).To(Succeed())
		Expect(doc.SizeBytes).To(Equal(int64(500)))
		Expect(doc.SHA256).To(Equal(hex.EncodeToString(digest[:])))

		// browse the area
		req = withUser(httptest.NewRequest(http.MethodGet, "/repositorio/area/1", nil))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var listing document.AreaDocumentsResponse
		Expect(json.NewDecoder(w.Body).Decode(&listing)).To(Succeed())
		Expect(listing.Documents).To(HaveLen(1))

		// view inline
		req = withUser(httptest.NewRequest(http.MethodGet, "/repositorio/documento/1/ver", nil))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/pdf"))
		Expect(w.Header().Get("Content-Disposition")).To(HavePrefix("inline"))
		Expect(w.Body.Bytes()).To(Equal(data))

		// download as attachment
		req = withUser(httptest.NewRequest(http.MethodGet, "/repositorio/documento/1/descargar", nil))
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Disposition")).To(HavePrefix("attachment"))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("balance.pdf"))
	})

	It("rejects a non PDF upload", func() {
		areaBody, _ := json.Marshal(map[string]string{"nombre": "Finanzas"})
		req := withUser(httptest.NewRequest(http.MethodPost, "/admin/area/crear", bytes.NewReader(areaBody)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusCreated))

		body, contentType := multipartBody("Balance", "balance.docx", []byte("PK"))
		req = withUser(httptest.NewRequest(http.MethodPost, "/admin/area/1/documentos", body))
		req.Header.Set("Content-Type", contentType)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when viewing a missing document", func() {
		req := withUser(httptest.NewRequest(http.MethodGet, "/repositorio/documento/99/ver", nil))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
