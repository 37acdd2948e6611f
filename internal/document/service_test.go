package document_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/document-repository/internal"
	documentDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/document"
	"github.com/frahmantamala/document-repository/internal/document"
)

func TestDocumentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Document Service Suite")
}

type MockRepository struct {
	areas      map[int64]*documentDatamodel.Area
	documents  map[int64]*documentDatamodel.Document
	payloads   map[int64][]byte
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		areas:     make(map[int64]*documentDatamodel.Area),
		documents: make(map[int64]*documentDatamodel.Document),
		payloads:  make(map[int64][]byte),
		nextID:    100,
	}
}

func (m *MockRepository) ListAreas(_ context.Context) ([]*documentDatamodel.Area, map[int64]int64, error) {
	if m.shouldFail {
		return nil, nil, m.failError
	}
	var areas []*documentDatamodel.Area
	counts := make(map[int64]int64)
	for _, area := range m.areas {
		areas = append(areas, area)
	}
	for _, doc := range m.documents {
		counts[doc.AreaID]++
	}
	return areas, counts, nil
}

func (m *MockRepository) GetAreaByID(_ context.Context, id int64) (*documentDatamodel.Area, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.areas[id], nil
}

func (m *MockRepository) CreateArea(_ context.Context, area *documentDatamodel.Area) error {
	if m.shouldFail {
		return m.failError
	}
	m.nextID++
	area.ID = m.nextID
	m.areas[area.ID] = area
	return nil
}

func (m *MockRepository) UpdateArea(_ context.Context, area *documentDatamodel.Area) error {
	if m.shouldFail {
		return m.failError
	}
	m.areas[area.ID] = area
	return nil
}

func (m *MockRepository) DeleteAreaCascade(_ context.Context, id int64) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var removed int64
	for docID, doc := range m.documents {
		if doc.AreaID == id {
			delete(m.documents, docID)
			delete(m.payloads, docID)
			removed++
		}
	}
	delete(m.areas, id)
	return removed, nil
}

func (m *MockRepository) ListByArea(_ context.Context, areaID int64) ([]*documentDatamodel.Document, error) {
	var docs []*documentDatamodel.Document
	for _, doc := range m.documents {
		if doc.AreaID == areaID {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockRepository) GetByID(_ context.Context, id int64) (*documentDatamodel.Document, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.documents[id], nil
}

func (m *MockRepository) GetPayload(_ context.Context, id int64) (*documentDatamodel.DocumentPayload, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	doc, ok := m.documents[id]
	if !ok {
		return nil, nil
	}
	return &documentDatamodel.DocumentPayload{
		ID:       doc.ID,
		Mimetype: doc.Mimetype,
		Filename: doc.Filename,
		Data:     m.payloads[id],
	}, nil
}

func (m *MockRepository) Create(_ context.Context, doc *documentDatamodel.Document) error {
	if m.shouldFail {
		return m.failError
	}
	m.nextID++
	doc.ID = m.nextID
	m.documents[doc.ID] = doc
	m.payloads[doc.ID] = doc.Data
	return nil
}

func (m *MockRepository) UpdateMetadata(_ context.Context, doc *documentDatamodel.Document) error {
	if m.shouldFail {
		return m.failError
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *MockRepository) ReplacePayload(_ context.Context, doc *documentDatamodel.Document, data []byte) error {
	if m.shouldFail {
		return m.failError
	}
	m.documents[doc.ID] = doc
	m.payloads[doc.ID] = data
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	delete(m.documents, id)
	delete(m.payloads, id)
	return nil
}

type MockRecorder struct {
	actions []string
	details []string
}

func (m *MockRecorder) Record(_ context.Context, action, detail string, _ *internal.SessionUser) {
	m.actions = append(m.actions, action)
	m.details = append(m.details, detail)
}

var _ = Describe("Document Service", func() {
	var (
		repo     *MockRepository
		recorder *MockRecorder
		service  *document.Service
		ctx      context.Context
		actor    *internal.SessionUser
	)

	seedArea := func(id int64, name string) *documentDatamodel.Area {
		area := &documentDatamodel.Area{ID: id, Name: name, Icon: "folder"}
		repo.areas[id] = area
		return area
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		recorder = &MockRecorder{}
		testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = document.NewService(repo, recorder, testLogger)
		actor = &internal.SessionUser{ID: 1, FullName: "Admin"}
	})

	Describe("Areas", func() {
		It("requires a name to create", func() {
			_, err := service.CreateArea(ctx, document.AreaDTO{Name: "  "}, actor)
			Expect(err).To(HaveOccurred())
			Expect(repo.areas).To(BeEmpty())
		})

		It("defaults the icon", func() {
			area, err := service.CreateArea(ctx, document.AreaDTO{Name: "Finanzas"}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(area.Icon).To(Equal("folder"))
			Expect(recorder.actions).To(ContainElement("Gestión Documental"))
		})

		It("cascades a delete over the documents and reports the count", func() {
			seedArea(1, "Finanzas")
			_, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "balance.pdf", Data: []byte("%PDF-1.4 uno"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Presupuesto", Filename: "ppto.pdf", Data: []byte("%PDF-1.4 dos"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteArea(ctx, 1, actor)).To(Succeed())
			Expect(repo.documents).To(BeEmpty())
			Expect(recorder.details).To(ContainElement(ContainSubstring("2 documento(s)")))
		})

		It("refuses to delete a missing area", func() {
			err := service.DeleteArea(ctx, 404, actor)
			Expect(err).To(MatchError(internal.ErrAreaNotFound))
		})
	})

	Describe("UploadDocument", func() {
		BeforeEach(func() {
			seedArea(1, "Finanzas")
		})

		It("accepts an uppercase .PDF extension", func() {
			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "BALANCE.PDF", Data: []byte("%PDF-1.4"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Mimetype).To(Equal("application/pdf"))
		})

		It("rejects other extensions without creating a row", func() {
			_, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "balance.docx", Data: []byte("PK"),
			}, actor)
			Expect(err).To(HaveOccurred())
			Expect(repo.documents).To(BeEmpty())
		})

		It("rejects a missing title", func() {
			_, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Filename: "balance.pdf", Data: []byte("%PDF-1.4"),
			}, actor)
			Expect(err).To(HaveOccurred())
		})

		It("stores size and the SHA-256 of the raw bytes", func() {
			data := make([]byte, 500)
			for i := range data {
				data[i] = byte(i % 251)
			}
			digest := sha256.Sum256(data)

			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "balance.pdf", Data: data,
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.SizeBytes).To(Equal(int64(500)))
			Expect(doc.SHA256).To(Equal(hex.EncodeToString(digest[:])))
		})

		It("sanitizes hostile filenames", func() {
			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "../../etc/pass wd.pdf", Data: []byte("%PDF-1.4"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Filename).NotTo(ContainSubstring("/"))
			Expect(doc.Filename).NotTo(ContainSubstring(" "))
		})
	})

	Describe("EditDocument", func() {
		var docID int64

		BeforeEach(func() {
			seedArea(1, "Finanzas")
			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Version: "v1", Filename: "balance.pdf", Data: []byte("original"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			docID = doc.ID
		})

		It("updates texts only when no file is attached", func() {
			doc, warning, err := service.EditDocument(ctx, docID, document.EditDocumentDTO{
				Title: "Balance 2026", Version: "v2",
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(warning).To(BeEmpty())
			Expect(doc.Title).To(Equal("Balance 2026"))
			Expect(repo.payloads[docID]).To(Equal([]byte("original")))
		})

		It("replaces the payload and digest for a valid PDF", func() {
			doc, warning, err := service.EditDocument(ctx, docID, document.EditDocumentDTO{
				Title: "Balance", Filename: "nuevo.pdf", Data: []byte("reemplazo"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(warning).To(BeEmpty())
			digest := sha256.Sum256([]byte("reemplazo"))
			Expect(doc.SHA256).To(Equal(hex.EncodeToString(digest[:])))
			Expect(repo.payloads[docID]).To(Equal([]byte("reemplazo")))
		})

		It("keeps the old payload but updates texts for an invalid file", func() {
			doc, warning, err := service.EditDocument(ctx, docID, document.EditDocumentDTO{
				Title: "Balance 2026", Filename: "nuevo.docx", Data: []byte("PK"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(warning).NotTo(BeEmpty())
			Expect(doc.Title).To(Equal("Balance 2026"))
			Expect(repo.payloads[docID]).To(Equal([]byte("original")))
		})

		It("still requires a title", func() {
			_, _, err := service.EditDocument(ctx, docID, document.EditDocumentDTO{}, actor)
			Expect(err).To(HaveOccurred())
		})

		It("applies sequential edits by different actors whole, last write winning", func() {
			director := &internal.SessionUser{ID: 9, FullName: "Director Zonal"}

			_, _, err := service.EditDocument(ctx, docID, document.EditDocumentDTO{
				Title: "Balance Q1", Version: "v2", Description: "primer ajuste",
			}, actor)
			Expect(err).NotTo(HaveOccurred())

			_, warning, err := service.EditDocument(ctx, docID, document.EditDocumentDTO{
				Title: "Balance Q2", Version: "v3", Description: "segundo ajuste",
				Filename: "cierre-q2.pdf", Data: []byte("cierre q2"),
			}, director)
			Expect(err).NotTo(HaveOccurred())
			Expect(warning).To(BeEmpty())

			stored := repo.documents[docID]
			Expect(stored.Title).To(Equal("Balance Q2"))
			Expect(stored.Version).To(Equal("v3"))
			Expect(stored.Description).To(Equal("segundo ajuste"))
			digest := sha256.Sum256([]byte("cierre q2"))
			Expect(stored.SHA256).To(Equal(hex.EncodeToString(digest[:])))
			Expect(repo.payloads[docID]).To(Equal([]byte("cierre q2")))
		})
	})

	Describe("ServeDocument", func() {
		It("returns not found for a missing row", func() {
			_, err := service.ServeDocument(ctx, 404)
			Expect(err).To(MatchError(internal.ErrDocNotFound))
		})

		It("returns not found for an empty payload", func() {
			seedArea(1, "Finanzas")
			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "balance.pdf", Data: []byte("x"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())
			repo.payloads[doc.ID] = nil

			_, err = service.ServeDocument(ctx, doc.ID)
			Expect(err).To(MatchError(internal.ErrDocNotFound))
		})

		It("serves the stored bytes with the stored mimetype", func() {
			seedArea(1, "Finanzas")
			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "balance.pdf", Data: []byte("%PDF-1.4 contenido"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())

			payload, err := service.ServeDocument(ctx, doc.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.Data).To(Equal([]byte("%PDF-1.4 contenido")))
			Expect(payload.Mimetype).To(Equal("application/pdf"))
			Expect(payload.Filename).To(Equal("balance.pdf"))
		})
	})

	Describe("DeleteDocument", func() {
		It("audits with the document title", func() {
			seedArea(1, "Finanzas")
			doc, err := service.UploadDocument(ctx, 1, document.UploadDocumentDTO{
				Title: "Balance", Filename: "balance.pdf", Data: []byte("x"),
			}, actor)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteDocument(ctx, doc.ID, actor)).To(Succeed())
			Expect(repo.documents).To(BeEmpty())
			Expect(recorder.details).To(ContainElement(ContainSubstring("'Balance'")))
		})
	})
})
