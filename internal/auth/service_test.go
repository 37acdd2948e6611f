package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/auth"
	identityDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/identity"
	sessionDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/document-repository/internal/core/datamodel/user"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

// MockRepository implements the identity, local user and session interfaces
// for testing
type MockRepository struct {
	identities map[string]*identityDatamodel.GlobalUser
	users      map[int64]*userDatamodel.User
	sessions   map[string]*sessionDatamodel.Session
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		identities: make(map[string]*identityDatamodel.GlobalUser),
		users:      make(map[int64]*userDatamodel.User),
		sessions:   make(map[string]*sessionDatamodel.Session),
	}
}

func (m *MockRepository) GetByEmail(_ context.Context, email string) (*identityDatamodel.GlobalUser, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.identities[email], nil
}

func (m *MockRepository) GetByResetToken(_ context.Context, token string) (*identityDatamodel.GlobalUser, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, identity := range m.identities {
		if identity.ResetToken != nil && *identity.ResetToken == token {
			return identity, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) SetResetToken(_ context.Context, id int64, token string, expiresAt time.Time) error {
	if m.shouldFail {
		return m.failError
	}
	for _, identity := range m.identities {
		if identity.ID == id {
			identity.ResetToken = &token
			identity.ResetTokenExpiresAt = &expiresAt
		}
	}
	return nil
}

func (m *MockRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if m.shouldFail {
		return m.failError
	}
	for _, identity := range m.identities {
		if identity.ID == id {
			identity.PasswordHash = passwordHash
			identity.PasswordChangeDue = false
			identity.ResetToken = nil
			identity.ResetTokenExpiresAt = nil
		}
	}
	return nil
}

func (m *MockRepository) GetByGlobalUserID(_ context.Context, globalUserID int64) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.GlobalUserID == globalUserID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) GetByID(_ context.Context, id int64) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.users[id], nil
}

func (m *MockRepository) Create(_ context.Context, s *sessionDatamodel.Session) error {
	if m.shouldFail {
		return m.failError
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MockRepository) GetSessionByID(_ context.Context, id string) (*sessionDatamodel.Session, error) {
	return m.sessions[id], nil
}

func (m *MockRepository) Revoke(_ context.Context, id string) error {
	if m.shouldFail {
		return m.failError
	}
	if s, ok := m.sessions[id]; ok {
		s.Revoked = true
	}
	return nil
}

// sessionRepo adapts MockRepository to the SessionRepository interface, whose
// GetByID clashes with the local user method of the same name.
type sessionRepo struct{ m *MockRepository }

func (r sessionRepo) Create(ctx context.Context, s *sessionDatamodel.Session) error {
	return r.m.Create(ctx, s)
}

func (r sessionRepo) GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error) {
	return r.m.GetSessionByID(ctx, id)
}

func (r sessionRepo) Revoke(ctx context.Context, id string) error {
	return r.m.Revoke(ctx, id)
}

type MockMailer struct {
	sentTo    []string
	lastLink  string
	shouldErr bool
}

func (m *MockMailer) SendPasswordReset(email, _, link string) error {
	if m.shouldErr {
		return errors.New("smtp down")
	}
	m.sentTo = append(m.sentTo, email)
	m.lastLink = link
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

var _ = Describe("Auth Service", func() {
	var (
		repo     *MockRepository
		mailer   *MockMailer
		recorder *MockRecorder
		service  *auth.Service
		ctx      context.Context
	)

	hash := func(password string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		return string(h)
	}

	seedIdentity := func(id int64, email, password string, active bool) *identityDatamodel.GlobalUser {
		identity := &identityDatamodel.GlobalUser{
			ID:           id,
			FullName:     "Juana Pérez",
			Email:        email,
			PasswordHash: hash(password),
			IsActive:     active,
		}
		repo.identities[email] = identity
		return identity
	}

	seedLocal := func(id, globalID int64, role string, active bool) *userDatamodel.User {
		u := &userDatamodel.User{
			ID:           id,
			GlobalUserID: globalID,
			RoleID:       1,
			IsActive:     active,
			Role:         &userDatamodel.Role{ID: 1, Name: role},
		}
		repo.users[id] = u
		return u
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		mailer = &MockMailer{}
		recorder = &MockRecorder{}
		testLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		codec := auth.NewSessionCodec("test-secret-that-is-long-enough-123", time.Hour)
		service = auth.NewService(repo, repo, sessionRepo{repo}, codec, recorder, mailer, testLogger, bcrypt.MinCost, time.Hour, "http://localhost:8080")
	})

	Describe("Login", func() {
		It("rejects an unknown email with the generic credential error", func() {
			_, _, err := service.Login(ctx, auth.LoginDTO{Email: "nadie@empresa.cl", Password: "x"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects a wrong password with the same generic error", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			_, _, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "otra"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an inactive identity after the password check", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", false)
			_, _, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).To(MatchError(internal.ErrAccountInactive))
		})

		It("distinguishes a missing local account from bad credentials", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			_, _, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).To(MatchError(internal.ErrNoRepositoryAccess))
		})

		It("rejects a deactivated local account", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			seedLocal(10, 1, userDatamodel.RoleViewer, false)
			_, _, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).To(MatchError(internal.ErrNoRepositoryAccess))
		})

		It("creates a session and records the login", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			seedLocal(10, 1, userDatamodel.RoleAdmin, true)

			sessionUser, token, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(sessionUser.RoleName).To(Equal("Admin"))
			Expect(sessionUser.FullName).To(Equal("Juana Pérez"))
			Expect(repo.sessions).To(HaveLen(1))
			Expect(recorder.actions).To(ContainElement("Inicio de Sesión"))
		})

		It("resolves the issued token back to the same session user", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			seedLocal(10, 1, userDatamodel.RoleDirector, true)

			_, token, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).NotTo(HaveOccurred())

			resolved, err := service.ResolveSession(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.ID).To(Equal(int64(10)))
			Expect(resolved.RoleName).To(Equal("Director"))
		})
	})

	Describe("ResolveSession", func() {
		It("rejects garbage tokens", func() {
			_, err := service.ResolveSession(ctx, "not-a-jwt")
			Expect(err).To(MatchError(internal.ErrInvalidSession))
		})

		It("rejects a revoked session", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			local := seedLocal(10, 1, userDatamodel.RoleViewer, true)

			sessionUser, token, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Logout(ctx, sessionUser)).To(Succeed())
			_, err = service.ResolveSession(ctx, token)
			Expect(err).To(MatchError(internal.ErrInvalidSession))
			Expect(local.IsActive).To(BeTrue())
		})

		It("rejects a session whose user was deactivated afterwards", func() {
			seedIdentity(1, "juana@empresa.cl", "Correcta.123", true)
			local := seedLocal(10, 1, userDatamodel.RoleViewer, true)

			_, token, err := service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Correcta.123"})
			Expect(err).NotTo(HaveOccurred())

			local.IsActive = false
			_, err = service.ResolveSession(ctx, token)
			Expect(err).To(MatchError(internal.ErrInvalidSession))
		})
	})

	Describe("ChangePassword", func() {
		var actor *internal.SessionUser

		BeforeEach(func() {
			seedIdentity(1, "juana@empresa.cl", "Vieja.123", true)
			seedLocal(10, 1, userDatamodel.RoleViewer, true)
			var err error
			actor, _, err = service.Login(ctx, auth.LoginDTO{Email: "juana@empresa.cl", Password: "Vieja.123"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a password without uppercase or digits", func() {
			err := service.ChangePassword(ctx, actor, auth.ChangePasswordDTO{NewPassword: "abcdefgh"})
			Expect(err).To(MatchError(internal.ErrWeakPassword))
		})

		It("rejects mismatched confirmation", func() {
			err := service.ChangePassword(ctx, actor, auth.ChangePasswordDTO{NewPassword: "Abcdef12", ConfirmPassword: "Abcdef13"})
			Expect(err).To(MatchError(internal.ErrPasswordMismatch))
		})

		It("rotates the hash, clears the forced flag and revokes the session", func() {
			repo.identities["juana@empresa.cl"].PasswordChangeDue = true

			err := service.ChangePassword(ctx, actor, auth.ChangePasswordDTO{NewPassword: "Abcdef12", ConfirmPassword: "Abcdef12"})
			Expect(err).NotTo(HaveOccurred())

			identity := repo.identities["juana@empresa.cl"]
			Expect(identity.PasswordChangeDue).To(BeFalse())
			Expect(bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("Abcdef12"))).To(Succeed())
			Expect(repo.sessions[actor.SessionID].Revoked).To(BeTrue())
			Expect(recorder.actions).To(ContainElement("Cambio de Clave"))
		})
	})

	Describe("RequestReset", func() {
		It("reports an unregistered address without sending mail", func() {
			msg, err := service.RequestReset(ctx, auth.ResetRequestDTO{Email: "nadie@empresa.cl"})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("El correo nadie@empresa.cl no está registrado."))
			Expect(mailer.sentTo).To(BeEmpty())
		})

		It("stores a token and mails the link for a registered address", func() {
			identity := seedIdentity(1, "juana@empresa.cl", "Vieja.123", true)

			msg, err := service.RequestReset(ctx, auth.ResetRequestDTO{Email: "juana@empresa.cl"})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(ContainSubstring("Se ha enviado un enlace"))
			Expect(identity.ResetToken).NotTo(BeNil())
			Expect(*identity.ResetToken).To(HaveLen(32))
			Expect(mailer.lastLink).To(Equal("http://localhost:8080/resetear-clave/" + *identity.ResetToken))
		})

		It("surfaces a mailer failure as an internal error", func() {
			seedIdentity(1, "juana@empresa.cl", "Vieja.123", true)
			mailer.shouldErr = true

			_, err := service.RequestReset(ctx, auth.ResetRequestDTO{Email: "juana@empresa.cl"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ResetPassword", func() {
		It("rejects an unknown token", func() {
			err := service.ResetPassword(ctx, "deadbeef", auth.ChangePasswordDTO{NewPassword: "Abcdef12"})
			Expect(err).To(MatchError(internal.ErrInvalidResetToken))
		})

		It("rejects a token that expired one second ago", func() {
			identity := seedIdentity(1, "juana@empresa.cl", "Vieja.123", true)
			token := "aaaabbbbccccddddeeeeffff00001111"
			expired := internal.NowChile().Add(-time.Second)
			identity.ResetToken = &token
			identity.ResetTokenExpiresAt = &expired

			err := service.ResetPassword(ctx, token, auth.ChangePasswordDTO{NewPassword: "Abcdef12"})
			Expect(err).To(MatchError(internal.ErrInvalidResetToken))
		})

		It("accepts a live token, rotates the hash and clears the token", func() {
			identity := seedIdentity(1, "juana@empresa.cl", "Vieja.123", true)
			token := "aaaabbbbccccddddeeeeffff00001111"
			expiry := internal.NowChile().Add(30 * time.Minute)
			identity.ResetToken = &token
			identity.ResetTokenExpiresAt = &expiry

			err := service.ResetPassword(ctx, token, auth.ChangePasswordDTO{NewPassword: "Abcdef12"})
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.ResetToken).To(BeNil())
			Expect(bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("Abcdef12"))).To(Succeed())
			Expect(recorder.actions).To(ContainElement("Recuperación Clave"))
		})
	})
})

var _ = Describe("IsStrongPassword", func() {
	It("requires length, an uppercase letter and a digit", func() {
		Expect(auth.IsStrongPassword("abcdefgh")).To(BeFalse())
		Expect(auth.IsStrongPassword("ABCDEFGH")).To(BeFalse())
		Expect(auth.IsStrongPassword("Abcdef1")).To(BeFalse())
		Expect(auth.IsStrongPassword("Abcdef12")).To(BeTrue())
		Expect(auth.IsStrongPassword("Ñandú123")).To(BeTrue())
	})
})
