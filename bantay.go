package bantay

import (
	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"github.com/lborres/bantay/pkg/metrics"
	"github.com/lborres/bantay/services"
	"github.com/sirupsen/logrus"
)

// interfaces
type (
	UserStorage = core.UserStorage
	HTTPAdapter = core.HTTPAdapter

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	SessionConfig = core.SessionConfig
	Handlers      = core.Handlers
)

type (
	User       = core.User
	PublicUser = core.PublicUser
	Role       = core.Role
	Rejection  = core.Rejection
)

const (
	RoleUser  = core.RoleUser
	RoleAdmin = core.RoleAdmin
)

const defaultBasePath = "/api"

// Constructors & helpers (convenience re-exports)
var (
	NewBcrypt            = crypto.NewBcrypt
	NewArgon2            = crypto.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
	RejectionFor         = core.RejectionFor
)

var (
	ErrUserExists         = core.ErrUserExists
	ErrUserNotFound       = core.ErrUserNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
)

var (
	ErrNotAuthenticated = core.ErrNotAuthenticated
	ErrInvalidToken     = core.ErrInvalidToken
	ErrSessionExpired   = core.ErrSessionExpired
	ErrForbidden        = core.ErrForbidden
)

var (
	ErrStoreRequired       = core.ErrStoreRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
)

type Config struct {
	// Secret signs session tokens. At least 32 bytes.
	Secret string

	Store UserStorage
	HTTP  HTTPAdapter

	// Session defaults to DefaultSessionConfig.
	Session *SessionConfig

	// PasswordHasher hashes new passwords. Defaults to bcrypt at cost 12;
	// digests of the other scheme still verify.
	PasswordHasher PasswordHandler
	// HashConcurrency caps simultaneous hash and verify work. Defaults to
	// GOMAXPROCS.
	HashConcurrency int

	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
	BasePath string
}

// Bantay holds the wired services. Adapters receive them through
// HTTP.RegisterRoutes; callers keep them for custom routes.
type Bantay struct {
	Tokens  *services.TokenService
	Records *services.UserRecords
	Auth    *services.AuthService
	Guard   *services.GuardService
	Profile *services.ProfileService
	Admin   *services.AdminService

	Session  SessionConfig
	BasePath string
}

func New(config Config) (*Bantay, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	session := DefaultSessionConfig()
	if config.Session != nil {
		session = *config.Session
		if session.CookieName == "" {
			session.CookieName = core.DefaultCookieName
		}
	}

	log := config.Logger
	if log == nil {
		log = logrus.New()
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	tokens, err := services.NewTokenService([]byte(config.Secret), session.TTL)
	if err != nil {
		return nil, err
	}

	hasherOpts := []crypto.HasherOption{crypto.WithConcurrency(config.HashConcurrency)}
	if config.Metrics != nil {
		hasherOpts = append(hasherOpts, crypto.WithObserver(config.Metrics))
	}
	hasher := crypto.NewHasher(config.PasswordHasher, hasherOpts...)

	records := services.NewUserRecords(config.Store, hasher)
	b := &Bantay{
		Tokens:   tokens,
		Records:  records,
		Auth:     services.NewAuthService(config.Store, records, tokens, log),
		Guard:    services.NewGuardService(tokens, config.Store, log),
		Profile:  services.NewProfileService(config.Store, records, log),
		Admin:    services.NewAdminService(config.Store, records, log),
		Session:  session,
		BasePath: basePath,
	}

	if err := config.HTTP.RegisterRoutes(b.Handlers()); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Bantay) Handlers() Handlers {
	return Handlers{
		Auth:     b.Auth,
		Guard:    b.Guard,
		Profile:  b.Profile,
		Admin:    b.Admin,
		Session:  b.Session,
		BasePath: b.BasePath,
	}
}
