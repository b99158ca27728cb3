package testfixtures

import (
	"log/slog"
	"time"

	"github.com/joscoffee/timeclock/internal/application"
)

// AdminSecret is the shared admin secret configured by ServiceFactory.
const AdminSecret = "let-me-in"

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Secret      string
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with a ticking clock, an
// "id" generator and AdminSecret.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewTickingClock(time.Time{}, time.Minute),
		IDGenerator: NewIDGenerator("id"),
		Secret:      AdminSecret,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithSecret overrides the admin secret. An empty secret leaves the gate unconfigured.
func WithSecret(secret string) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Secret = secret
	}
}

// PunchServiceDeps captures dependencies for constructing a punch service.
type PunchServiceDeps struct {
	Roster      application.RosterReader
	Ledger      application.ShiftLedger
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewPunchService builds a punch service, filling ids and time from the factory.
func (f *ServiceFactory) NewPunchService(deps PunchServiceDeps) *application.PunchService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewPunchServiceWithLogger(deps.Roster, deps.Ledger, idGen, now, deps.Logger)
}

// RosterServiceDeps captures dependencies for constructing a roster service.
type RosterServiceDeps struct {
	Employees   application.RosterRepository
	History     application.PunchHistoryReader
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRosterService builds a roster service gated by the factory secret.
func (f *ServiceFactory) NewRosterService(deps RosterServiceDeps) *application.RosterService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	gate := application.NewAccessGateWithLogger(f.Secret, deps.Logger)
	return application.NewRosterServiceWithLogger(gate, deps.Employees, deps.History, idGen, now, deps.Logger)
}
