package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/tinysteps/report-service/internal/domain/entities"
	"github.com/tinysteps/report-service/internal/domain/providers"
	"github.com/tinysteps/report-service/internal/infrastructure/clients/upstream"
	"github.com/tinysteps/report-service/internal/infrastructure/observability"
	"github.com/tinysteps/report-service/pkg/resilience"
)

// PatientLookup resolves patient records
type PatientLookup interface {
	GetByID(ctx context.Context, id string) (*upstream.Patient, error)
}

// DoctorLookup resolves doctor records
type DoctorLookup interface {
	GetByID(ctx context.Context, id string) (*upstream.Doctor, error)
}

// UserLookup resolves user accounts
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*upstream.User, error)
}

// SessionLookup resolves session types and offerings
type SessionLookup interface {
	GetSessionType(ctx context.Context, id string) (*upstream.SessionType, error)
	GetSessionOffering(ctx context.Context, id string) (*upstream.SessionOffering, error)
}

// EnrichmentDeps bundles the registry entries the enrichment lookups run
// against
type EnrichmentDeps struct {
	Patient *resilience.Dependency
	Doctor  *resilience.Dependency
	User    *resilience.Dependency
	Session *resilience.Dependency
}

// EnrichmentService resolves display fields on appointments through
// resilient upstream lookups. Every lookup failure degrades to a
// deterministic fallback embedding the foreign key, so enrichment can never
// fail a report.
type EnrichmentService struct {
	deps     EnrichmentDeps
	patients PatientLookup
	doctors  DoctorLookup
	users    UserLookup
	sessions SessionLookup
	cache    providers.CacheProvider
	cacheTTL int
	workers  int
	metrics  *observability.Metrics
}

// NewEnrichmentService creates a new enrichment service. cache may be nil to
// disable name memoization; workers bounds batch concurrency.
func NewEnrichmentService(
	deps EnrichmentDeps,
	patients PatientLookup,
	doctors DoctorLookup,
	users UserLookup,
	sessions SessionLookup,
	cache providers.CacheProvider,
	cacheTTLSeconds int,
	workers int,
	metrics *observability.Metrics,
) *EnrichmentService {
	if workers <= 0 {
		workers = 8
	}
	return &EnrichmentService{
		deps:     deps,
		patients: patients,
		doctors:  doctors,
		users:    users,
		sessions: sessions,
		cache:    cache,
		cacheTTL: cacheTTLSeconds,
		workers:  workers,
		metrics:  metrics,
	}
}

// Enrich populates the display fields of one appointment. Each field
// resolves independently; a failed lookup only degrades its own field.
func (s *EnrichmentService) Enrich(ctx context.Context, appt *entities.Appointment) {
	appt.PatientName = s.resolvePatientName(ctx, appt.PatientID)
	appt.DoctorName = s.resolveDoctorName(ctx, appt.DoctorID)
	appt.SessionTypeName = s.resolveSessionTypeName(ctx, appt.SessionTypeID)
	appt.SessionOfferingPrice = s.resolveOfferingPrice(ctx, appt.SessionOfferingID)
	appt.DurationFormatted = appt.FormatDuration()
}

// EnrichBatch enriches all appointments with bounded concurrency. The input
// slice is returned with every element enriched; the batch never fails.
func (s *EnrichmentService) EnrichBatch(ctx context.Context, appointments []*entities.Appointment) []*entities.Appointment {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, appt := range appointments {
		wg.Add(1)
		sem <- struct{}{}
		go func(a *entities.Appointment) {
			defer wg.Done()
			defer func() { <-sem }()
			s.Enrich(ctx, a)
		}(appt)
	}

	wg.Wait()
	return appointments
}

// resolvePatientName chains patient -> user to find a display name. The
// patient record itself carries no name; it lives on the linked account.
func (s *EnrichmentService) resolvePatientName(ctx context.Context, patientID string) string {
	if patientID == "" {
		return ""
	}
	fallback := fmt.Sprintf("Patient ID: %s", patientID)

	if name, ok := s.cachedName(ctx, "patient", patientID); ok {
		return name
	}

	patientOut := resilience.Invoke(ctx, s.deps.Patient, func(ctx context.Context) (*upstream.Patient, error) {
		return s.patients.GetByID(ctx, patientID)
	})
	recordLookup(ctx, s.metrics, resilience.DepPatient, patientOut)
	if !patientOut.OK() || patientOut.Value.UserID == "" {
		return fallback
	}

	userOut := resilience.Invoke(ctx, s.deps.User, func(ctx context.Context) (*upstream.User, error) {
		return s.users.GetByID(ctx, patientOut.Value.UserID)
	})
	recordLookup(ctx, s.metrics, resilience.DepUser, userOut)
	if !userOut.OK() {
		return fallback
	}

	name := userOut.Value.FullName
	if name == "" {
		name = userOut.Value.Email
	}
	if name == "" {
		return fallback
	}

	s.storeName(ctx, "patient", patientID, name)
	return name
}

func (s *EnrichmentService) resolveDoctorName(ctx context.Context, doctorID string) string {
	if doctorID == "" {
		return ""
	}
	fallback := fmt.Sprintf("Doctor ID: %s", doctorID)

	if name, ok := s.cachedName(ctx, "doctor", doctorID); ok {
		return name
	}

	out := resilience.Invoke(ctx, s.deps.Doctor, func(ctx context.Context) (*upstream.Doctor, error) {
		return s.doctors.GetByID(ctx, doctorID)
	})
	recordLookup(ctx, s.metrics, resilience.DepDoctor, out)
	if !out.OK() || out.Value.FullName == "" {
		return fallback
	}

	s.storeName(ctx, "doctor", doctorID, out.Value.FullName)
	return out.Value.FullName
}

func (s *EnrichmentService) resolveSessionTypeName(ctx context.Context, sessionTypeID string) string {
	if sessionTypeID == "" {
		return ""
	}
	fallback := fmt.Sprintf("Session Type ID: %s", sessionTypeID)

	if name, ok := s.cachedName(ctx, "session-type", sessionTypeID); ok {
		return name
	}

	out := resilience.Invoke(ctx, s.deps.Session, func(ctx context.Context) (*upstream.SessionType, error) {
		return s.sessions.GetSessionType(ctx, sessionTypeID)
	})
	recordLookup(ctx, s.metrics, resilience.DepSession, out)
	if !out.OK() || out.Value.Name == "" {
		return fallback
	}

	s.storeName(ctx, "session-type", sessionTypeID, out.Value.Name)
	return out.Value.Name
}

func (s *EnrichmentService) resolveOfferingPrice(ctx context.Context, offeringID string) string {
	const fallback = "N/A"
	if offeringID == "" {
		return fallback
	}

	if price, ok := s.cachedName(ctx, "offering-price", offeringID); ok {
		return price
	}

	out := resilience.Invoke(ctx, s.deps.Session, func(ctx context.Context) (*upstream.SessionOffering, error) {
		return s.sessions.GetSessionOffering(ctx, offeringID)
	})
	recordLookup(ctx, s.metrics, resilience.DepSession, out)
	if !out.OK() {
		return fallback
	}

	price := fmt.Sprintf("$%.2f", out.Value.Price)
	s.storeName(ctx, "offering-price", offeringID, price)
	return price
}

func (s *EnrichmentService) cachedName(ctx context.Context, kind, id string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, err := s.cache.Get(ctx, enrichCacheKey(kind, id))
	if err != nil || len(value) == 0 {
		if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, kind)
		}
		return "", false
	}
	if s.metrics != nil {
		observability.RecordCacheHit(ctx, s.metrics, kind)
	}
	return string(value), true
}

func (s *EnrichmentService) storeName(ctx context.Context, kind, id, name string) {
	if s.cache == nil {
		return
	}
	// Best effort; a cache write failure never affects enrichment.
	_ = s.cache.Set(ctx, enrichCacheKey(kind, id), []byte(name), s.cacheTTL)
}

// recordLookup counts one resilient lookup by outcome
func recordLookup[T any](ctx context.Context, metrics *observability.Metrics, dep string, out resilience.Outcome[T]) {
	if metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case out.NotFound():
		outcome = "not_found"
	case !out.OK():
		outcome = string(out.Err.Kind)
	}
	observability.RecordUpstreamCall(ctx, metrics, dep, outcome, out.Attempts)
}

func enrichCacheKey(kind, id string) string {
	return fmt.Sprintf("enrich:%s:%s", kind, id)
}
