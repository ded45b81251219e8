package user

import (
	"context"
	"errors"
	"strings"

	"usergate.org/internal/errs"
	"usergate.org/internal/idp"
	"usergate.org/internal/stream"
)

const defaultGroup = "USER"

// Service orchestrates user lifecycle across the identity provider and the
// local store. The provider is the source of truth for identity and
// credentials; the local store is a secondary profile index. Every mutation
// therefore writes to the provider first: an orphaned provider identity (no
// local row) is recoverable by reconciliation, while a local row pointing at
// a missing identity would advertise an account that cannot authenticate.
type Service struct {
	provider idp.Provider
	store    Store
	group    string
	events   *stream.Stream
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithDefaultGroup overrides the provider group assigned at creation.
func WithDefaultGroup(group string) ServiceOption {
	return func(s *Service) {
		if strings.TrimSpace(group) != "" {
			s.group = group
		}
	}
}

// WithEvents publishes lifecycle events (including orphaned identities) to
// the given stream.
func WithEvents(events *stream.Stream) ServiceOption {
	return func(s *Service) { s.events = events }
}

// NewService constructs the lifecycle orchestrator.
func NewService(provider idp.Provider, store Store, opts ...ServiceOption) *Service {
	s := &Service{provider: provider, store: store, group: defaultGroup}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers the identity with the provider, assigns the default
// group, then persists the local record carrying the provider-issued
// external id. Ordered steps; no step runs before the previous committed:
//
//  1. provider registration — on failure nothing local exists, the
//     translated kind is returned as-is;
//  2. group assignment — on failure the identity already exists upstream,
//     so the error surfaces as a partial create carrying the external id;
//  3. local persistence — same partial-create surfacing on failure.
//
// The orchestrator never compensates by deleting the provider identity:
// a single attempt per external call, orphans are left for reconciliation.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	email := normalizeEmail(in.Email)

	externalID, err := s.provider.Register(ctx, in.Name, in.LastName, email, in.Phone)
	if err != nil {
		if externalID != "" {
			// Registration committed but a follow-up provider step
			// failed; the identity is already orphaned.
			return User{}, s.orphan(externalID, email, err)
		}
		return User{}, err
	}

	if err := s.provider.AddToGroup(ctx, email, s.group); err != nil {
		return User{}, s.orphan(externalID, email, err)
	}

	saved, err := s.store.Save(ctx, User{
		ExternalID: externalID,
		Name:       in.Name,
		LastName:   in.LastName,
		Email:      email,
		Phone:      in.Phone,
		Role:       s.group,
	})
	if err != nil {
		return User{}, s.orphan(externalID, email, err)
	}

	s.publish(stream.EventUserCreated, saved.ExternalID, saved.Email)
	return saved, nil
}

// Update looks up the local record, updates provider-side attributes, then
// updates the local record only if the provider accepted the change. On any
// provider failure the local record is left untouched.
func (s *Service) Update(ctx context.Context, externalID string, in UpdateInput) (User, error) {
	current, err := s.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return User{}, translateStore(err)
	}

	email := normalizeEmail(in.Email)
	if err := s.provider.UpdateAttributes(ctx, externalID, in.Name, in.LastName, email, in.Phone); err != nil {
		return User{}, err
	}

	current.Name = in.Name
	current.LastName = in.LastName
	current.Email = email
	current.Phone = in.Phone

	updated, err := s.store.Update(ctx, current)
	if err != nil {
		return User{}, translateStore(err)
	}

	s.publish(stream.EventUserUpdated, updated.ExternalID, updated.Email)
	return updated, nil
}

// Delete removes the provider identity first, then the local record. A
// provider-side "user not found" means the goal state is already reached
// upstream, so the local delete still proceeds; any other provider failure
// aborts with both sides intact.
func (s *Service) Delete(ctx context.Context, externalID string) error {
	current, err := s.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return translateStore(err)
	}

	// The provider addresses identities by username, which is the email.
	if err := s.provider.Delete(ctx, current.Email); err != nil {
		if !errs.IsKind(err, errs.NotFound) {
			return err
		}
	}

	if err := s.store.Delete(ctx, externalID); err != nil {
		return translateStore(err)
	}

	s.publish(stream.EventUserDeleted, externalID, current.Email)
	return nil
}

// GetByExternalID is a pure local read.
func (s *Service) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	u, err := s.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return User{}, translateStore(err)
	}
	return u, nil
}

// List returns one zero-based page of local records. Pages past the end are
// empty, not an error.
func (s *Service) List(ctx context.Context, page, size int) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	users, total, err := s.store.List(ctx, page*size, size)
	if err != nil {
		return Page{}, translateStore(err)
	}
	if users == nil {
		users = []User{}
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return Page{
		Users:         users,
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   page,
		PageSize:      size,
	}, nil
}

func (s *Service) orphan(externalID, email string, cause error) error {
	s.publish(stream.EventIdentityOrphan, externalID, email)
	return errs.PartialCreateError(externalID, cause)
}

func (s *Service) publish(eventType, externalID, email string) {
	if s.events == nil {
		return
	}
	s.events.Publish(stream.Event{Type: eventType, ExternalID: externalID, Email: email})
}

// translateStore maps store sentinels to normalized kinds. A record that
// vanished between lookup and mutation is externally observable as "the
// resource is gone", so it reports as not-found rather than internal.
func translateStore(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errs.Wrap(errs.NotFound, "user not found", err)
	case errors.Is(err, ErrDuplicateEmail):
		return errs.Wrap(errs.DuplicateAttribute, "email already in use", err)
	case errors.Is(err, ErrDuplicateExternalID):
		return errs.Wrap(errs.DuplicateAttribute, "external id already in use", err)
	default:
		return errs.Wrap(errs.UpstreamIdentity, "user store failure", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
