package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/registers/internal/config"
	"github.com/JonMunkholm/registers/internal/logging"
)

// ErrFileTooLarge is returned when an import file exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// Service provides the business logic for both collections.
type Service struct {
	store      Store
	reconciler *Reconciler
	limiter    *ImportLimiter
	now        func() time.Time

	owners      []string
	ruleOwner   string
	maxFileSize int64

	actions  *Cache[ActionEntry]
	register *Cache[RegisterEntry]

	actionValidator   *Validator
	registerValidator *Validator

	// createMu serializes creates so sequence numbers stay unique within
	// this process.
	createMu sync.Mutex
}

// NewService creates a Service over store. Caches are empty until the first
// read or an explicit Refresh.
func NewService(store Store, cfg *config.Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("new service: store is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("new service: config is required")
	}

	actionsDef, err := Lookup(ActionsKey)
	if err != nil {
		return nil, err
	}
	registerDef, err := Lookup(RegisterKey)
	if err != nil {
		return nil, err
	}

	ruleOwner := cfg.Registers.RuleOwner
	if ruleOwner == "" {
		ruleOwner = OwnerUnassigned
	}
	// Seeded rules must stay editable, so their owner is always assignable.
	owners := ownerList(slices.Concat(cfg.Registers.Owners, []string{ruleOwner}))

	s := &Service{
		store:       store,
		reconciler:  NewReconciler(store),
		limiter:     NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		now:         time.Now,
		owners:      owners,
		ruleOwner:   ruleOwner,
		maxFileSize: cfg.Import.MaxFileSize,
		actionValidator: NewValidator(actionsDef, map[string][]string{
			"owner": owners,
		}),
		registerValidator: NewValidator(registerDef, nil),
	}
	s.actions = NewCache(s.loadActions)
	s.register = NewCache(s.loadRegister)

	return s, nil
}

// ownerList returns the configured owners with OwnerUnassigned last.
func ownerList(configured []string) []string {
	owners := make([]string, 0, len(configured)+1)
	for _, o := range CleanList(configured) {
		if o != OwnerUnassigned {
			owners = append(owners, o)
		}
	}
	return append(owners, OwnerUnassigned)
}

// SetClock replaces the time source. Used by tests and the CLI.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.reconciler.now = now
}

// Now returns the current time from the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Owners returns the owners an action may be assigned to.
func (s *Service) Owners() []string {
	return append([]string(nil), s.owners...)
}

// Collections returns display information about all collections.
func (s *Service) Collections() []CollectionInfo {
	defs := All()
	infos := make([]CollectionInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Refresh reloads both caches from the store.
func (s *Service) Refresh(ctx context.Context) error {
	return errors.Join(s.actions.Refresh(ctx), s.register.Refresh(ctx))
}

// CacheStatus reports the state of each collection cache.
func (s *Service) CacheStatus() map[string]CacheStatus {
	return map[string]CacheStatus{
		ActionsKey:  s.actions.Status(),
		RegisterKey: s.register.Status(),
	}
}

// ImportLimiterStatus returns the import limiter state.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ReadImportFile reads an upload fully, enforcing the configured size limit.
func (s *Service) ReadImportFile(r io.Reader) ([]byte, error) {
	if s.maxFileSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	return data, nil
}

func (s *Service) loadActions(ctx context.Context) ([]ActionEntry, error) {
	recs, err := s.store.SelectAll(ctx, ActionsKey)
	if err != nil {
		return nil, storeErr("select", ActionsKey, err)
	}
	out := make([]ActionEntry, len(recs))
	for i, r := range recs {
		out[i] = ActionEntryFromExternal(r)
	}
	return out, nil
}

func (s *Service) loadRegister(ctx context.Context) ([]RegisterEntry, error) {
	recs, err := s.store.SelectAll(ctx, RegisterKey)
	if err != nil {
		return nil, storeErr("select", RegisterKey, err)
	}
	out := make([]RegisterEntry, len(recs))
	for i, r := range recs {
		out[i] = RegisterEntryFromExternal(r)
	}
	return out, nil
}

// afterWrite refreshes a cache following a successful store write. A failed
// refresh does not undo the write: it is logged and kept in the cache status.
func afterWrite[T any](ctx context.Context, c *Cache[T], collection, op string) {
	if err := c.Refresh(ctx); err != nil {
		logging.WithFields(ctx, "collection", collection, "op", op).
			Error("reload after write failed", "error", err)
	}
}

// logMutation records a successful change.
func logMutation(ctx context.Context, collection, op, id string) {
	logging.WithFields(ctx,
		"collection", collection,
		"op", op,
		"id", id,
		"actor", ActorFromContext(ctx),
		"ip", IPAddressFromContext(ctx),
	).Info("record changed")
}

// runImport holds an import slot while reconciling a batch.
func (s *Service) runImport(ctx context.Context, key string, records []ExternalRecord, mode ImportMode, refresh func(context.Context) error) (*ImportResult, error) {
	if len(records) == 0 {
		return nil, ErrEmptyImport
	}
	if mode != ImportReplace && mode != ImportMerge {
		return nil, &ValidationError{Field: "mode", Value: string(mode), Message: "invalid import mode (use replace or merge)"}
	}

	def, err := Lookup(key)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	logging.WithFields(ctx, "collection", key, "mode", string(mode), "actor", ActorFromContext(ctx)).
		Info("import started", "rows", len(records))

	return s.reconciler.Reconcile(ctx, def, records, mode, refresh), nil
}

// ResetCollection deletes every record in the collection. It takes an import
// slot so it cannot interleave with a running import.
func (s *Service) ResetCollection(ctx context.Context, key string) (int, error) {
	if _, err := Lookup(key); err != nil {
		return 0, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return 0, err
	}
	defer s.limiter.Release()

	var (
		before  int
		refresh func(context.Context) error
	)
	switch key {
	case ActionsKey:
		if err := s.actions.Ensure(ctx); err != nil {
			return 0, err
		}
		before, refresh = s.actions.Len(), s.actions.Refresh
	case RegisterKey:
		if err := s.register.Ensure(ctx); err != nil {
			return 0, err
		}
		before, refresh = s.register.Len(), s.register.Refresh
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownCollection, key)
	}

	if err := s.store.DeleteAll(ctx, key); err != nil {
		return 0, storeErr("delete all", key, err)
	}
	if err := refresh(ctx); err != nil {
		logging.WithFields(ctx, "collection", key, "op", "reset").
			Error("reload after write failed", "error", err)
	}

	logging.WithFields(ctx, "collection", key, "actor", ActorFromContext(ctx)).
		Warn("collection reset", "removed", before)
	return before, nil
}
