package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/internal/metrics"
	"leaflens/internal/utils/storage"
)

var epoch = time.Unix(0, 0).UTC()

type (
	HistoryService interface {
		Save(ctx context.Context, email string, entry domain.HistoryEntry) ([]domain.HistoryEntry, error)
		Get(ctx context.Context, email string) ([]domain.HistoryEntry, error)
		DeleteEntry(ctx context.Context, email, id string) ([]domain.HistoryEntry, error)
		Clear(ctx context.Context, email string) error
		DeleteAllForUser(ctx context.Context, email string) error
	}

	historyService struct {
		historyRepository HistoryRepository
		store             storage.ImageStore
		locks             *userLocks
		now               func() time.Time
		metrics           *metrics.Metrics
		logger            *zap.Logger
	}
)

func NewHistoryService(historyRepository HistoryRepository, store storage.ImageStore, m *metrics.Metrics, logger *zap.Logger) HistoryService {
	return &historyService{
		historyRepository: historyRepository,
		store:             store,
		locks:             newUserLocks(),
		now:               time.Now,
		metrics:           m,
		logger:            logger.Named("history"),
	}
}

// Save puts entry at the front of the user's history. Any stored entry with
// the same id, or with the same plant name, is replaced. A supplied id must
// be a UUID and is stored in canonical form.
func (s *historyService) Save(ctx context.Context, email string, entry domain.HistoryEntry) (history []domain.HistoryEntry, err error) {
	defer func() { s.metrics.RecordHistoryOperation("save", err) }()

	if entry.ID != "" {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			return nil, domain.ErrInvalidHistoryID
		}
		entry.ID = id.String()
	}

	unlock := s.locks.lock(email)
	defer unlock()

	current, _, err := s.historyRepository.GetHistory(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	incomingID := entry.ID
	incomingName := entry.PlantName
	droppedByID := false

	history = make([]domain.HistoryEntry, 0, len(current)+1)
	history = append(history, entry)
	for _, existing := range current {
		if incomingID != "" && existing.ID == incomingID {
			droppedByID = true
			continue
		}
		if incomingName != "" && existing.PlantName == incomingName {
			continue
		}
		history = append(history, existing)
	}

	if !droppedByID && incomingID == "" {
		history[0].ID = uuid.New().String()
	}
	if history[0].Timestamp == "" {
		history[0].Timestamp = s.now().UTC().Format(domain.HistoryTimeLayout)
	}

	if err := s.historyRepository.SaveHistory(ctx, email, history); err != nil {
		return nil, fmt.Errorf("persist history: %w", err)
	}

	s.logger.Debug("history saved",
		zap.String("user", email),
		zap.String("id", history[0].ID),
		zap.Int("entries", len(history)))
	return history, nil
}

// Get returns the history newest first. Entries without a readable
// timestamp sort as if recorded at the Unix epoch.
func (s *historyService) Get(ctx context.Context, email string) (history []domain.HistoryEntry, err error) {
	defer func() { s.metrics.RecordHistoryOperation("get", err) }()

	history, _, err = s.historyRepository.GetHistory(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	sortNewestFirst(history)
	return history, nil
}

func (s *historyService) DeleteEntry(ctx context.Context, email, id string) (history []domain.HistoryEntry, err error) {
	defer func() { s.metrics.RecordHistoryOperation("delete_entry", err) }()

	unlock := s.locks.lock(email)
	defer unlock()

	current, found, err := s.historyRepository.GetHistory(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !found {
		return nil, domain.ErrHistoryNotFound
	}

	history = make([]domain.HistoryEntry, 0, len(current))
	removed := false
	for _, e := range current {
		if e.ID == id {
			removed = true
			continue
		}
		history = append(history, e)
	}
	if !removed {
		return nil, domain.ErrHistoryEntryNotFound
	}

	if err := s.historyRepository.SaveHistory(ctx, email, history); err != nil {
		return nil, fmt.Errorf("persist history: %w", err)
	}

	if isImageID(id) {
		if _, err := storage.DeleteByID(ctx, s.store, "", id); err != nil {
			s.logger.Warn("failed to delete image for history entry", zap.String("id", id), zap.Error(err))
		}
	}

	sortNewestFirst(history)
	return history, nil
}

// Clear drops the stored history. Images are left in place.
func (s *historyService) Clear(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.RecordHistoryOperation("clear", err) }()

	unlock := s.locks.lock(email)
	defer unlock()

	if err := s.historyRepository.DeleteHistory(ctx, email); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every image referenced by the history, then the
// history itself.
func (s *historyService) DeleteAllForUser(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.RecordHistoryOperation("delete_all", err) }()

	unlock := s.locks.lock(email)
	defer unlock()

	current, _, err := s.historyRepository.GetHistory(ctx, email)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	for _, e := range current {
		if !isImageID(e.ID) {
			continue
		}
		if _, err := storage.DeleteByID(ctx, s.store, "", e.ID); err != nil {
			s.logger.Warn("failed to delete history image", zap.String("id", e.ID), zap.Error(err))
		}
	}

	if err := s.historyRepository.DeleteHistory(ctx, email); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	s.logger.Info("history deleted for user", zap.String("user", email), zap.Int("entries", len(current)))
	return nil
}

// isImageID reports whether id can name an identification image. Those keys
// are canonical UUIDs; anything else may belong to another upload.
func isImageID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

func sortNewestFirst(history []domain.HistoryEntry) {
	sort.SliceStable(history, func(i, j int) bool {
		return parseTimestamp(history[i].Timestamp).After(parseTimestamp(history[j].Timestamp))
	})
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return epoch
	}
	for _, layout := range []string{time.RFC3339Nano, domain.HistoryTimeLayout, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return epoch
}
