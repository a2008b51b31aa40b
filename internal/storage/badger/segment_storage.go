package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/calibrae/mercator/internal/common"
	"github.com/calibrae/mercator/internal/interfaces"
	"github.com/calibrae/mercator/internal/models"
)

// segmentRecord is the persisted row for one customer segment.
type segmentRecord struct {
	ID      string `badgerhold:"key"`
	StateID string `badgerhold:"index"`
	Segment models.CustomerSegment
}

// SegmentStorage implements the SegmentStorage interface for Badger
type SegmentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSegmentStorage creates a new SegmentStorage instance
func NewSegmentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SegmentStorage {
	return &SegmentStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSegments replaces the stored segments for a state. Each segment gets an
// identifier and creation timestamp if it does not carry one already.
func (s *SegmentStorage) SaveSegments(ctx context.Context, stateID string, segments []models.CustomerSegment) error {
	if stateID == "" {
		return fmt.Errorf("state identifier is required")
	}

	// Remove any previously stored segments for this state so re-runs do not
	// accumulate duplicates.
	if err := s.db.Store().DeleteMatching(&segmentRecord{}, badgerhold.Where("StateID").Eq(stateID).Index("StateID")); err != nil {
		return fmt.Errorf("failed to clear existing segments: %w", err)
	}

	now := time.Now().UTC()
	for i := range segments {
		segment := segments[i]
		if segment.ID == "" {
			segment.ID = common.NewSegmentID()
		}
		segment.StateID = stateID
		if segment.CreatedAt.IsZero() {
			segment.CreatedAt = now
		}

		record := segmentRecord{
			ID:      segment.ID,
			StateID: stateID,
			Segment: segment,
		}
		if err := s.db.Store().Upsert(record.ID, &record); err != nil {
			return fmt.Errorf("failed to save segment: %w", err)
		}
	}

	s.logger.Debug().Str("state_id", stateID).Int("count", len(segments)).Msg("Segments saved")
	return nil
}

// GetSegments returns the stored segments for a state.
func (s *SegmentStorage) GetSegments(ctx context.Context, stateID string) ([]models.CustomerSegment, error) {
	var records []segmentRecord
	query := badgerhold.Where("StateID").Eq(stateID).Index("StateID").SortBy("ID")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to load segments: %w", err)
	}

	segments := make([]models.CustomerSegment, 0, len(records))
	for i := range records {
		segments = append(segments, records[i].Segment)
	}

	return segments, nil
}
