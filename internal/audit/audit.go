// Package audit periodically compares each room's stored counter and status
// with its occupant set and reports any drift.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hostel-backend/internal/metrics"
	"hostel-backend/internal/model"
	"hostel-backend/internal/rules"
	"hostel-backend/internal/store"
)

// RoomLister is the part of the store the audit reads.
type RoomLister interface {
	ListRooms(ctx context.Context, filter store.RoomFilter) ([]model.Room, error)
}

// Finding describes one room that disagrees with its occupant set.
type Finding struct {
	RoomID         int64            `json:"roomId"`
	Number         string           `json:"number"`
	Block          string           `json:"block,omitempty"`
	Occupants      int              `json:"occupants"`
	Counter        int              `json:"counter"`
	Capacity       int              `json:"capacity"`
	Status         model.RoomStatus `json:"status"`
	ExpectedStatus model.RoomStatus `json:"expectedStatus"`
	Problems       []string         `json:"problems"`
}

// Report is the result of one pass.
type Report struct {
	CheckedAt time.Time `json:"checkedAt"`
	Rooms     int       `json:"rooms"`
	Findings  []Finding `json:"findings"`
}

// Service runs the audit on a timer.
type Service struct {
	rooms    RoomLister
	interval time.Duration
	log      *zap.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewService creates a Service. m may be nil.
func NewService(rooms RoomLister, interval time.Duration, log *zap.Logger, m *metrics.Recorder) *Service {
	return &Service{
		rooms:    rooms,
		interval: interval,
		log:      log,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run audits once immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("starting occupancy audit", zap.Duration("interval", s.interval))
	s.runOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("occupancy audit shutting down")
			return
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	if _, err := s.Check(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("occupancy audit failed", zap.Error(err))
	}
}

// Check performs a single read-only pass over every room.
func (s *Service) Check(ctx context.Context) (*Report, error) {
	rooms, err := s.rooms.ListRooms(ctx, store.RoomFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	report := &Report{CheckedAt: s.now(), Rooms: len(rooms), Findings: []Finding{}}
	for i := range rooms {
		if f, ok := inspect(&rooms[i]); ok {
			report.Findings = append(report.Findings, f)
			s.log.Warn("room occupancy drift",
				zap.Int64("room_id", f.RoomID),
				zap.Int("occupants", f.Occupants),
				zap.Int("counter", f.Counter),
				zap.String("status", string(f.Status)),
				zap.Strings("problems", f.Problems),
			)
		}
	}

	s.metrics.InconsistentRooms(len(report.Findings))
	s.log.Info("occupancy audit finished", zap.Int("rooms", report.Rooms), zap.Int("findings", len(report.Findings)))
	return report, nil
}

func inspect(room *model.Room) (Finding, bool) {
	occupants := rules.OccupantCount(room)
	capacity := rules.CapacityOf(room)
	expected := rules.NextStatus(room.Status, occupants)

	var problems []string
	if room.CurrentOccupancy != occupants {
		problems = append(problems, "counter_mismatch")
	}
	if occupants > capacity {
		problems = append(problems, "over_capacity")
	}
	if expected != room.Status {
		problems = append(problems, "status_mismatch")
	}
	if len(problems) == 0 {
		return Finding{}, false
	}

	f := Finding{
		RoomID:         room.ID,
		Number:         room.Number,
		Occupants:      occupants,
		Counter:        room.CurrentOccupancy,
		Capacity:       capacity,
		Status:         room.Status,
		ExpectedStatus: expected,
		Problems:       problems,
	}
	if room.Block != nil {
		f.Block = room.Block.Name
	}
	return f, true
}
