package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// WithTx runs fn against a transaction-scoped Store. The transaction is
	// rolled back when fn returns an error.
	WithTx(ctx context.Context, fn func(Store) error) error

	CreateBlock(ctx context.Context, block *model.Block) error
	FindBlockByID(ctx context.Context, id int64) (*model.Block, error)
	ListBlocks(ctx context.Context) ([]model.Block, error)
	DeleteBlock(ctx context.Context, id int64) error

	CreateRoom(ctx context.Context, room *model.Room) error
	FindRoomByID(ctx context.Context, id int64) (*model.Room, error)
	FindRoomDetails(ctx context.Context, id int64) (*model.Room, error)
	FindRoomsByOccupant(ctx context.Context, userID int64) ([]model.Room, error)
	FindRoomsByBlock(ctx context.Context, blockID int64) ([]model.Room, error)
	FindRoomsByNumber(ctx context.Context, number string) ([]model.Room, error)
	FindRoomByBlockName(ctx context.Context, blockName, number string) (*model.Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]model.Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	SetRoomStatus(ctx context.Context, id int64, status model.RoomStatus) error
	AddOccupant(ctx context.Context, roomID, userID int64) error
	RemoveOccupant(ctx context.Context, roomID, userID int64) error
	OccupancyStats(ctx context.Context) ([]OccupancyStat, error)

	CreateUser(ctx context.Context, user *model.User) error
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUnassignedResidents(ctx context.Context, query string, limit int) ([]model.User, error)

	CreateAllocationRequest(ctx context.Context, req *model.AllocationRequest) error
	FindAllocationRequestByID(ctx context.Context, id int64) (*model.AllocationRequest, error)
	ListAllocationRequests(ctx context.Context, residentID int64) ([]model.AllocationRequest, error)
	DecideAllocationRequest(ctx context.Context, id int64, d Decision) error

	CreateRoomChangeRequest(ctx context.Context, req *model.RoomChangeRequest) error
	FindRoomChangeRequestByID(ctx context.Context, id int64) (*model.RoomChangeRequest, error)
	ListRoomChangeRequests(ctx context.Context, residentID int64) ([]model.RoomChangeRequest, error)
	DecideRoomChangeRequest(ctx context.Context, id int64, d Decision) error

	CreateNotification(ctx context.Context, n *model.Notification) error
	FindNotificationByID(ctx context.Context, id int64) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (*model.Notification, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	FindSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	FindSubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// notFound maps gorm's not-found error onto ErrNotFound.
func notFound(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %v: %w", what, id, err)
}

// --- Blocks ---

func (s *gormStore) CreateBlock(ctx context.Context, block *model.Block) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Block{}).Where("name = ?", block.Name).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check block name: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("block %q: %w", block.Name, ErrDuplicate)
	}
	if err := s.db.WithContext(ctx).Create(block).Error; err != nil {
		return fmt.Errorf("failed to create block %q: %w", block.Name, err)
	}
	return nil
}

func (s *gormStore) FindBlockByID(ctx context.Context, id int64) (*model.Block, error) {
	var block model.Block
	if err := s.db.WithContext(ctx).First(&block, id).Error; err != nil {
		return nil, notFound(err, "block", id)
	}
	return &block, nil
}

func (s *gormStore) ListBlocks(ctx context.Context) ([]model.Block, error) {
	var blocks []model.Block
	if err := s.db.WithContext(ctx).Order("name").Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}

func (s *gormStore) DeleteBlock(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rooms int64
		if err := tx.Model(&model.Room{}).Where("block_id = ?", id).Count(&rooms).Error; err != nil {
			return fmt.Errorf("failed to count rooms of block %d: %w", id, err)
		}
		if rooms > 0 {
			return fmt.Errorf("block %d has %d rooms: %w", id, rooms, ErrInUse)
		}
		res := tx.Delete(&model.Block{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete block %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("block %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// --- Rooms ---

func (s *gormStore) CreateRoom(ctx context.Context, room *model.Room) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("block_id = ? AND number = ?", room.BlockID, room.Number).
		Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check room number: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("room %q in block %d: %w", room.Number, room.BlockID, ErrDuplicate)
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room %q: %w", room.Number, err)
	}
	return nil
}

func (s *gormStore) FindRoomByID(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).Preload("Occupants").First(&room, id).Error; err != nil {
		return nil, notFound(err, "room", id)
	}
	return &room, nil
}

// FindRoomDetails loads a room with its block and occupant users resolved for display.
func (s *gormStore) FindRoomDetails(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).
		Preload("Block").
		Preload("Occupants", func(db *gorm.DB) *gorm.DB { return db.Order("room_occupants.id") }).
		Preload("Occupants.User").
		First(&room, id).Error; err != nil {
		return nil, notFound(err, "room", id)
	}
	return &room, nil
}

func (s *gormStore) FindRoomsByOccupant(ctx context.Context, userID int64) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).
		Preload("Occupants").
		Joins("JOIN room_occupants ro ON ro.room_id = rooms.id").
		Where("ro.user_id = ?", userID).
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to find rooms of user %d: %w", userID, err)
	}
	return rooms, nil
}

func (s *gormStore) FindRoomsByBlock(ctx context.Context, blockID int64) ([]model.Room, error) {
	return s.ListRooms(ctx, RoomFilter{BlockID: blockID})
}

func (s *gormStore) FindRoomsByNumber(ctx context.Context, number string) ([]model.Room, error) {
	return s.ListRooms(ctx, RoomFilter{Number: number})
}

func (s *gormStore) FindRoomByBlockName(ctx context.Context, blockName, number string) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).
		Preload("Occupants").
		Joins("JOIN blocks b ON b.id = rooms.block_id").
		Where("LOWER(b.name) = ? AND rooms.number = ?", strings.ToLower(blockName), number).
		First(&room).Error; err != nil {
		return nil, notFound(err, "room", blockName+"-"+number)
	}
	return &room, nil
}

// ListRooms returns rooms with block and occupant ids loaded, ordered by
// block name, floor and number.
func (s *gormStore) ListRooms(ctx context.Context, filter RoomFilter) ([]model.Room, error) {
	q := s.db.WithContext(ctx).
		Preload("Block").
		Preload("Occupants").
		Joins("JOIN blocks b ON b.id = rooms.block_id")
	if filter.BlockID != 0 {
		q = q.Where("rooms.block_id = ?", filter.BlockID)
	}
	if filter.Floor != 0 {
		q = q.Where("rooms.floor = ?", filter.Floor)
	}
	if filter.Type != "" {
		q = q.Where("rooms.type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("rooms.status = ?", filter.Status)
	}
	if filter.Number != "" {
		q = q.Where("rooms.number = ?", filter.Number)
	}

	var rooms []model.Room
	if err := q.Order("b.name, rooms.floor, rooms.number").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) DeleteRoom(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var occupants int64
		if err := tx.Model(&model.RoomOccupant{}).Where("room_id = ?", id).Count(&occupants).Error; err != nil {
			return fmt.Errorf("failed to count occupants of room %d: %w", id, err)
		}
		if occupants > 0 {
			return fmt.Errorf("room %d has %d occupants: %w", id, occupants, ErrInUse)
		}
		res := tx.Delete(&model.Room{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete room %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("room %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (s *gormStore) SetRoomStatus(ctx context.Context, id int64, status model.RoomStatus) error {
	if err := s.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to set status of room %d: %w", id, err)
	}
	return nil
}

// AddOccupant appends userID to the room's occupant set. The occupancy counter
// is incremented with a conditional update, so two writers racing for the last
// bed cannot both succeed.
func (s *gormStore) AddOccupant(ctx context.Context, roomID, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.RoomOccupant{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check occupancy of user %d: %w", userID, err)
		}
		if existing > 0 {
			return fmt.Errorf("user %d: %w", userID, ErrAlreadyAssigned)
		}

		res := tx.Model(&model.Room{}).
			Where("id = ? AND current_occupancy < capacity", roomID).
			UpdateColumn("current_occupancy", gorm.Expr("current_occupancy + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment occupancy of room %d: %w", roomID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("room %d: %w", roomID, ErrCapacityExceeded)
		}

		occupant := model.RoomOccupant{RoomID: roomID, UserID: userID}
		if err := tx.Omit(clause.Associations).Create(&occupant).Error; err != nil {
			// A concurrent writer inserted the same user after the count above.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("user %d: %w", userID, ErrAlreadyAssigned)
			}
			return fmt.Errorf("failed to add user %d to room %d: %w", userID, roomID, err)
		}
		return nil
	})
}

// RemoveOccupant deletes userID from the room's occupant set and decrements the counter.
func (s *gormStore) RemoveOccupant(ctx context.Context, roomID, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&model.RoomOccupant{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove user %d from room %d: %w", userID, roomID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d in room %d: %w", userID, roomID, ErrNotOccupant)
		}

		if err := tx.Model(&model.Room{}).
			Where("id = ? AND current_occupancy > 0", roomID).
			UpdateColumn("current_occupancy", gorm.Expr("current_occupancy - ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to decrement occupancy of room %d: %w", roomID, err)
		}
		return nil
	})
}

func (s *gormStore) OccupancyStats(ctx context.Context) ([]OccupancyStat, error) {
	var stats []OccupancyStat
	if err := s.db.WithContext(ctx).
		Model(&model.Room{}).
		Select("type, COUNT(*) AS total_rooms, "+
			"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS occupied_rooms, "+
			"SUM(capacity) AS total_capacity, SUM(current_occupancy) AS total_occupancy", model.RoomOccupied).
		Group("type").
		Order("type").
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate occupancy: %w", err)
	}
	return stats, nil
}

// --- Users ---

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("user %q: %w", user.Email, ErrDuplicate)
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Email, err)
	}
	return nil
}

func (s *gormStore) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, notFound(err, "user", email)
	}
	return &user, nil
}

// ListUnassignedResidents returns residents not listed in any room, optionally
// matching query against name, email or student id.
func (s *gormStore) ListUnassignedResidents(ctx context.Context, query string, limit int) ([]model.User, error) {
	assigned := s.db.WithContext(ctx).Model(&model.RoomOccupant{}).Select("user_id")
	q := s.db.WithContext(ctx).
		Where("role = ?", model.RoleResident).
		Where("id NOT IN (?)", assigned)
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(student_id) LIKE ?)", like, like, like)
	}

	var users []model.User
	if err := q.Order("name").Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list unassigned residents: %w", err)
	}
	return users, nil
}

// --- Requests ---

func (s *gormStore) CreateAllocationRequest(ctx context.Context, req *model.AllocationRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create allocation request: %w", err)
	}
	return nil
}

func (s *gormStore) FindAllocationRequestByID(ctx context.Context, id int64) (*model.AllocationRequest, error) {
	var req model.AllocationRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err, "allocation request", id)
	}
	return &req, nil
}

func (s *gormStore) ListAllocationRequests(ctx context.Context, residentID int64) ([]model.AllocationRequest, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if residentID != 0 {
		q = q.Where("resident_id = ?", residentID)
	}
	var reqs []model.AllocationRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list allocation requests: %w", err)
	}
	return reqs, nil
}

func (s *gormStore) DecideAllocationRequest(ctx context.Context, id int64, d Decision) error {
	updates := decisionColumns(d)
	if d.AssignedRoomID != nil {
		updates["assigned_room_id"] = *d.AssignedRoomID
	}
	return s.decide(ctx, &model.AllocationRequest{}, "allocation request", id, updates)
}

func (s *gormStore) CreateRoomChangeRequest(ctx context.Context, req *model.RoomChangeRequest) error {
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create room change request: %w", err)
	}
	return nil
}

func (s *gormStore) FindRoomChangeRequestByID(ctx context.Context, id int64) (*model.RoomChangeRequest, error) {
	var req model.RoomChangeRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err, "room change request", id)
	}
	return &req, nil
}

func (s *gormStore) ListRoomChangeRequests(ctx context.Context, residentID int64) ([]model.RoomChangeRequest, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if residentID != 0 {
		q = q.Where("resident_id = ?", residentID)
	}
	var reqs []model.RoomChangeRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list room change requests: %w", err)
	}
	return reqs, nil
}

func (s *gormStore) DecideRoomChangeRequest(ctx context.Context, id int64, d Decision) error {
	return s.decide(ctx, &model.RoomChangeRequest{}, "room change request", id, decisionColumns(d))
}

func decisionColumns(d Decision) map[string]any {
	return map[string]any{
		"status":      d.Status,
		"decision_by": d.By,
		"decided_at":  d.At,
		"updated_at":  d.At,
	}
}

// decide writes a decision only while the request is still pending.
func (s *gormStore) decide(ctx context.Context, table any, what string, id int64, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(table).
		Where("id = ? AND status = ?", id, model.RequestPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to decide %s %d: %w", what, id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to load %s %d: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", what, id, ErrAlreadyDecided)
}

// --- Notifications ---

func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification for user %d: %w", n.UserID, err)
	}
	return nil
}

func (s *gormStore) FindNotificationByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	if err := s.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, notFound(err, "notification", id)
	}
	return &n, nil
}

func (s *gormStore) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	var list []model.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications of user %d: %w", userID, err)
	}
	return list, nil
}

func (s *gormStore) MarkNotificationRead(ctx context.Context, id, userID int64) (*model.Notification, error) {
	var n model.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, notFound(err, "notification", id)
	}
	if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	n.Read = true
	return &n, nil
}

// --- Push subscriptions ---

func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
	}).Create(sub).Error
}

func (s *gormStore) FindSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err, "subscription", endpoint)
	}
	return &sub, nil
}

func (s *gormStore) FindSubscriptionsByUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions of user %d: %w", userID, err)
	}
	return subs, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
