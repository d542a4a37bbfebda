// Package inventory manages blocks, rooms and users, and answers the
// read-only occupancy queries used by staff and residents.
package inventory

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/model"
	"hostel-backend/internal/parse"
	"hostel-backend/internal/rules"
	"hostel-backend/internal/store"
)

const (
	defaultResidentLimit = 50
	maxResidentLimit     = 200
	minPasswordLength    = 6
)

// ErrBadCredentials is returned by Authenticate for an unknown email or wrong password.
var ErrBadCredentials = errors.New("invalid email or password")

// Service wraps the store with input validation.
type Service struct {
	store      store.Store
	log        *zap.Logger
	bcryptCost int
}

// NewService creates a Service.
func NewService(s store.Store, log *zap.Logger) *Service {
	return &Service{store: s, log: log, bcryptCost: bcrypt.DefaultCost}
}

// BlockInput describes a new block.
type BlockInput struct {
	Name        string
	Description string
	TotalFloors int
	Type        model.BlockType
	Status      model.BlockStatus
}

func (s *Service) CreateBlock(ctx context.Context, in BlockInput) (*model.Block, error) {
	block := &model.Block{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		TotalFloors: in.TotalFloors,
		Type:        model.BlockType(strings.ToLower(string(in.Type))),
		Status:      model.BlockStatus(strings.ToLower(string(in.Status))),
	}
	if block.Status == "" {
		block.Status = model.BlockActive
	}

	switch {
	case block.Name == "":
		return nil, apperr.Validation("name is required")
	case block.TotalFloors < 1:
		return nil, apperr.Validation("totalFloors must be at least 1")
	case !model.ValidBlockType(block.Type):
		return nil, apperr.Validation("type must be boys or girls")
	case !model.ValidBlockStatus(block.Status):
		return nil, apperr.Validation("status must be active, inactive or maintenance")
	}

	if err := s.store.CreateBlock(ctx, block); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Block name already exists")
		}
		return nil, err
	}
	s.log.Info("block created", zap.Int64("block_id", block.ID), zap.String("name", block.Name))
	return block, nil
}

func (s *Service) ListBlocks(ctx context.Context) ([]model.Block, error) {
	return s.store.ListBlocks(ctx)
}

// DeleteBlock refuses while rooms still reference the block.
func (s *Service) DeleteBlock(ctx context.Context, id int64) error {
	err := s.store.DeleteBlock(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Block not found")
	case errors.Is(err, store.ErrInUse):
		return apperr.Conflict("Cannot delete a block that still has rooms")
	case err != nil:
		return err
	}
	s.log.Info("block deleted", zap.Int64("block_id", id))
	return nil
}

// RoomInput describes a new room. Floor may be zero when the number encodes it.
type RoomInput struct {
	BlockID          int64
	Number           string
	Floor            int
	Type             model.RoomType
	Status           model.RoomStatus
	AttachedBathroom bool
	AirConditioned   bool
	Balcony          bool
}

// CreateRoom derives capacity from the room type; a client-supplied capacity is never trusted.
func (s *Service) CreateRoom(ctx context.Context, in RoomInput) (*model.Room, error) {
	room := &model.Room{
		BlockID:          in.BlockID,
		Number:           strings.TrimSpace(in.Number),
		Floor:            in.Floor,
		Type:             model.RoomType(strings.ToUpper(string(in.Type))),
		Status:           model.RoomStatus(strings.ToUpper(string(in.Status))),
		AttachedBathroom: in.AttachedBathroom,
		AirConditioned:   in.AirConditioned,
		Balcony:          in.Balcony,
	}
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	if room.Number == "" {
		return nil, apperr.Validation("number is required")
	}
	if !model.ValidRoomType(room.Type) {
		return nil, apperr.Validation("type must be SINGLE, DOUBLE or TRIPLE")
	}
	if room.Status == model.RoomOccupied || !model.ValidRoomStatus(room.Status) {
		return nil, apperr.Validation("status must be AVAILABLE, MAINTENANCE or UNAVAILABLE")
	}
	room.Capacity = model.TypeCapacity[room.Type]

	if room.Floor == 0 {
		floor, ok := parse.FloorOf(room.Number)
		if !ok {
			return nil, apperr.Validation("floor is required")
		}
		room.Floor = floor
	}

	block, err := s.store.FindBlockByID(ctx, room.BlockID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Block not found")
		}
		return nil, err
	}
	if !rules.FloorValid(room, block) {
		return nil, apperr.Validation("Room floor exceeds block total floors (%d)", block.TotalFloors)
	}

	if err := s.store.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Room %s already exists in block %s", room.Number, block.Name)
		}
		return nil, err
	}
	room.Block = block
	s.log.Info("room created", zap.Int64("room_id", room.ID), zap.String("number", room.Number), zap.Int64("block_id", block.ID))
	return room, nil
}

// DeleteRoom refuses while the room has occupants.
func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	err := s.store.DeleteRoom(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Room not found")
	case errors.Is(err, store.ErrInUse):
		return apperr.Conflict("Cannot delete an occupied room")
	case err != nil:
		return err
	}
	s.log.Info("room deleted", zap.Int64("room_id", id))
	return nil
}

// GetRoom returns a room with block and occupants resolved.
func (s *Service) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	room, err := s.store.FindRoomDetails(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Room not found")
	}
	return room, err
}

// UserInput describes a new account.
type UserInput struct {
	Name      string
	Email     string
	Password  string
	Role      model.Role
	Gender    model.Gender
	Phone     string
	StudentID string
}

// CreateUser stores a user with a bcrypt-hashed password and lowercase email and gender.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	user := &model.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      model.Role(strings.ToUpper(strings.TrimSpace(string(in.Role)))),
		Gender:    model.Gender(strings.ToLower(strings.TrimSpace(string(in.Gender)))),
		Phone:     strings.TrimSpace(in.Phone),
		StudentID: strings.TrimSpace(in.StudentID),
	}
	if user.Role == "" {
		user.Role = model.RoleResident
	}

	if user.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return nil, apperr.Validation("email is invalid")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if !model.ValidRole(user.Role) {
		return nil, apperr.Validation("role must be ADMIN, WARDEN, RESIDENT or MAINTENANCE")
	}
	if user.Gender != "" && user.Gender != model.GenderMale && user.Gender != model.GenderFemale {
		return nil, apperr.Validation("gender must be male or female")
	}
	if user.Role == model.RoleResident && user.Gender == "" {
		return nil, apperr.Validation("gender is required for residents")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}
	s.log.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// AvailableRoom is a bookable room with at least one free bed.
type AvailableRoom struct {
	model.Room
	AvailableBeds int `json:"availableBeds"`
}

// AvailableRooms lists rooms with free beds, skipping MAINTENANCE and
// UNAVAILABLE rooms, ordered by block name, floor and number.
func (s *Service) AvailableRooms(ctx context.Context, typ model.RoomType, blockID int64) ([]AvailableRoom, error) {
	typ = model.RoomType(strings.ToUpper(strings.TrimSpace(string(typ))))
	if typ != "" && !model.ValidRoomType(typ) {
		return nil, apperr.Validation("type must be SINGLE, DOUBLE or TRIPLE")
	}

	rooms, err := s.store.ListRooms(ctx, store.RoomFilter{Type: typ, BlockID: blockID})
	if err != nil {
		return nil, err
	}
	out := make([]AvailableRoom, 0, len(rooms))
	for _, r := range rooms {
		if !rules.Bookable(&r) || !rules.HasSpace(&r) {
			continue
		}
		out = append(out, AvailableRoom{Room: r, AvailableBeds: rules.AvailableBeds(&r)})
	}
	return out, nil
}

// UnassignedResidents searches residents without a room. limit defaults to
// 50 and is capped at 200.
func (s *Service) UnassignedResidents(ctx context.Context, query string, limit int) ([]model.User, error) {
	if limit <= 0 {
		limit = defaultResidentLimit
	}
	if limit > maxResidentLimit {
		limit = maxResidentLimit
	}
	return s.store.ListUnassignedResidents(ctx, query, limit)
}

// Occupants returns the users listed in a room.
func (s *Service) Occupants(ctx context.Context, roomID int64) ([]model.User, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(room.Occupants))
	for _, o := range room.Occupants {
		if o.User != nil {
			users = append(users, *o.User)
		}
	}
	return users, nil
}

// MyRoom returns the room userID lives in, or nil.
func (s *Service) MyRoom(ctx context.Context, userID int64) (*model.Room, error) {
	roomID, found, err := rules.CurrentRoom(ctx, s.store, userID)
	if err != nil || !found {
		return nil, err
	}
	return s.GetRoom(ctx, roomID)
}

func (s *Service) OccupancyStats(ctx context.Context) ([]store.OccupancyStat, error) {
	return s.store.OccupancyStats(ctx)
}
