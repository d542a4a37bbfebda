package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"hostel-backend/internal/model"
)

func roomWith(typ model.RoomType, capacity int, occupants ...int64) *model.Room {
	r := &model.Room{ID: 1, Type: typ, Capacity: capacity, Floor: 1, Status: model.RoomAvailable}
	for _, id := range occupants {
		r.Occupants = append(r.Occupants, model.RoomOccupant{RoomID: r.ID, UserID: id})
	}
	return r
}

func TestCapacityOf(t *testing.T) {
	testCases := []struct {
		name string
		room *model.Room
		want int
	}{
		{"declared capacity wins", roomWith(model.RoomTriple, 2), 2},
		{"falls back to single", roomWith(model.RoomSingle, 0), 1},
		{"falls back to double", roomWith(model.RoomDouble, 0), 2},
		{"falls back to triple, lowercase type", roomWith("triple", 0), 3},
		{"unknown type is one bed", roomWith("DORMITORY", 0), 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CapacityOf(tc.room))
		})
	}
}

func TestHasSpace(t *testing.T) {
	assert.True(t, HasSpace(roomWith(model.RoomDouble, 2, 10)))
	assert.False(t, HasSpace(roomWith(model.RoomDouble, 2, 10, 11)))
	assert.False(t, HasSpace(roomWith(model.RoomSingle, 1, 10)))
	assert.Equal(t, 0, AvailableBeds(roomWith(model.RoomSingle, 1, 10, 11)))
	assert.Equal(t, 3, AvailableBeds(roomWith(model.RoomTriple, 3)))
}

func TestGenderEligible(t *testing.T) {
	boys := &model.Block{Type: model.BlockBoys}
	girls := &model.Block{Type: model.BlockGirls}

	assert.True(t, GenderEligible(&model.User{Gender: "male"}, boys))
	assert.True(t, GenderEligible(&model.User{Gender: "Male"}, boys))
	assert.False(t, GenderEligible(&model.User{Gender: "female"}, boys))
	assert.True(t, GenderEligible(&model.User{Gender: "FEMALE"}, girls))
	assert.False(t, GenderEligible(&model.User{Gender: "male"}, girls))
}

func TestFloorValid(t *testing.T) {
	block := &model.Block{TotalFloors: 3}
	assert.True(t, FloorValid(&model.Room{Floor: 1}, block))
	assert.True(t, FloorValid(&model.Room{Floor: 3}, block))
	assert.False(t, FloorValid(&model.Room{Floor: 4}, block))
	assert.False(t, FloorValid(&model.Room{Floor: 0}, block))
}

func TestNextStatus(t *testing.T) {
	testCases := []struct {
		current   model.RoomStatus
		occupancy int
		want      model.RoomStatus
	}{
		{model.RoomAvailable, 1, model.RoomOccupied},
		{model.RoomAvailable, 0, model.RoomAvailable},
		{model.RoomOccupied, 0, model.RoomAvailable},
		{model.RoomOccupied, 2, model.RoomOccupied},
		{model.RoomMaintenance, 0, model.RoomMaintenance},
		{model.RoomMaintenance, 1, model.RoomMaintenance},
		{model.RoomUnavailable, 1, model.RoomUnavailable},
	}

	for _, tc := range testCases {
		t.Run(string(tc.current), func(t *testing.T) {
			assert.Equal(t, tc.want, NextStatus(tc.current, tc.occupancy))
		})
	}
}

type fakeLookup struct {
	rooms []model.Room
	err   error
}

func (f fakeLookup) FindRoomsByOccupant(context.Context, int64) ([]model.Room, error) {
	return f.rooms, f.err
}

func TestCurrentRoom(t *testing.T) {
	id, ok, err := CurrentRoom(context.Background(), fakeLookup{rooms: []model.Room{{ID: 42}}}, 1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok, err = CurrentRoom(context.Background(), fakeLookup{}, 1)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = CurrentRoom(context.Background(), fakeLookup{err: errors.New("db down")}, 1)
	assert.Error(t, err)
	assert.False(t, ok)
}
