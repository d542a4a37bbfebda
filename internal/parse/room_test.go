package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoomRef(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  RoomRef
		expectErr bool
	}{
		{name: "Bare number", raw: "101", expected: RoomRef{Number: "101"}},
		{name: "Block dash number", raw: "A-101", expected: RoomRef{Block: "A", Number: "101"}},
		{name: "Block slash number", raw: "A/101", expected: RoomRef{Block: "A", Number: "101"}},
		{name: "Spaces around dash", raw: "  B - 12 ", expected: RoomRef{Block: "B", Number: "12"}},
		{name: "Block keyword", raw: "Block C 204", expected: RoomRef{Block: "C", Number: "204"}},
		{name: "Room prefix", raw: "Room A-101", expected: RoomRef{Block: "A", Number: "101"}},
		{name: "Hash separator", raw: "A#101", expected: RoomRef{Block: "A", Number: "101"}},
		{name: "Alphanumeric number", raw: "G12", expected: RoomRef{Number: "G12"}},
		{name: "Empty", raw: "   ", expectErr: true},
		{name: "Garbage", raw: "A-1-2-3", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRoomRef(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRoomRef_String(t *testing.T) {
	assert.Equal(t, "101", RoomRef{Number: "101"}.String())
	assert.Equal(t, "A-101", RoomRef{Block: "A", Number: "101"}.String())
}

func TestFloorOf(t *testing.T) {
	testCases := []struct {
		number string
		floor  int
		ok     bool
	}{
		{"101", 1, true},
		{"1203", 12, true},
		{"G305", 3, true},
		{"12", 0, false},
		{"007", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.number, func(t *testing.T) {
			floor, ok := FloorOf(tc.number)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.floor, floor)
		})
	}
}
