// Package parse reads free-form room references typed by residents and staff.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	prefixRe = regexp.MustCompile(`(?i)^(?:room|rm\.?)\s*`)
	blockRe  = regexp.MustCompile(`(?i)^(?:block\s+)?([\p{L}\d]+?)\s*[-/ ]\s*([\p{L}\d]+)$`)
	numberRe = regexp.MustCompile(`^[\p{L}\d]+$`)
	floorRe  = regexp.MustCompile(`^\D*(\d+)(\d{2})\D*$`)
)

// RoomRef is a parsed room reference. Block is empty when only a number was given.
type RoomRef struct {
	Block  string
	Number string
}

func (r RoomRef) String() string {
	if r.Block == "" {
		return r.Number
	}
	return r.Block + "-" + r.Number
}

// ParseRoomRef accepts "101", "A-101", "A/101", "A 101", "Block A-101" and
// "Room A-101". '#' is treated as a separator.
func ParseRoomRef(raw string) (RoomRef, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "#", " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	s = strings.TrimSpace(prefixRe.ReplaceAllString(s, ""))

	if s == "" {
		return RoomRef{}, fmt.Errorf("empty room reference")
	}
	if numberRe.MatchString(s) {
		return RoomRef{Number: s}, nil
	}
	if m := blockRe.FindStringSubmatch(s); m != nil {
		return RoomRef{Block: m[1], Number: m[2]}, nil
	}
	return RoomRef{}, fmt.Errorf("unable to parse room reference: %q", raw)
}

// FloorOf derives the floor from a conventional room number, where the last
// two digits are the room on the floor: "101" is floor 1, "1203" floor 12.
func FloorOf(number string) (int, bool) {
	m := floorRe.FindStringSubmatch(strings.TrimSpace(number))
	if m == nil {
		return 0, false
	}
	floor, err := strconv.Atoi(m[1])
	if err != nil || floor == 0 {
		return 0, false
	}
	return floor, true
}
