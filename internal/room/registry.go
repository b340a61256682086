package room

import (
	"context"
	"fmt"
	"slices"
)

// Registry owns every live room plus the username to seat and username to watched rooms indexes.
// Methods other than Acquire/Release require the registry lock.
type Registry struct {
	lock *Lock

	lastID   int
	rooms    map[int]*Room
	seats    map[string]int
	watching map[string]map[int]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		lock:     NewLock(),
		rooms:    make(map[int]*Room),
		seats:    make(map[string]int),
		watching: make(map[string]map[int]struct{}),
	}
}

func (that *Registry) Acquire(ctx context.Context) error {
	if err := that.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	return nil
}

func (that *Registry) Release() {
	that.lock.Release()
}

// Create registers a new room. Ids start at 1 and are never reused.
func (that *Registry) Create() *Room {
	that.lastID++

	room := New(that.lastID)
	that.rooms[room.ID()] = room

	return room
}

func (that *Registry) Get(id int) (*Room, bool) {
	room, ok := that.rooms[id]

	return room, ok
}

// Rooms returns the live rooms ordered by id.
func (that *Registry) Rooms() []*Room {
	rooms := make([]*Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}

	slices.SortFunc(rooms, func(a, b *Room) int {
		return a.ID() - b.ID()
	})

	return rooms
}

// Retire drops the room when it is empty. The caller also holds the room lock.
func (that *Registry) Retire(room *Room) bool {
	if !room.IsEmpty() {
		return false
	}

	delete(that.rooms, room.ID())

	return true
}

func (that *Registry) Len() int {
	return len(that.rooms)
}

func (that *Registry) BindSeat(username string, roomID int) {
	that.seats[username] = roomID
}

func (that *Registry) UnbindSeat(username string) {
	delete(that.seats, username)
}

// SeatOf returns the id of the room username is seated in.
func (that *Registry) SeatOf(username string) (int, bool) {
	id, ok := that.seats[username]

	return id, ok
}

func (that *Registry) BindViewer(username string, roomID int) {
	if _, ok := that.watching[username]; !ok {
		that.watching[username] = make(map[int]struct{})
	}

	that.watching[username][roomID] = struct{}{}
}

func (that *Registry) UnbindViewer(username string, roomID int) {
	delete(that.watching[username], roomID)

	if len(that.watching[username]) == 0 {
		delete(that.watching, username)
	}
}

// RoomsOf returns the live rooms username sits in or watches, ordered by id.
func (that *Registry) RoomsOf(username string) []*Room {
	ids := make([]int, 0, len(that.watching[username])+1)
	if id, ok := that.seats[username]; ok {
		ids = append(ids, id)
	}

	for id := range that.watching[username] {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	rooms := make([]*Room, 0, len(ids))
	for _, id := range slices.Compact(ids) {
		if room, ok := that.rooms[id]; ok {
			rooms = append(rooms, room)
		}
	}

	return rooms
}
