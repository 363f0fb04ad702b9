// Package registry holds the set of active rooms.
//
// A Registry is not safe for concurrent use. Its owner serialises access
// around each protocol event so that a lookup, the mutation that follows it
// and the notification built from the result happen as one step.
package registry

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
)

// Room is one streamer and the viewers that joined it.
type Room struct {
	ID        string
	Streamer  string
	CreatedAt time.Time

	viewers map[string]struct{}
}

// HasViewer reports whether id joined the room as a viewer.
func (r *Room) HasViewer(id string) bool {
	_, ok := r.viewers[id]
	return ok
}

// ViewerCount returns the size of the viewer set.
func (r *Room) ViewerCount() int {
	return len(r.viewers)
}

// Viewers returns the viewer ids in sorted order.
func (r *Room) Viewers() []string {
	ids := make([]string, 0, len(r.viewers))
	for id := range r.viewers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot is a copy of a room's state that is safe to hand out.
type Snapshot struct {
	ID          string    `json:"room_id"`
	Streamer    string    `json:"streamer_id"`
	ViewerCount int       `json:"viewer_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Room) snapshot() Snapshot {
	return Snapshot{
		ID:          r.ID,
		Streamer:    r.Streamer,
		ViewerCount: len(r.viewers),
		CreatedAt:   r.CreatedAt,
	}
}

// Registry maps room ids to rooms.
type Registry struct {
	rooms map[string]*Room
	now   func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// Create registers a room owned by streamerID. It returns ErrRoomExists and
// leaves the registry untouched when roomID is taken.
func (r *Registry) Create(roomID, streamerID string) (*Room, error) {
	if _, ok := r.rooms[roomID]; ok {
		return nil, ErrRoomExists
	}
	room := &Room{
		ID:        roomID,
		Streamer:  streamerID,
		CreatedAt: r.now(),
		viewers:   make(map[string]struct{}),
	}
	r.rooms[roomID] = room
	return room, nil
}

// Get looks up a room.
func (r *Registry) Get(roomID string) (*Room, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// AddViewer inserts viewerID into the room's viewer set and returns the new
// set size. Adding an existing viewer leaves the set unchanged.
func (r *Registry) AddViewer(roomID, viewerID string) (int, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}
	room.viewers[viewerID] = struct{}{}
	return len(room.viewers), nil
}

// RemoveViewer drops viewerID from the room's viewer set if present and
// returns the resulting set size.
func (r *Registry) RemoveViewer(roomID, viewerID string) (int, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}
	delete(room.viewers, viewerID)
	return len(room.viewers), nil
}

// Delete removes a room. Deleting an unknown room is a no-op.
func (r *Registry) Delete(roomID string) {
	delete(r.rooms, roomID)
}

// ForEach calls fn for every room. fn may delete the room it is given or
// change its viewers; rooms created during iteration may or may not be
// visited.
func (r *Registry) ForEach(fn func(roomID string, room *Room)) {
	for id, room := range r.rooms {
		fn(id, room)
	}
}

// Len returns the number of active rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Snapshot returns a copy of one room.
func (r *Registry) Snapshot(roomID string) (Snapshot, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}
	return room.snapshot(), nil
}

// Snapshots returns copies of every room ordered by creation time, then id.
func (r *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
