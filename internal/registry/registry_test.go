package registry

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestCreateIsUniquePerID(t *testing.T) {
	r := New()

	room, err := r.Create("r1", "s1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if room.Streamer != "s1" || room.ViewerCount() != 0 {
		t.Fatalf("room = %+v", room)
	}

	for _, streamer := range []string{"s1", "s2"} {
		if _, err := r.Create("r1", streamer); !errors.Is(err, ErrRoomExists) {
			t.Fatalf("second Create by %s: err = %v, want ErrRoomExists", streamer, err)
		}
	}

	got, err := r.Get("r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Streamer != "s1" {
		t.Fatalf("streamer changed to %q", got.Streamer)
	}

	r.Delete("r1")
	if _, err := r.Create("r1", "s2"); err != nil {
		t.Fatalf("Create after Delete: %v", err)
	}
}

func TestGetUnknown(t *testing.T) {
	r := New()
	if _, err := r.Get("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestViewerSetSemantics(t *testing.T) {
	r := New()
	if _, err := r.Create("r1", "s"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	steps := []struct {
		op     string
		viewer string
		want   int
	}{
		{"add", "v1", 1},
		{"add", "v2", 2},
		{"add", "v1", 2},
		{"remove", "v3", 2},
		{"remove", "v1", 1},
		{"remove", "v1", 1},
		{"remove", "v2", 0},
	}
	for i, st := range steps {
		var (
			n   int
			err error
		)
		if st.op == "add" {
			n, err = r.AddViewer("r1", st.viewer)
		} else {
			n, err = r.RemoveViewer("r1", st.viewer)
		}
		if err != nil {
			t.Fatalf("step %d %s %s: %v", i, st.op, st.viewer, err)
		}
		if n != st.want {
			t.Fatalf("step %d %s %s: count = %d, want %d", i, st.op, st.viewer, n, st.want)
		}
	}

	if _, err := r.AddViewer("nope", "v"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("AddViewer unknown room: %v", err)
	}
	if _, err := r.RemoveViewer("nope", "v"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("RemoveViewer unknown room: %v", err)
	}
}

func TestViewersSorted(t *testing.T) {
	r := New()
	room, _ := r.Create("r1", "s")
	for _, v := range []string{"c", "a", "b"} {
		r.AddViewer("r1", v)
	}
	if got := room.Viewers(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("Viewers = %v", got)
	}
	if !room.HasViewer("b") || room.HasViewer("s") {
		t.Fatal("HasViewer mismatch")
	}
}

func TestForEachAllowsDeletion(t *testing.T) {
	r := New()
	for _, id := range []string{"a", "b", "c"} {
		r.Create(id, "s-"+id)
	}

	seen := map[string]bool{}
	r.ForEach(func(id string, room *Room) {
		seen[id] = true
		if room.ID != id {
			t.Errorf("room.ID = %q for key %q", room.ID, id)
		}
		r.Delete(id)
	})

	if len(seen) != 3 {
		t.Fatalf("visited %v, want all three rooms", seen)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d after deleting during ForEach", r.Len())
	}
}

func TestSnapshots(t *testing.T) {
	r := New()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	r.Create("later", "s2")
	r.Create("earlier", "s1")
	r.AddViewer("later", "v1")

	// Force equal timestamps for the tie-break on id.
	r.rooms["earlier"].CreatedAt = r.rooms["later"].CreatedAt

	snaps := r.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("len = %d", len(snaps))
	}
	if snaps[0].ID != "earlier" || snaps[1].ID != "later" {
		t.Fatalf("order = %s, %s", snaps[0].ID, snaps[1].ID)
	}
	if snaps[1].ViewerCount != 1 || snaps[1].Streamer != "s2" {
		t.Fatalf("snapshot = %+v", snaps[1])
	}

	one, err := r.Snapshot("later")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	one.ViewerCount = 99
	if r.rooms["later"].ViewerCount() != 1 {
		t.Fatal("snapshot aliases registry state")
	}

	if _, err := r.Snapshot("missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("Snapshot missing: %v", err)
	}
}
