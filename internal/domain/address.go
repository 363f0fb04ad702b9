package domain

import "fmt"

// AddressKind says how an Address is resolved by the transport.
type AddressKind int

const (
	// AddressConnection targets exactly one connection.
	AddressConnection AddressKind = iota + 1
	// AddressRoom targets every connection joined to a room's channel.
	AddressRoom
)

func (k AddressKind) String() string {
	switch k {
	case AddressConnection:
		return "connection"
	case AddressRoom:
		return "room"
	default:
		return fmt.Sprintf("AddressKind(%d)", int(k))
	}
}

// Address is the destination of an outbound event. Connection ids and room
// ids live in separate namespaces; a room called like a connection id never
// receives that connection's unicast traffic.
type Address struct {
	Kind AddressKind
	ID   string
}

// ToConnection addresses a single connection.
func ToConnection(id string) Address {
	return Address{Kind: AddressConnection, ID: id}
}

// ToRoom addresses the channel named after a room.
func ToRoom(roomID string) Address {
	return Address{Kind: AddressRoom, ID: roomID}
}

func (a Address) String() string {
	return a.Kind.String() + ":" + a.ID
}
