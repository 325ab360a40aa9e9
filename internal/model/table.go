package model

// Table is a physical restaurant table.  Tables are seeded by migrations and
// are not modified by the reservation flow; reservations only reference them.
//
// Fields:
//  ID     – primary key identifier.
//  Number – display number printed on the table, unique.
//  Seats  – seating capacity, always positive.
type Table struct {
	ID     uint64 `json:"id"`     // restaurant_tables.id
	Number uint32 `json:"number"` // restaurant_tables.number
	Seats  uint32 `json:"seats"`  // restaurant_tables.seats
}

// Fits reports whether the table can seat a party of the given size.
func (t Table) Fits(partySize int) bool {
	return partySize > 0 && uint64(partySize) <= uint64(t.Seats)
}
