package btreemap

func BorrowState(m *Map) (shared int, exclusive bool) { return m.cell.Borrowed() }
