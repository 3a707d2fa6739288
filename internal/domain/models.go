package domain

// Models lists every persisted type, in migration order.
func Models() []interface{} {
	return []interface{}{&Strategy{}, &Holding{}, &AllocationTarget{}}
}
