package scheduler

// AvailableSlots is the admission decision for one tick: how many new
// executions may start given the configured cap and the durable in-flight
// count.
func AvailableSlots(maxWorkers, inFlight int) int {
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	slots := maxWorkers - inFlight
	if slots < 0 {
		return 0
	}
	return slots
}
