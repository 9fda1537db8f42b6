package game

// Note is the drawable shape of a map, independent of the judged events.
type Note struct {
	StartT float64 `json:"start_t"` // Seconds
	EndT   float64 `json:"end_t"`   // Seconds, equal to StartT unless a hold
	IsHold bool    `json:"is_hold"`
}

