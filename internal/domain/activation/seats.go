package activation

// SeatUsage is a snapshot of a license's seat consumption.
type SeatUsage struct {
	Limit int `json:"seat_limit"`
	Used  int `json:"seats_used"`
}

// Remaining is Limit minus Used, clamped at zero.
func (u SeatUsage) Remaining() int {
	if r := u.Limit - u.Used; r > 0 {
		return r
	}
	return 0
}

// HasCapacity reports whether one more seat fits.
func (u SeatUsage) HasCapacity() bool {
	return u.Used < u.Limit
}
