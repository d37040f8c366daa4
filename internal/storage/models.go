package storage

// Summary is the aggregate session count report served by the status
// endpoint.
type Summary struct {
	TotalSessions int `json:"totalSessions"`
	Waiting       int `json:"waiting"`
	Active        int `json:"active"`
	Finished      int `json:"finished"`
	Battleship    int `json:"battleship"`
	Gomoku        int `json:"gomoku"`
	Draws         int `json:"draws"`
}
