package models

// Stats holds row counts reported by GET /stats
type Stats struct {
	Posts    int `json:"posts"`
	Users    int `json:"users"`
	Comments int `json:"comments"`
}
