package model

// Item is a single entry of a List.
// Order is assigned once at creation and never renumbered, so gaps are normal.
type Item struct {
	ID       string `json:"id"`
	Order    int    `json:"order"`
	Content  string `json:"content"`
	Complete bool   `json:"complete"`
}
