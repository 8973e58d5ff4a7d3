package ws

import "github.com/jobboard/tracker/internal/view"

type BaseMessage struct {
	Type string `json:"type"`
}

// Client → Server

type FilterMessage struct {
	Type   string `json:"type"`
	Filter string `json:"filter"`
}

type ToggleMessage struct {
	Type   string `json:"type"`
	ID     *int   `json:"id"`
	Status string `json:"status"`
}

type DeleteMessage struct {
	Type string `json:"type"`
	ID   *int   `json:"id"`
}

// Server → Client

type ViewMessage struct {
	Type string    `json:"type"`
	View view.Page `json:"view"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
