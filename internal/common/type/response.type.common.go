package types

// Response is what every service method hands back to its handler. Code is an
// HTTP status; Error is kept out of the JSON body and rendered as a message.
type Response struct {
	Code    int
	Message string
	Data    any
	Error   error
	Meta    map[string]any
}

// ResponseAPI is the JSON envelope written to the client.
type ResponseAPI struct {
	Status  int            `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}
