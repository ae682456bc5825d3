package model

import "fmt"

// Notice reports a collaborator failure that left the local change in place.
type Notice struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

func NewNotice(operation string, err error) *Notice {
	return &Notice{Operation: operation, Message: err.Error()}
}

func (n *Notice) String() string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", n.Operation, n.Message)
}
