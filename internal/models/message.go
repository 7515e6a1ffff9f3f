package models

type MessageType int

const (
	User MessageType = iota
	Program
	Step
	Notice
	Failure
)

type Message struct {
	Content string
	Type    MessageType
	// Additional fields for step messages
	ToolName string // Tool that produced the step
	Category string // Outcome category the router assigned to the step
}
