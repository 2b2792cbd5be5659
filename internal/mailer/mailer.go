package mailer

import "embed"

const (
	FromName                  = "DealerHub"
	maxRetires                = 3
	TestDriveDecisionTemplate = "test_drive_decision.tmpl"
	RestockDecisionTemplate   = "restock_decision.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
