package service

import (
	"context"

	"rewards-admin/internal/util"
)

// CodeSender delivers a recovery code to the admin. Delivery is a
// collaborator concern; the auth service never puts codes in responses.
type CodeSender interface {
	SendRecoveryCode(ctx context.Context, email, code string) error
}

// LogCodeSender writes the code to the service log. Development only;
// production deployments plug in a real mail sender.
type LogCodeSender struct{}

func NewLogCodeSender() *LogCodeSender {
	return &LogCodeSender{}
}

func (s *LogCodeSender) SendRecoveryCode(_ context.Context, email, code string) error {
	util.Info("Recovery code generated",
		util.String("email", email),
		util.String("code", code),
	)
	return nil
}
