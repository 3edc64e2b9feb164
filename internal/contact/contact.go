// Package contact handles the storefront contact form.
package contact

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"go.uber.org/zap"
)

const DefaultDelay = time.Second

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

type Form struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	FileName string `json:"file_name,omitempty"`
}

// Validate requires a name, a well-formed email and a message.
func (f Form) Validate() error {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Name is required"
	}
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Email is invalid"
	}
	if strings.TrimSpace(f.Message) == "" {
		errs["message"] = "Message is required"
	}
	return errs.Err()
}

type Service struct {
	delay time.Duration
	log   *zap.Logger
}

func NewService(delay time.Duration, log *zap.Logger) *Service {
	if delay < 0 {
		delay = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{delay: delay, log: log}
}

// Submit validates the form, waits out the simulated delivery and records the message.
func (s *Service) Submit(ctx context.Context, f Form) error {
	if err := f.Validate(); err != nil {
		return err
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("contact form submitted",
		zap.String("name", strings.TrimSpace(f.Name)),
		zap.String("email", strings.TrimSpace(f.Email)),
		zap.String("subject", f.Subject),
		zap.Int("message_length", len(f.Message)),
		zap.String("file_name", f.FileName))
	return nil
}
