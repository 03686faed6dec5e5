// Package notify mails staff members when an admin resolves their
// proposal. It consumes review events from Kafka.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"

	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/sirupsen/logrus"
)

type UserLookup interface {
	FindUserById(ctx context.Context, userID uint) (*domain.User, error)
}

var resolvedTemplate = template.Must(template.New("resolved").Parse(`<p>Hello {{.Name}},</p>
<p>Your {{.ChangeType}} request for {{.Entity}} <b>{{.ID}}</b> was <b>{{.Outcome}}</b>.</p>`))

type Handler struct {
	users  UserLookup
	mailer Mailer
}

func NewHandler(users UserLookup, mailer Mailer) *Handler {
	return &Handler{users: users, mailer: mailer}
}

// HandleMessage mails the proposer of a resolved change. Other events are
// ignored.
func (h *Handler) HandleMessage(ctx context.Context, key string, value []byte) error {
	var event dto.ReviewEvent
	if err := json.Unmarshal(value, &event); err != nil {
		logrus.WithField("key", key).Warn("invalid review event payload")
		return err
	}
	if event.Event != dto.EventReviewResolved {
		return nil
	}

	log := logrus.WithFields(logrus.Fields{
		"entity":   event.Entity,
		"id":       event.ID,
		"decision": event.Decision,
		"user_id":  event.UserID,
	})

	uid, err := strconv.ParseUint(event.UserID, 10, 64)
	if err != nil || uid == 0 {
		log.Debug("proposer is not a local user, skip mail")
		return nil
	}
	user, err := h.users.FindUserById(ctx, uint(uid))
	if err != nil {
		return fmt.Errorf("find proposer: %w", err)
	}

	body, subject, err := renderResolved(event, user)
	if err != nil {
		return err
	}
	if err := h.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	log.Info("resolution mail sent")
	return nil
}

func renderResolved(event dto.ReviewEvent, user *domain.User) (string, string, error) {
	outcome := "approved"
	if event.Decision == string(domain.DecisionReject) {
		outcome = "rejected"
	}
	name := user.DisplayName
	if name == "" {
		name = user.Email
	}

	var buf bytes.Buffer
	err := resolvedTemplate.Execute(&buf, map[string]string{
		"Name":       name,
		"ChangeType": event.ChangeType,
		"Entity":     event.Entity,
		"ID":         event.ID,
		"Outcome":    outcome,
	})
	if err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("Your %s %s request was %s", event.Entity, event.ChangeType, outcome)
	return buf.String(), subject, nil
}
