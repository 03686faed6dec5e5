// Package staging turns staff submissions into change-sets attached to a
// record without touching the record's live fields.
package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/schema"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes write-only secrets before they reach a record.
type Hasher func(plain string) (string, error)

func BcryptHasher(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type Stager struct {
	validate *validator.Validate
	hash     Hasher
	now      func() time.Time
}

type Option func(*Stager)

func WithHasher(h Hasher) Option {
	return func(s *Stager) { s.hash = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *Stager) { s.now = now }
}

func New(opts ...Option) *Stager {
	s := &Stager{
		validate: validator.New(),
		hash:     BcryptHasher,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build validates a full draft and returns an unsaved record carrying it.
// The review state is left zero; callers decide pending or approved.
func (s *Stager) Build(t domain.EntityType, draft map[string]any) (domain.Record, []string, error) {
	tbl, err := schema.For(t)
	if err != nil {
		return nil, nil, err
	}

	values := make(map[string]any, len(draft))
	problems := map[string]string{}
	for key, raw := range draft {
		fd, ok := tbl.Descriptor(key)
		if !ok {
			problems[key] = "unknown field"
			continue
		}
		v, msg := s.check(fd, raw)
		if msg != "" {
			problems[key] = msg
			continue
		}
		values[key] = v
	}
	for _, fd := range tbl.Fields {
		if fd.Required && schema.IsEmpty(values[fd.Name]) && problems[fd.Name] == "" {
			problems[fd.Name] = "is required"
		}
	}
	if len(problems) > 0 {
		return nil, nil, apperr.Validation(problems)
	}

	rec, err := s.materialize(tbl, values)
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(draft))
	for k := range draft {
		keys = append(keys, k)
	}
	return rec, tbl.Order(keys), nil
}

// NormalizeDelta validates an update delta and returns it in stored form.
func (s *Stager) NormalizeDelta(t domain.EntityType, delta map[string]any) (map[string]any, error) {
	tbl, err := schema.For(t)
	if err != nil {
		return nil, err
	}
	if len(delta) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}

	out := make(map[string]any, len(delta))
	problems := map[string]string{}
	for key, raw := range delta {
		fd, ok := tbl.Descriptor(key)
		switch {
		case !ok || (fd.Hidden && !fd.CreateOnly):
			problems[key] = "unknown field"
			continue
		case fd.CreateOnly:
			problems[key] = "can only be set on create"
			continue
		}
		v, msg := s.check(fd, raw)
		if msg != "" {
			problems[key] = msg
			continue
		}
		if fd.Required && schema.IsEmpty(v) {
			problems[key] = "is required"
			continue
		}
		out[key] = v
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(problems)
	}
	return out, nil
}

func (s *Stager) ProposeCreate(t domain.EntityType, draft map[string]any, userID string) (domain.Record, error) {
	rec, fields, err := s.Build(t, draft)
	if err != nil {
		return nil, err
	}
	rv := rec.ReviewState()
	rv.Status = domain.RecordStatusActive
	rv.AdminStatus = domain.AdminStatusPending
	rv.Changes = &domain.ChangeSet{
		Type:   domain.ChangeCreate,
		Fields: fields,
		UserID: userID,
		Date:   s.now().UTC(),
	}
	return rec, nil
}

// ProposeUpdate stages delta on a copy of existing. existing is not modified.
func (s *Stager) ProposeUpdate(existing domain.Record, delta map[string]any, userID string) (domain.Record, error) {
	if err := requireApproved(existing); err != nil {
		return nil, err
	}
	values, err := s.NormalizeDelta(existing.EntityType(), delta)
	if err != nil {
		return nil, err
	}
	tbl, _ := schema.For(existing.EntityType())

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}

	rec := domain.CloneRecord(existing)
	rv := rec.ReviewState()
	rv.AdminStatus = domain.AdminStatusPending
	rv.Changes = &domain.ChangeSet{
		Type:          domain.ChangeUpdate,
		Fields:        tbl.Order(keys),
		UpdatedValues: values,
		UserID:        userID,
		Date:          s.now().UTC(),
	}
	return rec, nil
}

func (s *Stager) ProposeDelete(existing domain.Record, userID string) (domain.Record, error) {
	if err := requireApproved(existing); err != nil {
		return nil, err
	}
	rec := domain.CloneRecord(existing)
	rv := rec.ReviewState()
	rv.AdminStatus = domain.AdminStatusPending
	rv.Changes = &domain.ChangeSet{
		Type:   domain.ChangeDelete,
		Fields: []string{},
		UserID: userID,
		Date:   s.now().UTC(),
	}
	return rec, nil
}

func requireApproved(rec domain.Record) error {
	if rec == nil {
		return apperr.Invalid("missing record")
	}
	rv := rec.ReviewState()
	if rv.AdminStatus != domain.AdminStatusApproved || rv.Changes != nil {
		return apperr.Conflict("")
	}
	return nil
}

// check normalizes one value and applies the descriptor's rules. It returns
// a user facing message on failure.
func (s *Stager) check(fd schema.FieldDescriptor, raw any) (any, string) {
	v, err := schema.Normalize(fd, raw)
	if err != nil {
		return nil, err.Error()
	}
	if fd.Rules == "" || schema.IsEmpty(v) {
		return v, ""
	}
	if err := s.validate.Var(v, fd.Rules); err != nil {
		return nil, ruleMessage(fd, err)
	}
	return v, ""
}

func ruleMessage(fd schema.FieldDescriptor, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "is invalid"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	case "numeric":
		return "must be numeric"
	case "min", "max":
		if fd.Kind == schema.KindPhone {
			return "must be 6 to 15 digits"
		}
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

func (s *Stager) materialize(tbl *schema.Table, values map[string]any) (domain.Record, error) {
	rec, ok := domain.NewRecord(tbl.Entity)
	if !ok {
		return nil, apperr.NotFound("entity type", string(tbl.Entity))
	}

	plain := make(map[string]any, len(values))
	secrets := map[string]string{}
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		fd, _ := tbl.Descriptor(name)
		v := values[name]
		if fd.Kind == schema.KindSecret {
			if sv, _ := v.(string); sv != "" {
				secrets[name] = sv
			}
			continue
		}
		col, err := schema.ColumnValue(fd, v)
		if err != nil {
			return nil, apperr.Validation(map[string]string{name: err.Error()})
		}
		plain[name] = col
	}

	b, err := json.Marshal(plain)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, err
	}

	if len(secrets) > 0 {
		setter, ok := rec.(domain.SecretSetter)
		if !ok {
			return nil, apperr.Invalid("entity does not accept secrets")
		}
		for name, plainText := range secrets {
			hashed, err := s.hash(plainText)
			if err != nil {
				return nil, err
			}
			setter.SetSecret(name, hashed)
		}
	}
	return rec, nil
}
