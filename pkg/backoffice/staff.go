package backoffice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/samvad-hq/backoffice/pkg/publishers"
	"github.com/tidwall/gjson"
)

const (
	resourceEmployee = "funcionario"
	resourceUser     = "usuario"

	// SectorSeller and SectorCollector are the two employee sectors.
	SectorSeller    = "vendedor"
	SectorCollector = "cobrador"
)

// StaffMember is an employee assigned to sales or collection.
type StaffMember struct {
	ID    int    `json:"id"`
	Nome  string `json:"nome"`
	Setor string `json:"setor"`
}

// StaffInput is the editable shape of an employee. ID zero creates one.
type StaffInput struct {
	ID    int    `json:"-"`
	Nome  string `json:"nome"`
	Setor string `json:"setor"`
}

// ListStaff returns every employee.
func (s *Service) ListStaff(ctx context.Context, opts *httpclient.Options) ([]StaffMember, error) {
	out, err := httpclient.Get[[]StaffMember](ctx, s.http, "/funcionario", opts)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// GetStaff returns one employee.
func (s *Service) GetStaff(ctx context.Context, id int, opts *httpclient.Options) (StaffMember, error) {
	out, err := httpclient.Get[StaffMember](ctx, s.http, itemPath("/funcionario", id), opts)
	if err != nil {
		return StaffMember{}, fmt.Errorf("get employee %d: %w", id, err)
	}
	return out, nil
}

// SaveStaff creates or updates an employee.
func (s *Service) SaveStaff(ctx context.Context, in StaffInput, opts *httpclient.Options) (StaffMember, error) {
	in.Nome = strings.TrimSpace(in.Nome)
	if in.Nome == "" {
		return StaffMember{}, invalid("nome", "is required")
	}
	if in.Setor != SectorSeller && in.Setor != SectorCollector {
		return StaffMember{}, invalid("setor", fmt.Sprintf("must be %q or %q", SectorSeller, SectorCollector))
	}

	res, err := s.save(ctx, "/funcionario", in.ID, in, withJSON(opts))
	if err != nil {
		return StaffMember{}, fmt.Errorf("save employee: %w", err)
	}
	var out StaffMember
	if err := res.Decode(&out); err != nil {
		return StaffMember{}, fmt.Errorf("save employee: %w", err)
	}
	if out.ID == 0 {
		out.ID = in.ID
	}
	s.emit(ctx, resourceEmployee, publishers.ActionUpsert, out.ID, in)
	return out, nil
}

// DeleteStaff removes an employee.
func (s *Service) DeleteStaff(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, resourceEmployee, "/funcionario", id, opts)
}

// User roles.
const (
	RoleDefault   = "0"
	RoleAdmin     = "1"
	RoleRecruiter = "2"
)

// User is a backoffice login.
type User struct {
	ID      int     `json:"id"`
	Nome    string  `json:"nome"`
	Email   string  `json:"email"`
	Empresa *string `json:"empresa,omitempty"`
	Rule    string  `json:"rule"`
	Setor   *Sector `json:"setor,omitempty"`
}

// UserInput is the editable shape of a user. Senha is sent only when set.
type UserInput struct {
	ID      int     `json:"-"`
	Nome    string  `json:"nome"`
	Email   string  `json:"email"`
	Senha   string  `json:"senha,omitempty"`
	Empresa *string `json:"empresa"`
	Rule    string  `json:"rule"`
	SetorID *int    `json:"setorId"`
}

// normalizeUser accepts rule as either a string or a number.
func normalizeUser(r gjson.Result) User {
	u := User{
		ID:      int(r.Get("id").Int()),
		Nome:    r.Get("nome").String(),
		Email:   r.Get("email").String(),
		Empresa: optString(r.Get("empresa")),
		Rule:    r.Get("rule").String(),
	}
	if st := r.Get("setor"); st.IsObject() {
		u.Setor = &Sector{ID: int(st.Get("id").Int()), Setor: st.Get("setor").String()}
	}
	return u
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context, opts *httpclient.Options) ([]User, error) {
	res, err := s.http.Do(ctx, http.MethodGet, "/usuario", nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	items := array(res.Body)
	out := make([]User, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeUser(it))
	}
	return out, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int, opts *httpclient.Options) (User, error) {
	res, err := s.http.Do(ctx, http.MethodGet, itemPath("/usuario", id), nil, opts)
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return normalizeUser(gjson.ParseBytes(res.Body)), nil
}

// SaveUser creates or updates a user.
func (s *Service) SaveUser(ctx context.Context, in UserInput, opts *httpclient.Options) (User, error) {
	if strings.TrimSpace(in.Nome) == "" {
		return User{}, invalid("nome", "is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return User{}, invalid("email", "is required")
	}
	if in.ID == 0 && in.Senha == "" {
		return User{}, invalid("senha", "is required for new users")
	}

	res, err := s.save(ctx, "/usuario", in.ID, in, withJSON(opts))
	if err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	u := normalizeUser(gjson.ParseBytes(res.Body))
	if u.ID == 0 {
		u.ID = in.ID
	}

	in.Senha = ""
	s.emit(ctx, resourceUser, publishers.ActionUpsert, u.ID, in)
	return u, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, resourceUser, "/usuario", id, opts)
}

// RequestPasswordToken starts the password recovery flow for email.
func (s *Service) RequestPasswordToken(ctx context.Context, email string, opts *httpclient.Options) (string, error) {
	res, err := s.http.Do(ctx, http.MethodPost, "/token", httpclient.JSON(map[string]string{"email": email}), withJSON(opts))
	if err != nil {
		return "", fmt.Errorf("request password token: %w", err)
	}
	return gjson.GetBytes(res.Body, "token").String(), nil
}

// ResetPassword sets a new password using a recovery token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string, opts *httpclient.Options) error {
	if token == "" {
		return invalid("token", "is required")
	}
	if newPassword == "" {
		return invalid("novaSenha", "is required")
	}
	body := map[string]string{"token": token, "novaSenha": newPassword}
	if _, err := s.http.Do(ctx, http.MethodPut, "/token", httpclient.JSON(body), withJSON(opts)); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
