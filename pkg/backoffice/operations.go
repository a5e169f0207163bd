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
	resourceOperation = "operacao"

	defaultOperationStatus = "Aberto"
)

// Operation statuses.
const (
	OperationOpen       = "Aberto"
	OperationInProgress = "Andamento"
	OperationLate       = "Atrasado"
	OperationDone       = "Finalizado"
	OperationCancelled  = "Cancelado"
)

// UserRef is the short user reference embedded in operations.
type UserRef struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

// Operation is an agenda entry. Dates are yyyy-MM-dd.
type Operation struct {
	ID            int     `json:"id"`
	Atividade     string  `json:"atividade"`
	Status        string  `json:"status"`
	StartTime     *string `json:"startTime"`
	EndTime       *string `json:"endTime"`
	StartDate     string  `json:"startDate"`
	EndDate       *string `json:"endDate"`
	ClosingDate   *string `json:"closingDate"`
	ValorOperacao float64 `json:"valorOperacao"`
	Obs           *string `json:"obs"`
	Motivo        *string `json:"motivo"`
	Usuario       UserRef `json:"usuario"`
}

// OperationInput is the editable shape of an operation. ID zero creates one.
type OperationInput struct {
	ID            int     `json:"-"`
	Atividade     string  `json:"atividade"`
	StartTime     string  `json:"startTime"`
	EndTime       *string `json:"endTime"`
	ValorOperacao float64 `json:"valorOperacao"`
	Status        string  `json:"status"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	ClosingDate   *string `json:"closingDate"`
	Obs           *string `json:"obs"`
	Motivo        *string `json:"motivo"`
	UserID        int     `json:"userId"`
}

func (in OperationInput) validate() error {
	switch {
	case strings.TrimSpace(in.Atividade) == "":
		return invalid("atividade", "is required")
	case strings.TrimSpace(in.StartTime) == "":
		return invalid("startTime", "is required")
	case strings.TrimSpace(in.StartDate) == "":
		return invalid("startDate", "is required")
	case strings.TrimSpace(in.EndDate) == "":
		return invalid("endDate", "is required")
	case in.UserID == 0:
		return invalid("userId", "is required")
	}
	return nil
}

// normalizeOperation reads an operation leniently: dates may arrive as
// dd/MM/yyyy and startDate falls back to createdAt.
func normalizeOperation(r gjson.Result) Operation {
	op := Operation{
		ID:            int(r.Get("id").Int()),
		Atividade:     r.Get("atividade").String(),
		Status:        r.Get("status").String(),
		StartTime:     optString(r.Get("startTime")),
		EndTime:       optString(r.Get("endTime")),
		StartDate:     dashedToISO(firstFilled(r, "startDate", "createdAt").String()),
		EndDate:       optDashedISO(r.Get("endDate")),
		ClosingDate:   optDashedISO(r.Get("closingDate")),
		ValorOperacao: number(r.Get("valorOperacao")),
		Motivo:        optString(r.Get("motivo")),
	}
	if op.Status == "" {
		op.Status = defaultOperationStatus
	}
	if obs := r.Get("obs").String(); obs != "" {
		op.Obs = &obs
	}
	if u := r.Get("usuario"); u.IsObject() {
		op.Usuario = UserRef{ID: int(u.Get("id").Int()), Nome: u.Get("nome").String()}
	}
	return op
}

func optDashedISO(v gjson.Result) *string {
	if !present(v) || v.String() == "" {
		return nil
	}
	s := dashedToISO(v.String())
	return &s
}

// ListOperations returns every agenda entry.
func (s *Service) ListOperations(ctx context.Context, opts *httpclient.Options) ([]Operation, error) {
	res, err := s.http.Do(ctx, http.MethodGet, "/operacoes", nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	items := array(res.Body)
	out := make([]Operation, 0, len(items))
	for _, it := range items {
		out = append(out, normalizeOperation(it))
	}
	return out, nil
}

// GetOperation returns one agenda entry.
func (s *Service) GetOperation(ctx context.Context, id int, opts *httpclient.Options) (Operation, error) {
	res, err := s.http.Do(ctx, http.MethodGet, itemPath("/operacao", id), nil, opts)
	if err != nil {
		return Operation{}, fmt.Errorf("get operation %d: %w", id, err)
	}
	return normalizeOperation(gjson.ParseBytes(res.Body)), nil
}

// SaveOperation validates and creates or updates an agenda entry.
func (s *Service) SaveOperation(ctx context.Context, in OperationInput, opts *httpclient.Options) (Operation, error) {
	if err := in.validate(); err != nil {
		return Operation{}, err
	}
	in.Atividade = strings.TrimSpace(in.Atividade)

	res, err := s.save(ctx, "/operacao", in.ID, in, opts)
	if err != nil {
		return Operation{}, fmt.Errorf("save operation: %w", err)
	}

	op := normalizeOperation(gjson.ParseBytes(res.Body))
	if op.ID == 0 {
		op.ID = in.ID
	}
	s.emit(ctx, resourceOperation, publishers.ActionUpsert, op.ID, in)
	return op, nil
}

// DeleteOperation removes an agenda entry.
func (s *Service) DeleteOperation(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, resourceOperation, "/operacao", id, opts)
}
