package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/samvad-hq/backoffice/pkg/publishers"
)

const (
	resourceClient = "cliente"

	defaultClientStatus    = "Ativo"
	defaultClientSituation = "Liberado"
)

// Employee is the short staff reference used by clients and select lists.
type Employee struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

// Client is a customer record as returned by the backend.
type Client struct {
	ID                    int       `json:"id"`
	RazaoSocial           string    `json:"razaoSocial"`
	Cidade                string    `json:"cidade"`
	Contato               string    `json:"contato,omitempty"`
	CPF                   *string   `json:"cpf,omitempty"`
	CNPJ                  *string   `json:"cnpj,omitempty"`
	FuncionarioPrincipal  *Employee `json:"funcionarioPrincipal,omitempty"`
	FuncionarioSecundario *Employee `json:"funcionarioSecundario,omitempty"`
	Status                *string   `json:"status,omitempty"`
	Email                 *string   `json:"email,omitempty"`
	Fantasia              *string   `json:"fantasia,omitempty"`
	CEP                   *string   `json:"cep,omitempty"`
	Endereco              *string   `json:"endereco,omitempty"`
	Num                   *string   `json:"num,omitempty"`
	Bairro                *string   `json:"bairro,omitempty"`
	UF                    *string   `json:"uf,omitempty"`
	PontoReferencia       *string   `json:"pontoReferencia,omitempty"`
	Telefone2             *string   `json:"telefone_2,omitempty"`
	Obs                   *string   `json:"obs,omitempty"`
	Ficha                 *string   `json:"ficha,omitempty"`
	Situacao              *string   `json:"situacao,omitempty"`
	VencimentoCertificado *string   `json:"vencimentoCertificado,omitempty"`
	VencimentoContrato    *string   `json:"vencimentoContrato,omitempty"`
}

// ClientInput is the editable shape of a client. ID zero creates a new record.
// FuncionarioPrincipalID is the seller and FuncionarioSecundarioID the collector.
type ClientInput struct {
	ID                      int    `json:"-"`
	RazaoSocial             string `json:"razaoSocial"`
	Contato                 string `json:"contato"`
	CPF                     string `json:"cpf"`
	CNPJ                    string `json:"cnpj"`
	FuncionarioPrincipalID  int    `json:"funcionarioPrincipalId"`
	FuncionarioSecundarioID int    `json:"funcionarioSecundarioId"`
	Status                  string `json:"status"`
	Email                   string `json:"email"`
	Fantasia                string `json:"fantasia"`
	CEP                     string `json:"cep"`
	Endereco                string `json:"endereco"`
	Num                     string `json:"num"`
	Bairro                  string `json:"bairro"`
	UF                      string `json:"uf"`
	Cidade                  string `json:"cidade"`
	PontoReferencia         string `json:"pontoReferencia"`
	Telefone2               string `json:"telefone_2"`
	Obs                     string `json:"obs"`
	Ficha                   string `json:"ficha"`
	Situacao                string `json:"situacao"`
}

type clientPayload struct {
	CNPJ                    *string `json:"cnpj"`
	CPF                     *string `json:"cpf"`
	Email                   *string `json:"email"`
	Fantasia                *string `json:"fantasia"`
	CEP                     *string `json:"cep"`
	Endereco                *string `json:"endereco"`
	Num                     *string `json:"num"`
	Bairro                  *string `json:"bairro"`
	UF                      *string `json:"uf"`
	Cidade                  *string `json:"cidade"`
	PontoReferencia         *string `json:"pontoReferencia"`
	Telefone2               *string `json:"telefone_2"`
	Obs                     *string `json:"obs"`
	Ficha                   *string `json:"ficha"`
	Status                  string  `json:"status"`
	Contato                 string  `json:"contato"`
	RazaoSocial             string  `json:"razaoSocial"`
	FuncionarioPrincipalID  int     `json:"funcionarioPrincipalId"`
	FuncionarioSecundarioID int     `json:"funcionarioSecundarioId"`
	Situacao                string  `json:"situacao"`
}

// clientPayloadFrom maps the input to the backend body: optional blanks become
// null and status/situacao get their defaults.
func clientPayloadFrom(in ClientInput) clientPayload {
	p := clientPayload{
		CNPJ:                    emptyToNil(in.CNPJ),
		CPF:                     emptyToNil(in.CPF),
		Email:                   emptyToNil(in.Email),
		Fantasia:                emptyToNil(in.Fantasia),
		CEP:                     emptyToNil(in.CEP),
		Endereco:                emptyToNil(in.Endereco),
		Num:                     emptyToNil(in.Num),
		Bairro:                  emptyToNil(in.Bairro),
		UF:                      emptyToNil(in.UF),
		Cidade:                  emptyToNil(in.Cidade),
		PontoReferencia:         emptyToNil(in.PontoReferencia),
		Telefone2:               emptyToNil(in.Telefone2),
		Obs:                     emptyToNil(in.Obs),
		Ficha:                   emptyToNil(in.Ficha),
		Status:                  in.Status,
		Contato:                 in.Contato,
		RazaoSocial:             in.RazaoSocial,
		FuncionarioPrincipalID:  in.FuncionarioPrincipalID,
		FuncionarioSecundarioID: in.FuncionarioSecundarioID,
		Situacao:                in.Situacao,
	}
	if p.Status == "" {
		p.Status = defaultClientStatus
	}
	if p.Situacao == "" {
		p.Situacao = defaultClientSituation
	}
	return p
}

// ListClients returns every client.
func (s *Service) ListClients(ctx context.Context, opts *httpclient.Options) ([]Client, error) {
	out, err := httpclient.Get[[]Client](ctx, s.http, "/cliente", opts)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// GetClient returns one client by id.
func (s *Service) GetClient(ctx context.Context, id int, opts *httpclient.Options) (Client, error) {
	out, err := httpclient.Get[Client](ctx, s.http, itemPath("/cliente", id), opts)
	if err != nil {
		return Client{}, fmt.Errorf("get client %d: %w", id, err)
	}
	return out, nil
}

// SaveClient creates or updates a client. A 409 from the backend is reported
// as ErrDuplicateClient.
func (s *Service) SaveClient(ctx context.Context, in ClientInput, opts *httpclient.Options) (Client, error) {
	if strings.TrimSpace(in.RazaoSocial) == "" {
		return Client{}, invalid("razaoSocial", "is required")
	}

	payload := clientPayloadFrom(in)
	res, err := s.save(ctx, "/cliente", in.ID, payload, withJSON(opts))
	if err != nil {
		if httpclient.IsStatus(err, http.StatusConflict) {
			return Client{}, fmt.Errorf("save client: %w: %w", ErrDuplicateClient, err)
		}
		return Client{}, fmt.Errorf("save client: %w", err)
	}

	var out Client
	if err := res.Decode(&out); err != nil {
		return Client{}, fmt.Errorf("save client: %w", err)
	}
	if out.ID == 0 {
		out.ID = in.ID
	}
	s.emit(ctx, resourceClient, publishers.ActionUpsert, out.ID, payload)
	return out, nil
}

// DeleteClient removes a client.
func (s *Service) DeleteClient(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, resourceClient, "/cliente", id, opts)
}

// ListSellers returns the employees that can be a client's seller.
func (s *Service) ListSellers(ctx context.Context, opts *httpclient.Options) ([]Employee, error) {
	out, err := httpclient.Get[[]Employee](ctx, s.http, "/vendedor", opts)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	return out, nil
}

// ListCollectors returns the employees that can be a client's collector.
func (s *Service) ListCollectors(ctx context.Context, opts *httpclient.Options) ([]Employee, error) {
	out, err := httpclient.Get[[]Employee](ctx, s.http, "/cobrador", opts)
	if err != nil {
		return nil, fmt.Errorf("list collectors: %w", err)
	}
	return out, nil
}

// IsDuplicateClient reports whether err came from a rejected duplicate client.
func IsDuplicateClient(err error) bool {
	return errors.Is(err, ErrDuplicateClient)
}
