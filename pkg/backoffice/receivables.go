package backoffice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/samvad-hq/backoffice/pkg/publishers"
	"github.com/tidwall/gjson"
)

const resourceReceivable = "receber"

// Receivable statuses.
const (
	ReceivableOpen    = "Aberto"
	ReceivablePartial = "Parcial"
	ReceivableLate    = "Atrasado"
	ReceivableClosed  = "Fechado"
)

// Receivable is an amount owed by a client. Dates are yyyy-MM-dd.
type Receivable struct {
	ID             int      `json:"id"`
	Status         string   `json:"status"`
	ClienteID      int      `json:"clienteId"`
	ClienteNome    *string  `json:"clienteNome,omitempty"`
	Cidade         *string  `json:"cidade,omitempty"`
	Ficha          *string  `json:"ficha,omitempty"`
	Vencimento     string   `json:"vencimento"`
	ValorReceber   float64  `json:"valorReceber"`
	Parcelas       float64  `json:"parcelas"`
	FormaPagamento *string  `json:"formaPagamento,omitempty"`
	Categoria      *string  `json:"categoria,omitempty"`
	DataReceber    *string  `json:"dataReceber,omitempty"`
	ValorPago      *float64 `json:"valorPago,omitempty"`
	Custos         *float64 `json:"custos,omitempty"`
	Descontos      *float64 `json:"descontos,omitempty"`
	ValorEmAberto  *float64 `json:"valorEmAberto,omitempty"`
	Obs            *string  `json:"obs,omitempty"`
	MelhorDia      *int     `json:"melhorDia,omitempty"`
	Empresa        *string  `json:"empresa,omitempty"`
	CreatedAt      *string  `json:"createdAt,omitempty"`
}

// ReceivableInput is the editable shape of a receivable. ID zero creates one.
type ReceivableInput struct {
	ID             int      `json:"-"`
	Status         string   `json:"status,omitempty"`
	ClienteID      int      `json:"clienteId"`
	Vencimento     string   `json:"vencimento"`
	ValorReceber   float64  `json:"valorReceber"`
	Parcelas       int      `json:"parcelas"`
	FormaPagamento *string  `json:"formaPagamento"`
	Categoria      *string  `json:"categoria"`
	DataReceber    *string  `json:"dataReceber"`
	ValorPago      *float64 `json:"valorPago"`
	Custos         *float64 `json:"custos"`
	Descontos      *float64 `json:"descontos"`
	ValorEmAberto  *float64 `json:"valorEmAberto"`
	Obs            *string  `json:"obs"`
	MelhorDia      *int     `json:"melhorDia"`
	Empresa        *string  `json:"empresa"`
}

func (in ReceivableInput) validate() error {
	switch {
	case in.ClienteID == 0:
		return invalid("clienteId", "select a client")
	case in.Vencimento == "":
		return invalid("vencimento", "is required")
	case in.ValorReceber <= 0:
		return invalid("valorReceber", "must be positive")
	}
	return nil
}

// Received is a payment already collected.
type Received struct {
	ID        int     `json:"id"`
	IDReceber int     `json:"idReceber"`
	Cobrador  *string `json:"cobrador,omitempty"`
	Cliente   *string `json:"cliente,omitempty"`
	Ficha     *string `json:"ficha,omitempty"`
	Recebido  string  `json:"recebido"`
	ValorPago float64 `json:"valorPago"`
	Cidade    *string `json:"cidade,omitempty"`
}

// PaymentLine is one payment made against a receivable.
type PaymentLine struct {
	ID             int     `json:"id"`
	ValorPago      float64 `json:"valorPago"`
	FormaPagamento string  `json:"formaPagamento"`
	DataPagamento  string  `json:"dataPagamento"`
}

// normalizeReceivable reads a receivable whose client may be embedded as an
// object or flattened into clienteId/clienteNome.
func normalizeReceivable(r gjson.Result) Receivable {
	rec := Receivable{
		ID:             int(r.Get("id").Int()),
		Status:         r.Get("status").String(),
		ClienteID:      int(first(r, "cliente.id", "clienteId").Int()),
		ClienteNome:    clientName(r),
		Cidade:         optString(first(r, "cidade", "cliente.cidade")),
		Ficha:          optString(first(r, "cliente.ficha", "ficha", "recibo")),
		Vencimento:     toISO(r.Get("vencimento").String()),
		ValorReceber:   number(r.Get("valorReceber")),
		Parcelas:       1,
		FormaPagamento: optString(first(r, "formaPagamento", "pagamento")),
		Categoria:      optString(r.Get("categoria")),
		DataReceber:    optISO(r.Get("dataReceber")),
		ValorPago:      optNumber(r.Get("valorPago")),
		Custos:         optNumber(r.Get("custos")),
		Descontos:      optNumber(r.Get("descontos")),
		ValorEmAberto:  optNumber(r.Get("valorEmAberto")),
		Obs:            optString(r.Get("obs")),
		MelhorDia:      optInt(r.Get("melhorDia")),
		Empresa:        optString(r.Get("empresa")),
		CreatedAt:      optString(r.Get("createdAt")),
	}
	if p := r.Get("parcelas"); present(p) {
		rec.Parcelas = number(p)
	}
	return rec
}

func clientName(r gjson.Result) *string {
	if v := first(r, "cliente.razaoSocial", "clienteNome"); present(v) {
		return optString(v)
	}
	if c := r.Get("cliente"); c.Type == gjson.String {
		return optString(c)
	}
	return nil
}

// ListReceivables returns every receivable.
func (s *Service) ListReceivables(ctx context.Context, opts *httpclient.Options) ([]Receivable, error) {
	res, err := s.http.Do(ctx, http.MethodGet, "/receber", nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	items := array(res.Body)
	out := make([]Receivable, 0, len(items))
	for _, it := range items {
		rec := normalizeReceivable(it)
		// list rows never read the embedded client's ficha
		rec.Ficha = optString(first(it, "ficha", "recibo"))
		out = append(out, rec)
	}
	return out, nil
}

// GetReceivable returns one receivable.
func (s *Service) GetReceivable(ctx context.Context, id int, opts *httpclient.Options) (Receivable, error) {
	res, err := s.http.Do(ctx, http.MethodGet, itemPath("/receber", id), nil, opts)
	if err != nil {
		return Receivable{}, fmt.Errorf("get receivable %d: %w", id, err)
	}
	rec := normalizeReceivable(gjson.ParseBytes(res.Body))
	rec.CreatedAt = nil
	return rec, nil
}

// SaveReceivable validates and creates or updates a receivable.
func (s *Service) SaveReceivable(ctx context.Context, in ReceivableInput, opts *httpclient.Options) (Receivable, error) {
	if err := in.validate(); err != nil {
		return Receivable{}, err
	}
	if in.Parcelas == 0 {
		in.Parcelas = 1
	}

	res, err := s.save(ctx, "/receber", in.ID, in, opts)
	if err != nil {
		return Receivable{}, fmt.Errorf("save receivable: %w", err)
	}

	rec := normalizeReceivable(gjson.ParseBytes(res.Body))
	if rec.ID == 0 {
		rec.ID = in.ID
	}
	s.emit(ctx, resourceReceivable, publishers.ActionUpsert, rec.ID, in)
	return rec, nil
}

// DeleteReceivable removes a receivable.
func (s *Service) DeleteReceivable(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, resourceReceivable, "/receber", id, opts)
}

// ListReceived returns payments already collected.
func (s *Service) ListReceived(ctx context.Context, opts *httpclient.Options) ([]Received, error) {
	res, err := s.http.Do(ctx, http.MethodGet, "/recebidos", nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list received: %w", err)
	}
	items := array(res.Body)
	out := make([]Received, 0, len(items))
	for _, r := range items {
		out = append(out, Received{
			ID:        int(r.Get("id").Int()),
			IDReceber: int(first(r, "idReceber", "id_receber").Int()),
			Cobrador:  optString(r.Get("cobrador")),
			Cliente:   optString(r.Get("cliente")),
			Ficha:     optString(r.Get("ficha")),
			Recebido:  toISO(r.Get("recebido").String()),
			ValorPago: number(r.Get("valorPago")),
			Cidade:    optString(r.Get("cidade")),
		})
	}
	return out, nil
}

// ListReceivablePayments returns the payments recorded for one receivable.
func (s *Service) ListReceivablePayments(ctx context.Context, id int, opts *httpclient.Options) ([]PaymentLine, error) {
	res, err := s.http.Do(ctx, http.MethodGet, itemPath("/datapag", id), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list payments of receivable %d: %w", id, err)
	}
	items := array(res.Body)
	out := make([]PaymentLine, 0, len(items))
	for _, p := range items {
		out = append(out, PaymentLine{
			ID:             int(p.Get("id").Int()),
			ValorPago:      number(p.Get("valorPago")),
			FormaPagamento: p.Get("formaPagamento").String(),
			DataPagamento:  toISO(p.Get("dataPagamento").String()),
		})
	}
	return out, nil
}

// ListClientReceivables returns the receivables of one client.
func (s *Service) ListClientReceivables(ctx context.Context, clientID int, opts *httpclient.Options) ([]Receivable, error) {
	res, err := s.http.Do(ctx, http.MethodGet, itemPath("/recebercliente", clientID), nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list receivables of client %d: %w", clientID, err)
	}
	items := array(res.Body)
	out := make([]Receivable, 0, len(items))
	for _, it := range items {
		rec := normalizeReceivable(it)
		if rec.ClienteID == 0 {
			rec.ClienteID = clientID
		}
		out = append(out, rec)
	}
	return out, nil
}
