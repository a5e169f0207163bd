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

// Sector is a user sector.
type Sector struct {
	ID    int    `json:"id"`
	Setor string `json:"setor"`
}

// PaymentMethod is an accepted way of paying.
type PaymentMethod struct {
	ID   int    `json:"id"`
	Tipo string `json:"tipo"`
}

// Category classifies receivables.
type Category struct {
	ID        int    `json:"id"`
	Categoria string `json:"categoria"`
}

// lookup describes one single-field lookup table.
type lookup struct {
	resource string
	path     string
	field    string
	// aliases are read, in order, when field is absent from a row.
	aliases []string
}

var (
	sectors        = lookup{resource: "setor", path: "/setor", field: "setor"}
	paymentMethods = lookup{resource: "pagamento", path: "/pagamento", field: "tipo", aliases: []string{"formasPagamento", "formaPagamento", "descricao"}}
	categories     = lookup{resource: "categoria", path: "/categoria", field: "categoria"}
)

type lookupRow struct {
	id    int
	value string
}

func (s *Service) listLookup(ctx context.Context, l lookup, opts *httpclient.Options) ([]lookupRow, error) {
	res, err := s.http.Do(ctx, http.MethodGet, l.path, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.resource, err)
	}
	items := array(res.Body)
	out := make([]lookupRow, 0, len(items))
	for _, it := range items {
		out = append(out, lookupRow{
			id:    int(it.Get("id").Int()),
			value: first(it, append([]string{l.field}, l.aliases...)...).String(),
		})
	}
	return out, nil
}

func (s *Service) saveLookup(ctx context.Context, l lookup, id int, value string, opts *httpclient.Options) (lookupRow, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return lookupRow{}, invalid(l.field, "is required")
	}

	body := map[string]string{l.field: value}
	res, err := s.save(ctx, l.path, id, body, opts)
	if err != nil {
		return lookupRow{}, fmt.Errorf("save %s: %w", l.resource, err)
	}

	row := lookupRow{id: id, value: value}
	if r := gjson.ParseBytes(res.Body); r.IsObject() {
		if got := int(r.Get("id").Int()); got != 0 {
			row.id = got
		}
	}
	s.emit(ctx, l.resource, publishers.ActionUpsert, row.id, body)
	return row, nil
}

// ListSectors returns every sector.
func (s *Service) ListSectors(ctx context.Context, opts *httpclient.Options) ([]Sector, error) {
	rows, err := s.listLookup(ctx, sectors, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Sector, 0, len(rows))
	for _, r := range rows {
		out = append(out, Sector{ID: r.id, Setor: r.value})
	}
	return out, nil
}

// SaveSector creates (id zero) or renames a sector.
func (s *Service) SaveSector(ctx context.Context, id int, name string, opts *httpclient.Options) (Sector, error) {
	row, err := s.saveLookup(ctx, sectors, id, name, opts)
	return Sector{ID: row.id, Setor: row.value}, err
}

// DeleteSector removes a sector.
func (s *Service) DeleteSector(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, sectors.resource, sectors.path, id, opts)
}

// ListPaymentMethods returns every payment method.
func (s *Service) ListPaymentMethods(ctx context.Context, opts *httpclient.Options) ([]PaymentMethod, error) {
	rows, err := s.listLookup(ctx, paymentMethods, opts)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentMethod, 0, len(rows))
	for _, r := range rows {
		out = append(out, PaymentMethod{ID: r.id, Tipo: r.value})
	}
	return out, nil
}

// SavePaymentMethod creates (id zero) or renames a payment method.
func (s *Service) SavePaymentMethod(ctx context.Context, id int, tipo string, opts *httpclient.Options) (PaymentMethod, error) {
	row, err := s.saveLookup(ctx, paymentMethods, id, tipo, opts)
	return PaymentMethod{ID: row.id, Tipo: row.value}, err
}

// DeletePaymentMethod removes a payment method.
func (s *Service) DeletePaymentMethod(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, paymentMethods.resource, paymentMethods.path, id, opts)
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context, opts *httpclient.Options) ([]Category, error) {
	rows, err := s.listLookup(ctx, categories, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, Category{ID: r.id, Categoria: r.value})
	}
	return out, nil
}

// SaveCategory creates (id zero) or renames a category.
func (s *Service) SaveCategory(ctx context.Context, id int, name string, opts *httpclient.Options) (Category, error) {
	row, err := s.saveLookup(ctx, categories, id, name, opts)
	return Category{ID: row.id, Categoria: row.value}, err
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int, opts *httpclient.Options) error {
	return s.remove(ctx, categories.resource, categories.path, id, opts)
}
