package backoffice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/samvad-hq/backoffice/pkg/httpclient"
	"github.com/samvad-hq/backoffice/pkg/publishers"
)

type recordedRequest struct {
	method string
	path   string
	header http.Header
	body   map[string]any
}

// fakeBackend answers each "METHOD /path" with a canned status and body.
type fakeBackend struct {
	mu        sync.Mutex
	responses map[string]cannedResponse
	requests  []recordedRequest
}

type cannedResponse struct {
	status int
	body   string
}

func newFakeBackend(t *testing.T, responses map[string]cannedResponse) (*fakeBackend, *Service, *fakeEvents) {
	t.Helper()
	fb := &fakeBackend{responses: responses}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	client := httpclient.New(httpclient.Config{
		Env: func(key string) string {
			if key == httpclient.EnvAPIURL {
				return srv.URL
			}
			return ""
		},
	})
	events := &fakeEvents{}
	return fb, New(client, WithEvents(events)), events
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, header: r.Header.Clone(), body: body})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

func (f *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("backend received no request")
	}
	return f.requests[len(f.requests)-1]
}

type fakeEvents struct {
	events []publishers.Event
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func TestSaveClientMapsPayload(t *testing.T) {
	fb, svc, events := newFakeBackend(t, map[string]cannedResponse{
		"POST /cliente": {status: http.StatusCreated, body: `{"id":12,"razaoSocial":"Padaria Central","cidade":"Recife"}`},
	})

	got, err := svc.SaveClient(context.Background(), ClientInput{
		RazaoSocial:             "Padaria Central",
		Contato:                 "Ana",
		Cidade:                  "Recife",
		FuncionarioPrincipalID:  3,
		FuncionarioSecundarioID: 4,
	}, &httpclient.Options{Headers: map[string]string{"Content-Type": "text/plain", "X-Trace": "1"}})
	if err != nil {
		t.Fatalf("SaveClient: %v", err)
	}
	if got.ID != 12 || got.Cidade != "Recife" {
		t.Fatalf("unexpected client %#v", got)
	}

	req := fb.last(t)
	if ct := req.header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want forced application/json", ct)
	}
	if req.header.Get("X-Trace") != "1" {
		t.Fatalf("caller headers dropped: %v", req.header)
	}
	if req.body["status"] != "Ativo" || req.body["situacao"] != "Liberado" {
		t.Fatalf("defaults not applied: %v", req.body)
	}
	if v, ok := req.body["cnpj"]; !ok || v != nil {
		t.Fatalf("blank cnpj should be sent as null, got %v (present=%v)", v, ok)
	}
	if req.body["funcionarioPrincipalId"] != float64(3) {
		t.Fatalf("seller id = %v", req.body["funcionarioPrincipalId"])
	}

	if len(events.events) != 1 || events.events[0].Resource != "cliente" || events.events[0].RecordID != "12" {
		t.Fatalf("unexpected events %#v", events.events)
	}
}

func TestSaveClientUpdateUsesPutAndReportsDuplicate(t *testing.T) {
	fb, svc, events := newFakeBackend(t, map[string]cannedResponse{
		"PUT /cliente/5": {status: http.StatusConflict, body: `{"message":"CNPJ já cadastrado"}`},
	})

	_, err := svc.SaveClient(context.Background(), ClientInput{ID: 5, RazaoSocial: "X"}, nil)
	if !IsDuplicateClient(err) {
		t.Fatalf("expected ErrDuplicateClient, got %v", err)
	}
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "CNPJ já cadastrado" {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
	if fb.last(t).method != http.MethodPut {
		t.Fatalf("expected PUT for existing client")
	}
	if len(events.events) != 0 {
		t.Fatalf("failed mutations must not publish events")
	}
}

func TestSaveClientValidation(t *testing.T) {
	_, svc, _ := newFakeBackend(t, nil)
	_, err := svc.SaveClient(context.Background(), ClientInput{}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "razaoSocial" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListOperationsNormalizesDates(t *testing.T) {
	_, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"GET /operacoes": {status: http.StatusOK, body: `[
			{"id":1,"atividade":"Visita","startDate":"05/03/2024","endDate":"2024-03-06","usuario":{"id":2,"nome":"Bia"},"valorOperacao":"150.5"},
			{"id":2,"atividade":"Ligação","createdAt":"2024-02-01T10:00:00Z","obs":""},
			{"id":3,"atividade":"Cobrança","startDate":"","createdAt":"2024-01-15T08:00:00Z"}
		]`},
	})

	ops, err := svc.ListOperations(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
	if ops[0].StartDate != "2024-03-05" || ops[0].EndDate == nil || *ops[0].EndDate != "2024-03-06" {
		t.Fatalf("dates not normalized: %#v", ops[0])
	}
	if ops[0].Usuario.Nome != "Bia" || ops[0].ValorOperacao != 150.5 || ops[0].Status != OperationOpen {
		t.Fatalf("unexpected operation %#v", ops[0])
	}
	if ops[1].StartDate != "2024-02-01T10:00:00Z" || ops[1].Obs != nil || ops[1].EndDate != nil {
		t.Fatalf("createdAt fallback failed: %#v", ops[1])
	}
	if ops[2].StartDate != "2024-01-15T08:00:00Z" {
		t.Fatalf("empty startDate must fall back to createdAt, got %q", ops[2].StartDate)
	}
}

func TestSaveOperationValidatesBeforeSending(t *testing.T) {
	fb, svc, _ := newFakeBackend(t, nil)
	_, err := svc.SaveOperation(context.Background(), OperationInput{Atividade: "Visita", StartTime: "09:00", StartDate: "2024-03-05"}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "endDate" {
		t.Fatalf("expected endDate validation error, got %v", err)
	}
	if len(fb.requests) != 0 {
		t.Fatalf("validation failures must not reach the backend")
	}
}

func TestSaveOperationSendsNulls(t *testing.T) {
	fb, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"POST /operacao": {status: http.StatusCreated, body: `{"id":9,"atividade":"Visita","startDate":"2024-03-05"}`},
	})
	op, err := svc.SaveOperation(context.Background(), OperationInput{
		Atividade: "  Visita ",
		StartTime: "09:00",
		StartDate: "2024-03-05",
		EndDate:   "2024-03-05",
		Status:    OperationOpen,
		UserID:    2,
	}, nil)
	if err != nil {
		t.Fatalf("SaveOperation: %v", err)
	}
	if op.ID != 9 {
		t.Fatalf("unexpected op %#v", op)
	}
	body := fb.last(t).body
	if body["atividade"] != "Visita" {
		t.Fatalf("atividade not trimmed: %v", body["atividade"])
	}
	if v, ok := body["closingDate"]; !ok || v != nil {
		t.Fatalf("closingDate should be null, got %v", v)
	}
}

func TestReceivablesTolerantFields(t *testing.T) {
	_, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"GET /receber": {status: http.StatusOK, body: `[
			{"id":1,"status":"Aberto","cliente":{"id":7,"razaoSocial":"Padaria","cidade":"Olinda","ficha":"F1"},"vencimento":"10/04/2024","valorReceber":"99.9","pagamento":"Pix","recibo":"R1"},
			{"id":2,"status":"Fechado","clienteId":8,"cliente":"Mercado","vencimento":"2024-04-11","valorReceber":10,"parcelas":3,"valorPago":null,"melhorDia":5}
		]`},
		"GET /recebercliente/8": {status: http.StatusOK, body: `[{"id":3,"vencimento":"01/05/2024","valorReceber":1}]`},
		"GET /datapag/1":        {status: http.StatusOK, body: `[{"id":4,"valorPago":"12","dataPagamento":"02/05/2024"}]`},
		"GET /recebidos":        {status: http.StatusOK, body: `[{"id":5,"id_receber":1,"recebido":"03/05/2024","valorPago":7}]`},
	})
	ctx := context.Background()

	list, err := svc.ListReceivables(ctx, nil)
	if err != nil {
		t.Fatalf("ListReceivables: %v", err)
	}
	a, b := list[0], list[1]
	if a.ClienteID != 7 || *a.ClienteNome != "Padaria" || *a.Cidade != "Olinda" || *a.Ficha != "R1" {
		t.Fatalf("embedded client fields wrong: %#v", a)
	}
	if a.Vencimento != "2024-04-10" || a.ValorReceber != 99.9 || a.Parcelas != 1 || *a.FormaPagamento != "Pix" {
		t.Fatalf("normalization wrong: %#v", a)
	}
	if b.ClienteID != 8 || *b.ClienteNome != "Mercado" || b.Parcelas != 3 || b.ValorPago != nil || *b.MelhorDia != 5 {
		t.Fatalf("flat client fields wrong: %#v", b)
	}

	byClient, err := svc.ListClientReceivables(ctx, 8, nil)
	if err != nil || len(byClient) != 1 || byClient[0].ClienteID != 8 || byClient[0].Vencimento != "2024-05-01" {
		t.Fatalf("ListClientReceivables = %#v, %v", byClient, err)
	}

	payments, err := svc.ListReceivablePayments(ctx, 1, nil)
	if err != nil || payments[0].ValorPago != 12 || payments[0].DataPagamento != "2024-05-02" {
		t.Fatalf("ListReceivablePayments = %#v, %v", payments, err)
	}

	received, err := svc.ListReceived(ctx, nil)
	if err != nil || received[0].IDReceber != 1 || received[0].Recebido != "2024-05-03" {
		t.Fatalf("ListReceived = %#v, %v", received, err)
	}
}

func TestSaveReceivableValidation(t *testing.T) {
	_, svc, _ := newFakeBackend(t, nil)
	cases := map[string]ReceivableInput{
		"clienteId":    {Vencimento: "2024-01-01", ValorReceber: 1},
		"vencimento":   {ClienteID: 1, ValorReceber: 1},
		"valorReceber": {ClienteID: 1, Vencimento: "2024-01-01"},
	}
	for field, in := range cases {
		_, err := svc.SaveReceivable(context.Background(), in, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("%s: expected validation error, got %v", field, err)
		}
	}
}

func TestDeletePublishesEventAndToleratesPublishFailure(t *testing.T) {
	_, svc, events := newFakeBackend(t, map[string]cannedResponse{
		"DELETE /receber/3": {status: http.StatusNoContent},
	})
	events.err = errors.New("broker down")

	if err := svc.DeleteReceivable(context.Background(), 3, nil); err != nil {
		t.Fatalf("DeleteReceivable: %v", err)
	}
	if len(events.events) != 1 || events.events[0].Action != publishers.ActionDelete || events.events[0].RecordID != "3" {
		t.Fatalf("unexpected events %#v", events.events)
	}
}

func TestSaveStaffRejectsUnknownSector(t *testing.T) {
	_, svc, _ := newFakeBackend(t, nil)
	_, err := svc.SaveStaff(context.Background(), StaffInput{Nome: "Caio", Setor: "gerente"}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "setor" {
		t.Fatalf("expected setor validation error, got %v", err)
	}
}

func TestUsersAcceptNumericRule(t *testing.T) {
	fb, svc, events := newFakeBackend(t, map[string]cannedResponse{
		"GET /usuario":   {status: http.StatusOK, body: `[{"id":1,"nome":"Ana","rule":1,"setor":{"id":2,"setor":"Financeiro"}}]`},
		"PUT /usuario/1": {status: http.StatusOK, body: `{"id":1,"nome":"Ana","rule":"1"}`},
	})
	users, err := svc.ListUsers(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if users[0].Rule != RoleAdmin || users[0].Setor == nil || users[0].Setor.Setor != "Financeiro" {
		t.Fatalf("unexpected user %#v", users[0])
	}

	if _, err := svc.SaveUser(context.Background(), UserInput{ID: 1, Nome: "Ana", Email: "a@x", Rule: RoleAdmin}, nil); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if _, ok := fb.last(t).body["senha"]; ok {
		t.Fatalf("empty password must be omitted")
	}
	if string(events.events[0].Record) == "" {
		t.Fatalf("expected record in event")
	}
}

func TestPasswordTokenFlow(t *testing.T) {
	fb, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"POST /token": {status: http.StatusOK, body: `{"token":"reset-1"}`},
		"PUT /token":  {status: http.StatusNoContent},
	})
	tok, err := svc.RequestPasswordToken(context.Background(), "a@x", nil)
	if err != nil || tok != "reset-1" {
		t.Fatalf("RequestPasswordToken = %q, %v", tok, err)
	}
	if err := svc.ResetPassword(context.Background(), tok, "nova", nil); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if body := fb.last(t).body; body["novaSenha"] != "nova" || body["token"] != "reset-1" {
		t.Fatalf("unexpected reset body %v", body)
	}
}

func TestLookups(t *testing.T) {
	fb, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"GET /pagamento":  {status: http.StatusOK, body: `[{"id":1,"formasPagamento":"Pix"},{"id":2,"tipo":"Boleto"},{"id":3,"descricao":"Cartão"}]`},
		"POST /categoria": {status: http.StatusCreated, body: `{"id":4,"categoria":"Serviços"}`},
		"PUT /setor/2":    {status: http.StatusOK},
		"DELETE /setor/2": {status: http.StatusOK},
	})
	ctx := context.Background()

	methods, err := svc.ListPaymentMethods(ctx, nil)
	if err != nil {
		t.Fatalf("ListPaymentMethods: %v", err)
	}
	want := []string{"Pix", "Boleto", "Cartão"}
	for i, m := range methods {
		if m.Tipo != want[i] {
			t.Fatalf("payment method %d = %q, want %q", i, m.Tipo, want[i])
		}
	}

	cat, err := svc.SaveCategory(ctx, 0, "  Serviços ", nil)
	if err != nil || cat.ID != 4 || cat.Categoria != "Serviços" {
		t.Fatalf("SaveCategory = %#v, %v", cat, err)
	}
	if fb.last(t).body["categoria"] != "Serviços" {
		t.Fatalf("value not trimmed: %v", fb.last(t).body)
	}

	sector, err := svc.SaveSector(ctx, 2, "Financeiro", nil)
	if err != nil || sector.ID != 2 {
		t.Fatalf("SaveSector = %#v, %v", sector, err)
	}
	if err := svc.DeleteSector(ctx, 2, nil); err != nil {
		t.Fatalf("DeleteSector: %v", err)
	}
	if _, err := svc.SaveSector(ctx, 0, " ", nil); err == nil {
		t.Fatalf("expected validation error for blank sector")
	}
}

func TestLogin(t *testing.T) {
	fb, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"POST /login": {status: http.StatusOK, body: `{"token":"jwt-1"}`},
	})
	tok, err := svc.Login(context.Background(), "a@x", "secret", nil)
	if err != nil || tok != "jwt-1" {
		t.Fatalf("Login = %q, %v", tok, err)
	}
	if body := fb.last(t).body; body["email"] != "a@x" || body["senha"] != "secret" {
		t.Fatalf("unexpected login body %v", body)
	}
}

func TestLoginFailures(t *testing.T) {
	_, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"POST /login": {status: http.StatusUnauthorized, body: `{"message":"Senha inválida"}`},
	})
	_, err := svc.Login(context.Background(), "a@x", "bad", nil)
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if !httpclient.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected wrapped 401, got %v", err)
	}

	_, svc, _ = newFakeBackend(t, map[string]cannedResponse{
		"POST /login": {status: http.StatusOK, body: `{}`},
	})
	if _, err := svc.Login(context.Background(), "a@x", "pw", nil); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("missing token should fail, got %v", err)
	}
}

func TestWithBearer(t *testing.T) {
	fb, svc, _ := newFakeBackend(t, map[string]cannedResponse{
		"GET /cliente": {status: http.StatusOK, body: `[]`},
	})
	if _, err := svc.ListClients(context.Background(), WithBearer("srv-token")); err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if got := fb.last(t).header.Get("Authorization"); got != "Bearer srv-token" {
		t.Fatalf("Authorization = %q", got)
	}
}
