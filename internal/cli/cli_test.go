package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/backoffice/pkg/backoffice"
	"github.com/samvad-hq/backoffice/pkg/httpclient"
)

type fakeSession struct {
	email, password string
	loggedOut       bool
	err             error
}

func (f *fakeSession) Login(_ context.Context, email, password string) error {
	f.email, f.password = email, password
	return f.err
}

func (f *fakeSession) Logout() error {
	f.loggedOut = true
	return nil
}

func newDeps(t *testing.T, handler http.HandlerFunc) (Deps, *bytes.Buffer, *fakeSession) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := httpclient.New(httpclient.Config{FallbackBaseURL: srv.URL})
	out := &bytes.Buffer{}
	session := &fakeSession{}
	return Deps{Service: backoffice.New(client), Session: session, Out: out}, out, session
}

func TestLoginAndLogout(t *testing.T) {
	d, out, session := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {})

	if err := Execute(context.Background(), []string{"login", "--email", "a@x", "--password", "pw"}, d); err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.email != "a@x" || session.password != "pw" {
		t.Fatalf("session got %q/%q", session.email, session.password)
	}
	if err := Execute(context.Background(), []string{"logout"}, d); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !session.loggedOut || !strings.Contains(out.String(), "logged out") {
		t.Fatalf("logout not performed, out=%s", out.String())
	}
}

func TestLoginFailurePropagates(t *testing.T) {
	d, _, session := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {})
	session.err = backoffice.ErrAuthFailed
	err := Execute(context.Background(), []string{"login", "--email", "a@x", "--password", "bad"}, d)
	if !errors.Is(err, backoffice.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestReceivablesListFiltersAndPaginates(t *testing.T) {
	d, out, _ := newDeps(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/receber" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var rows []string
		for i := 1; i <= 40; i++ {
			status := "Aberto"
			if i%2 == 0 {
				status = "Fechado"
			}
			rows = append(rows, fmt.Sprintf(`{"id":%d,"status":%q,"clienteNome":"Cliente %d","vencimento":"10/04/2024","valorReceber":10}`, i, status, i))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "["+strings.Join(rows, ",")+"]")
	})

	args := []string{"receivables", "list", "--status", "Aberto", "--from", "2024-04-10", "--search", "cliente"}
	if err := Execute(context.Background(), args, d); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var page listPage[backoffice.Receivable]
	if err := json.Unmarshal(out.Bytes(), &page); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if page.Total != 20 || page.TotalPages != 1 || len(page.Items) != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, it := range page.Items {
		if it.Status != "Aberto" {
			t.Fatalf("status filter leaked %q", it.Status)
		}
	}
}

func TestListPageSizesPerResource(t *testing.T) {
	rows := func(n int, format string) string {
		var out []string
		for i := 1; i <= n; i++ {
			out = append(out, fmt.Sprintf(format, i, i))
		}
		return "[" + strings.Join(out, ",") + "]"
	}
	bodies := map[string]string{
		"/cliente":     rows(25, `{"id":%d,"razaoSocial":"Cliente %d","cidade":"Recife"}`),
		"/funcionario": rows(25, `{"id":%d,"nome":"Func %d","setor":"vendedor"}`),
		"/setor":       rows(25, `{"id":%d,"setor":"Setor %d"}`),
		"/receber":     rows(25, `{"id":%d,"clienteNome":"Cliente %d","vencimento":"10/04/2024","valorReceber":10}`),
	}
	d, out, _ := newDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, bodies[r.URL.Path])
	})

	cases := []struct {
		command    string
		items      int
		totalPages int
	}{
		{"clients", 10, 3},
		{"employees", 15, 2},
		{"sectors", 10, 3},
		{"receivables", 25, 1},
	}
	for _, tc := range cases {
		out.Reset()
		if err := Execute(context.Background(), []string{tc.command, "list"}, d); err != nil {
			t.Fatalf("%s list: %v", tc.command, err)
		}
		var page listPage[json.RawMessage]
		if err := json.Unmarshal(out.Bytes(), &page); err != nil {
			t.Fatalf("%s decode: %v\n%s", tc.command, err, out.String())
		}
		if len(page.Items) != tc.items || page.TotalPages != tc.totalPages || page.Total != 25 {
			t.Fatalf("%s page: items=%d pages=%d total=%d", tc.command, len(page.Items), page.TotalPages, page.Total)
		}
	}
}

func TestClientsSaveUsesDataAndID(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	d, out, _ := newDeps(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":5,"razaoSocial":"Padaria","cidade":"Recife"}`)
	})

	path := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(path, []byte(`{"razaoSocial":"Padaria","telefone_2":"81999"}`), 0o600); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := Execute(context.Background(), []string{"clients", "save", "--id", "5", "--data", "@" + path}, d); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/cliente/5" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["telefone_2"] != "81999" || gotBody["status"] != "Ativo" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if !strings.Contains(out.String(), `"razaoSocial": "Padaria"`) {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestLookupsSaveAndDelete(t *testing.T) {
	var calls []string
	d, _, _ := newDeps(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	if err := Execute(context.Background(), []string{"categories", "save", "--name", "Serviços"}, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Execute(context.Background(), []string{"payments", "delete", "--id", "2"}, d); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{"POST /categoria", "DELETE /pagamento/2"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestUsageErrors(t *testing.T) {
	d, _, _ := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {})
	cases := [][]string{
		{},
		{"nope"},
		{"clients", "explode"},
		{"clients", "get"},
		{"clients", "save"},
		{"--unknown-flag", "clients", "list"},
	}
	for _, args := range cases {
		if err := Execute(context.Background(), args, d); !errors.Is(err, ErrUsage) {
			t.Fatalf("%v: expected usage error, got %v", args, err)
		}
	}
}

func TestAPIErrorsSurface(t *testing.T) {
	d, _, _ := newDeps(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Token inválido"}`)
	})
	err := Execute(context.Background(), []string{"operations", "list"}, d)
	if !httpclient.IsStatus(err, http.StatusUnauthorized) || !strings.Contains(err.Error(), "Token inválido") {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}
