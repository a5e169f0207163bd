// Package cli implements the backoffice command line: resource commands run
// in client context against the stored session token.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/backoffice/pkg/backoffice"
	"github.com/samvad-hq/backoffice/pkg/listing"
	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("usage")

// Session persists and clears the login token.
type Session interface {
	Login(ctx context.Context, email, password string) error
	Logout() error
}

// Deps are the collaborators a command needs.
type Deps struct {
	Service *backoffice.Service
	Session Session
	Out     io.Writer
}

// options are the flags shared by every command.
type options struct {
	search   string
	status   string
	from     string
	to       string
	page     int
	id       int
	data     string
	name     string
	email    string
	password string
	token    string
}

func (o options) criteria() listing.Criteria {
	return listing.Criteria{Search: o.search, Status: o.status, From: o.from, To: o.to}
}

// Usage describes the command line.
const Usage = `usage: backoffice [flags] <command> [action]

commands:
  login --email E --password P
  logout
  clients|operations|receivables|employees|users list|get|save|delete
  sectors|payments|categories list|save|delete
  received list
  receivables payments|by-client --id N
  users request-token --email E
  users reset-password --token T --password P

flags:
`

// parse splits args into the positional command words and options.
func parse(args []string) ([]string, options, error) {
	var o options
	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.search, "search", "", "case-insensitive text filter for list")
	fs.StringVar(&o.status, "status", "", "status filter for list (Todos disables it)")
	fs.StringVar(&o.from, "from", "", "day (alone) or range start, YYYY-MM-DD")
	fs.StringVar(&o.to, "to", "", "inclusive range end, YYYY-MM-DD")
	fs.IntVar(&o.page, "page", 1, "page number for list")
	fs.IntVar(&o.id, "id", 0, "record id for get/save/delete")
	fs.StringVar(&o.data, "data", "", "JSON record for save, or @file")
	fs.StringVar(&o.name, "name", "", "value for lookup save")
	fs.StringVar(&o.email, "email", "", "login e-mail")
	fs.StringVar(&o.password, "password", "", "login or new password")
	fs.StringVar(&o.token, "token", "", "password reset token")

	if err := fs.Parse(args); err != nil {
		return nil, o, fmt.Errorf("%w: %w\n%s%s", ErrUsage, err, Usage, fs.FlagUsages())
	}
	if fs.NArg() == 0 {
		return nil, o, fmt.Errorf("%w: missing command\n%s%s", ErrUsage, Usage, fs.FlagUsages())
	}
	return fs.Args(), o, nil
}

// Execute runs one command line.
func Execute(ctx context.Context, args []string, d Deps) error {
	words, o, err := parse(args)
	if err != nil {
		return err
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}

	cmd, action := words[0], ""
	if len(words) > 1 {
		action = words[1]
	}

	switch cmd {
	case "login":
		if err := d.Session.Login(ctx, o.email, o.password); err != nil {
			return err
		}
		return write(d.Out, map[string]string{"status": "logged in"})
	case "logout":
		if err := d.Session.Logout(); err != nil {
			return err
		}
		return write(d.Out, map[string]string{"status": "logged out"})
	case "clients":
		return clients(ctx, d, action, o)
	case "operations":
		return operations(ctx, d, action, o)
	case "receivables":
		return receivables(ctx, d, action, o)
	case "received":
		return received(ctx, d, action, o)
	case "employees":
		return employees(ctx, d, action, o)
	case "users":
		return users(ctx, d, action, o)
	case "sectors", "payments", "categories":
		return lookups(ctx, d, cmd, action, o)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// listPage is the JSON shape printed by list actions.
type listPage[T any] struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Total      int   `json:"total"`
	Pages      []int `json:"pages"`
	Items      []T   `json:"items"`
}

// Rows per page for each list, matching the screens they replace.
const (
	clientsPageSize     = 10
	operationsPageSize  = 10
	usersPageSize       = 10
	lookupsPageSize     = 10
	employeesPageSize   = 15
	receivablesPageSize = 30
	receivedPageSize    = 30
)

func printList[T any](out io.Writer, items []T, o options, size int, fields listing.Fields[T]) error {
	filtered := listing.Filter(items, o.criteria(), fields)
	page := listing.Paginate(filtered, o.page, size)
	return write(out, listPage[T]{
		Page:       page.Number,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		Pages:      listing.PageWindow(page.Number, page.TotalPages),
		Items:      page.Items,
	})
}

func write(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decodeData reads --data as inline JSON or, with a leading @, from a file.
func decodeData(o options, v any) error {
	raw := strings.TrimSpace(o.data)
	if raw == "" {
		return fmt.Errorf("%w: --data is required for save", ErrUsage)
	}
	if strings.HasPrefix(raw, "@") {
		b, err := os.ReadFile(raw[1:])
		if err != nil {
			return fmt.Errorf("read --data file: %w", err)
		}
		raw = string(b)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode --data: %w", err)
	}
	return nil
}

func requireID(o options) error {
	if o.id <= 0 {
		return fmt.Errorf("%w: --id is required", ErrUsage)
	}
	return nil
}

func unknownAction(cmd, action string) error {
	return fmt.Errorf("%w: unknown action %q for %s", ErrUsage, action, cmd)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinFields(parts ...string) string {
	return strings.Join(parts, " ")
}
