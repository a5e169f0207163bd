package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samvad-hq/backoffice/pkg/backoffice"
	"github.com/samvad-hq/backoffice/pkg/listing"
)

var clientFields = listing.Fields[backoffice.Client]{
	Haystack: func(c backoffice.Client) string {
		return joinFields(c.RazaoSocial, deref(c.Fantasia), c.Cidade, deref(c.CPF), deref(c.CNPJ), deref(c.Ficha))
	},
	Status: func(c backoffice.Client) string { return deref(c.Status) },
}

var operationFields = listing.Fields[backoffice.Operation]{
	Haystack: func(op backoffice.Operation) string {
		return joinFields(op.Atividade, op.Usuario.Nome, deref(op.Obs))
	},
	Status: func(op backoffice.Operation) string { return op.Status },
	Date:   func(op backoffice.Operation) string { return op.StartDate },
}

var receivableFields = listing.Fields[backoffice.Receivable]{
	Haystack: func(r backoffice.Receivable) string {
		return joinFields(deref(r.ClienteNome), deref(r.Ficha), deref(r.Cidade),
			strconv.FormatFloat(r.ValorReceber, 'f', -1, 64), r.Vencimento)
	},
	Status: func(r backoffice.Receivable) string { return r.Status },
	Date:   func(r backoffice.Receivable) string { return r.Vencimento },
}

var receivedFields = listing.Fields[backoffice.Received]{
	Haystack: func(r backoffice.Received) string {
		return joinFields(deref(r.Cliente), deref(r.Cobrador), deref(r.Ficha), deref(r.Cidade))
	},
	Date: func(r backoffice.Received) string { return r.Recebido },
}

var staffFields = listing.Fields[backoffice.StaffMember]{
	Haystack: func(e backoffice.StaffMember) string { return joinFields(e.Nome, e.Setor) },
	Status:   func(e backoffice.StaffMember) string { return e.Setor },
}

var sectorFields = listing.Fields[backoffice.Sector]{
	Haystack: func(s backoffice.Sector) string { return s.Setor },
}

var paymentFields = listing.Fields[backoffice.PaymentMethod]{
	Haystack: func(p backoffice.PaymentMethod) string { return p.Tipo },
}

var categoryFields = listing.Fields[backoffice.Category]{
	Haystack: func(c backoffice.Category) string { return c.Categoria },
}

var userFields = listing.Fields[backoffice.User]{
	Haystack: func(u backoffice.User) string { return joinFields(u.Nome, u.Email, deref(u.Empresa)) },
	Status:   func(u backoffice.User) string { return u.Rule },
}

func clients(ctx context.Context, d Deps, action string, o options) error {
	svc := d.Service
	switch action {
	case "list":
		items, err := svc.ListClients(ctx, nil)
		if err != nil {
			return err
		}
		return printList(d.Out, items, o, clientsPageSize, clientFields)
	case "get":
		if err := requireID(o); err != nil {
			return err
		}
		c, err := svc.GetClient(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return write(d.Out, c)
	case "save":
		var in backoffice.ClientInput
		if err := decodeData(o, &in); err != nil {
			return err
		}
		in.ID = o.id
		c, err := svc.SaveClient(ctx, in, nil)
		if err != nil {
			return err
		}
		return write(d.Out, c)
	case "delete":
		if err := requireID(o); err != nil {
			return err
		}
		return deleted(d, svc.DeleteClient(ctx, o.id, nil), o.id)
	case "sellers":
		items, err := svc.ListSellers(ctx, nil)
		if err != nil {
			return err
		}
		return write(d.Out, items)
	case "collectors":
		items, err := svc.ListCollectors(ctx, nil)
		if err != nil {
			return err
		}
		return write(d.Out, items)
	default:
		return unknownAction("clients", action)
	}
}

func operations(ctx context.Context, d Deps, action string, o options) error {
	svc := d.Service
	switch action {
	case "list":
		items, err := svc.ListOperations(ctx, nil)
		if err != nil {
			return err
		}
		return printList(d.Out, items, o, operationsPageSize, operationFields)
	case "get":
		if err := requireID(o); err != nil {
			return err
		}
		op, err := svc.GetOperation(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return write(d.Out, op)
	case "save":
		var in backoffice.OperationInput
		if err := decodeData(o, &in); err != nil {
			return err
		}
		in.ID = o.id
		op, err := svc.SaveOperation(ctx, in, nil)
		if err != nil {
			return err
		}
		return write(d.Out, op)
	case "delete":
		if err := requireID(o); err != nil {
			return err
		}
		return deleted(d, svc.DeleteOperation(ctx, o.id, nil), o.id)
	default:
		return unknownAction("operations", action)
	}
}

func receivables(ctx context.Context, d Deps, action string, o options) error {
	svc := d.Service
	switch action {
	case "list":
		items, err := svc.ListReceivables(ctx, nil)
		if err != nil {
			return err
		}
		return printList(d.Out, items, o, receivablesPageSize, receivableFields)
	case "get":
		if err := requireID(o); err != nil {
			return err
		}
		r, err := svc.GetReceivable(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return write(d.Out, r)
	case "save":
		var in backoffice.ReceivableInput
		if err := decodeData(o, &in); err != nil {
			return err
		}
		in.ID = o.id
		r, err := svc.SaveReceivable(ctx, in, nil)
		if err != nil {
			return err
		}
		return write(d.Out, r)
	case "delete":
		if err := requireID(o); err != nil {
			return err
		}
		return deleted(d, svc.DeleteReceivable(ctx, o.id, nil), o.id)
	case "payments":
		if err := requireID(o); err != nil {
			return err
		}
		items, err := svc.ListReceivablePayments(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return write(d.Out, items)
	case "by-client":
		if err := requireID(o); err != nil {
			return err
		}
		items, err := svc.ListClientReceivables(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return printList(d.Out, items, o, receivablesPageSize, receivableFields)
	default:
		return unknownAction("receivables", action)
	}
}

func received(ctx context.Context, d Deps, action string, o options) error {
	if action != "list" {
		return unknownAction("received", action)
	}
	items, err := d.Service.ListReceived(ctx, nil)
	if err != nil {
		return err
	}
	return printList(d.Out, items, o, receivedPageSize, receivedFields)
}

func employees(ctx context.Context, d Deps, action string, o options) error {
	svc := d.Service
	switch action {
	case "list":
		items, err := svc.ListStaff(ctx, nil)
		if err != nil {
			return err
		}
		return printList(d.Out, items, o, employeesPageSize, staffFields)
	case "get":
		if err := requireID(o); err != nil {
			return err
		}
		e, err := svc.GetStaff(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return write(d.Out, e)
	case "save":
		var in backoffice.StaffInput
		if err := decodeData(o, &in); err != nil {
			return err
		}
		in.ID = o.id
		e, err := svc.SaveStaff(ctx, in, nil)
		if err != nil {
			return err
		}
		return write(d.Out, e)
	case "delete":
		if err := requireID(o); err != nil {
			return err
		}
		return deleted(d, svc.DeleteStaff(ctx, o.id, nil), o.id)
	default:
		return unknownAction("employees", action)
	}
}

func users(ctx context.Context, d Deps, action string, o options) error {
	svc := d.Service
	switch action {
	case "list":
		items, err := svc.ListUsers(ctx, nil)
		if err != nil {
			return err
		}
		return printList(d.Out, items, o, usersPageSize, userFields)
	case "get":
		if err := requireID(o); err != nil {
			return err
		}
		u, err := svc.GetUser(ctx, o.id, nil)
		if err != nil {
			return err
		}
		return write(d.Out, u)
	case "save":
		var in backoffice.UserInput
		if err := decodeData(o, &in); err != nil {
			return err
		}
		in.ID = o.id
		u, err := svc.SaveUser(ctx, in, nil)
		if err != nil {
			return err
		}
		return write(d.Out, u)
	case "delete":
		if err := requireID(o); err != nil {
			return err
		}
		return deleted(d, svc.DeleteUser(ctx, o.id, nil), o.id)
	case "request-token":
		tok, err := svc.RequestPasswordToken(ctx, o.email, nil)
		if err != nil {
			return err
		}
		return write(d.Out, map[string]string{"token": tok})
	case "reset-password":
		if err := svc.ResetPassword(ctx, o.token, o.password, nil); err != nil {
			return err
		}
		return write(d.Out, map[string]string{"status": "password updated"})
	default:
		return unknownAction("users", action)
	}
}

func lookups(ctx context.Context, d Deps, cmd, action string, o options) error {
	svc := d.Service
	switch action {
	case "list":
		switch cmd {
		case "sectors":
			items, err := svc.ListSectors(ctx, nil)
			if err != nil {
				return err
			}
			return printList(d.Out, items, o, lookupsPageSize, sectorFields)
		case "payments":
			items, err := svc.ListPaymentMethods(ctx, nil)
			if err != nil {
				return err
			}
			return printList(d.Out, items, o, lookupsPageSize, paymentFields)
		default:
			items, err := svc.ListCategories(ctx, nil)
			if err != nil {
				return err
			}
			return printList(d.Out, items, o, lookupsPageSize, categoryFields)
		}
	case "save":
		var (
			saved any
			err   error
		)
		switch cmd {
		case "sectors":
			saved, err = svc.SaveSector(ctx, o.id, o.name, nil)
		case "payments":
			saved, err = svc.SavePaymentMethod(ctx, o.id, o.name, nil)
		default:
			saved, err = svc.SaveCategory(ctx, o.id, o.name, nil)
		}
		if err != nil {
			return err
		}
		return write(d.Out, saved)
	case "delete":
		if err := requireID(o); err != nil {
			return err
		}
		var err error
		switch cmd {
		case "sectors":
			err = svc.DeleteSector(ctx, o.id, nil)
		case "payments":
			err = svc.DeletePaymentMethod(ctx, o.id, nil)
		default:
			err = svc.DeleteCategory(ctx, o.id, nil)
		}
		return deleted(d, err, o.id)
	default:
		return unknownAction(cmd, action)
	}
}

func deleted(d Deps, err error, id int) error {
	if err != nil {
		return err
	}
	return write(d.Out, map[string]string{"deleted": fmt.Sprint(id)})
}
