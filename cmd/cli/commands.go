package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/amirasaad/marketledger/pkg/app"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	labelColor = color.New(color.FgCyan)
)

type commander struct {
	app   *app.App
	admin *user.User
	out   io.Writer
}

func (c *commander) execute(ctx context.Context, args []string) error {
	switch args[0] {
	case "requests":
		status := ""
		if len(args) > 1 {
			status = args[1]
		}
		return c.requests(ctx, lending.RequestStatus(status))
	case "approve", "reject":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s <request-id>", args[0])
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid request id: %w", err)
		}
		if args[0] == "approve" {
			return c.approve(ctx, id)
		}
		return c.reject(ctx, id)
	case "fund":
		return c.fund(ctx)
	case "sweep":
		return c.sweep(ctx)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func (c *commander) requests(ctx context.Context, status lending.RequestStatus) error {
	list, err := c.app.LendingService.ListRequests(ctx, repository.CreditRequestFilter{Status: status})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		warnColor.Fprintln(c.out, "No credit requests")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	labelColor.Fprintln(w, "ID\tUSER\tAMOUNT\tSTATUS\tCREATED")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.UserID, r.Amount, r.Status, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (c *commander) approve(ctx context.Context, id uuid.UUID) error {
	decision, err := c.app.LendingService.Approve(ctx, c.admin.ID, id)
	if err != nil {
		return err
	}
	okColor.Fprintf(c.out, "Approved %s: loan %s of %d credits due %s\n",
		id, decision.Loan.ID, decision.Loan.Amount, decision.Loan.DueDate.Format("2006-01-02"))
	return nil
}

func (c *commander) reject(ctx context.Context, id uuid.UUID) error {
	if _, err := c.app.LendingService.Reject(ctx, c.admin.ID, id); err != nil {
		return err
	}
	okColor.Fprintf(c.out, "Rejected %s\n", id)
	return nil
}

func (c *commander) fund(ctx context.Context) error {
	f, err := c.app.LendingService.FundStatus(ctx)
	if err != nil {
		return err
	}
	labelColor.Fprint(c.out, "Capital:    ")
	fmt.Fprintln(c.out, f.TotalCapital)
	labelColor.Fprint(c.out, "Loaned out: ")
	fmt.Fprintln(c.out, f.TotalLoanedOut)
	labelColor.Fprint(c.out, "Available:  ")
	fmt.Fprintln(c.out, f.Available())
	return nil
}

func (c *commander) sweep(ctx context.Context) error {
	n, err := c.app.LendingService.SweepOverdue(ctx)
	if err != nil {
		return err
	}
	okColor.Fprintf(c.out, "Flagged %d overdue loan(s)\n", n)
	return nil
}
