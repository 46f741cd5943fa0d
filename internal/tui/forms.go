package tui

import (
	"fmt"
	"strings"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"

	"github.com/charmbracelet/huh"
)

type formKind int

const (
	formNone formKind = iota
	formAdd
	formIncome
	formReset
)

// formValues backs every field of the active huh form. It is heap-allocated
// per form so the bound pointers survive App being copied by Update.
type formValues struct {
	kind   string
	label  string
	amount string
	hours  string
	month  string
	start  string
	end    string

	mode    string
	net     string
	zus     string
	taxRate string
	rate    string

	confirm bool
}

// edit is a ledger command plus the notice shown once it is saved.
type edit struct {
	apply  func(model.RecordSet) (model.RecordSet, error)
	notice string
}

func newAddForm(v *formValues, now model.MonthKey) *huh.Form {
	v.kind = string(ledger.KindOneTime)
	v.month = now.String()
	v.start = now.String()
	v.end = now.AddMonths(11).String()

	hiddenUnless := func(k ledger.Kind) func() bool {
		return func() bool { return v.kind != string(k) }
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Record type").
				Options(
					huh.NewOption("One-time expense", string(ledger.KindOneTime)),
					huh.NewOption("Recurring expense", string(ledger.KindRecurring)),
					huh.NewOption("Invoice", string(ledger.KindInvoice)),
					huh.NewOption("Billed hours", string(ledger.KindHours)),
				).
				Value(&v.kind),
		),
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.label),
			huh.NewInput().Title("Amount").Value(&v.amount).Validate(validateAmount),
			huh.NewInput().Title("Month").Placeholder("YYYY-MM").Value(&v.month).Validate(validateMonth),
		).WithHideFunc(func() bool { return hiddenUnless(ledger.KindOneTime)() && hiddenUnless(ledger.KindInvoice)() }),
		huh.NewGroup(
			huh.NewInput().Title("Hours").Value(&v.hours).Validate(validateAmount),
			huh.NewInput().Title("Month").Placeholder("YYYY-MM").Value(&v.month).Validate(validateMonth),
		).WithHideFunc(hiddenUnless(ledger.KindHours)),
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.label),
			huh.NewInput().Title("Monthly amount").Value(&v.amount).Validate(validateAmount),
			huh.NewInput().Title("From").Placeholder("YYYY-MM").Value(&v.start).Validate(validateMonth),
			huh.NewInput().Title("To").Placeholder("YYYY-MM").Value(&v.end).Validate(validateMonth),
		).WithHideFunc(hiddenUnless(ledger.KindRecurring)),
	).WithShowHelp(true)
}

// addEdit turns a completed add form into a ledger command.
func (v *formValues) addEdit() (edit, error) {
	kind, err := ledger.ParseKind(v.kind)
	if err != nil {
		return edit{}, err
	}

	switch kind {
	case ledger.KindHours:
		hours, err := cli.ParseAmount(v.hours)
		if err != nil {
			return edit{}, err
		}
		month, err := model.ParseMonthKey(strings.TrimSpace(v.month))
		if err != nil {
			return edit{}, err
		}
		return edit{
			apply: func(rs model.RecordSet) (model.RecordSet, error) {
				next, _, err := ledger.AddHours(rs, hours, month)
				return next, err
			},
			notice: fmt.Sprintf("added %s h in %s", cli.FormatAmount(hours), month),
		}, nil

	case ledger.KindRecurring:
		amount, err := cli.ParseAmount(v.amount)
		if err != nil {
			return edit{}, err
		}
		start, err := model.ParseMonthKey(strings.TrimSpace(v.start))
		if err != nil {
			return edit{}, err
		}
		end, err := model.ParseMonthKey(strings.TrimSpace(v.end))
		if err != nil {
			return edit{}, err
		}
		name := v.label
		return edit{
			apply: func(rs model.RecordSet) (model.RecordSet, error) {
				next, _, err := ledger.AddRecurring(rs, name, amount, start, end)
				return next, err
			},
			notice: fmt.Sprintf("added recurring %q", strings.TrimSpace(name)),
		}, nil
	}

	amount, err := cli.ParseAmount(v.amount)
	if err != nil {
		return edit{}, err
	}
	month, err := model.ParseMonthKey(strings.TrimSpace(v.month))
	if err != nil {
		return edit{}, err
	}
	label := v.label
	if kind == ledger.KindInvoice {
		return edit{
			apply: func(rs model.RecordSet) (model.RecordSet, error) {
				next, _, err := ledger.AddInvoice(rs, label, amount, month)
				return next, err
			},
			notice: fmt.Sprintf("added invoice in %s", month),
		}, nil
	}
	return edit{
		apply: func(rs model.RecordSet) (model.RecordSet, error) {
			next, _, err := ledger.AddOneTime(rs, label, amount, month)
			return next, err
		},
		notice: fmt.Sprintf("added expense %q in %s", strings.TrimSpace(label), month),
	}, nil
}

func newIncomeForm(v *formValues, rs model.RecordSet) *huh.Form {
	v.mode = string(rs.Mode)
	v.net = cli.FormatAmount(rs.EmploymentNet)
	v.zus = cli.FormatAmount(rs.SelfEmployed.Zus)
	v.taxRate = cli.FormatAmount(rs.SelfEmployed.TaxRate)
	v.rate = cli.FormatAmount(rs.SelfEmployed.HourlyRate)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Income mode").
				Options(
					huh.NewOption(model.ModeEmployment.Label(), string(model.ModeEmployment)),
					huh.NewOption(model.ModeSelfEmployed.Label(), string(model.ModeSelfEmployed)),
				).
				Value(&v.mode),
		),
		huh.NewGroup(
			huh.NewInput().Title("Monthly net salary").Value(&v.net).Validate(validateAmount),
		).WithHideFunc(func() bool { return v.mode != string(model.ModeEmployment) }),
		huh.NewGroup(
			huh.NewInput().Title("Monthly social contribution (ZUS)").Value(&v.zus).Validate(validateAmount),
			huh.NewInput().Title("Tax rate %").Value(&v.taxRate).Validate(validateAmount),
			huh.NewInput().Title("Hourly rate").Value(&v.rate).Validate(validateAmount),
		).WithHideFunc(func() bool { return v.mode != string(model.ModeSelfEmployed) }),
	).WithShowHelp(true)
}

// incomeEdit turns a completed income form into a ledger command. Only the
// parameters of the chosen mode are applied.
func (v *formValues) incomeEdit() (edit, error) {
	mode, err := model.ParseIncomeMode(v.mode)
	if err != nil {
		return edit{}, err
	}

	if mode == model.ModeEmployment {
		net, err := cli.ParseAmount(v.net)
		if err != nil {
			return edit{}, err
		}
		return edit{
			apply: func(rs model.RecordSet) (model.RecordSet, error) {
				out, err := ledger.SetMode(rs, mode)
				if err != nil {
					return rs, err
				}
				return ledger.SetEmploymentNet(out, net), nil
			},
			notice: "income updated",
		}, nil
	}

	var p model.SelfEmployedParams
	for _, f := range []struct {
		in  string
		out *float64
	}{
		{v.zus, &p.Zus},
		{v.taxRate, &p.TaxRate},
		{v.rate, &p.HourlyRate},
	} {
		if *f.out, err = cli.ParseAmount(f.in); err != nil {
			return edit{}, err
		}
	}
	return edit{
		apply: func(rs model.RecordSet) (model.RecordSet, error) {
			out, err := ledger.SetMode(rs, mode)
			if err != nil {
				return rs, err
			}
			return ledger.SetSelfEmployed(out, p), nil
		},
		notice: "income updated",
	}, nil
}

func newResetForm(v *formValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Replace all records with the starter data?").
				Description("Income settings, invoices, hours and expenses are overwritten.").
				Affirmative("Reset").
				Negative("Cancel").
				Value(&v.confirm),
		),
	)
}

func validateAmount(s string) error {
	_, err := cli.ParseAmount(s)
	return err
}

func validateMonth(s string) error {
	_, err := model.ParseMonthKey(strings.TrimSpace(s))
	return err
}
