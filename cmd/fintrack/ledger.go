package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func categoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "List and add categories",
	}
	cmd.AddCommand(listCategoriesCmd(a))
	cmd.AddCommand(addCategoryCmd(a))
	return cmd
}

func listCategoriesCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			var cats []core.Category
			if kind != "" {
				k, err := core.ParseKind(kind)
				if err != nil {
					return err
				}
				cats, err = store.ListCategoriesByKind(cmd.Context(), k)
				if err != nil {
					return err
				}
			} else if cats, err = store.ListCategories(cmd.Context()); err != nil {
				return err
			}

			if len(cats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories found. Use 'fintrack categories add' to create one.")
				return nil
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "Name", "Type")
			for _, c := range cats {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Kind.Label())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list income or expense categories")
	return cmd
}

func addCategoryCmd(a *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseKind(kind)
			if err != nil {
				return err
			}

			_, ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			c, err := ledger.CreateCategory(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added category %d %q (%s)\n", c.ID, c.Name, c.Kind)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(core.KindExpense), "income or expense")
	return cmd
}

func transactionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"transaction", "tx"},
		Short:   "List, add and delete transactions",
	}
	cmd.AddCommand(listTransactionsCmd(a))
	cmd.AddCommand(addTransactionCmd(a))
	cmd.AddCommand(deleteTransactionCmd(a))
	return cmd
}

func listTransactionsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			var txs []core.Transaction
			if limit > 0 {
				txs, err = store.RecentTransactions(cmd.Context(), limit)
			} else {
				txs, err = store.ListTransactions(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(txs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions recorded.")
				return nil
			}

			muted := stylesFor(cmd.OutOrStdout()).muted
			tw := newTable(cmd.OutOrStdout(), "ID", "Date", "Type", "Category", "Description", "Amount")
			for _, t := range txs {
				desc := t.Description
				if desc == "" {
					desc = muted.Render("(no description)")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Date.Format("2006-01-02"), t.Kind.Label(), t.CategoryName, desc, t.Signed().Format())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the N most recent transactions")
	return cmd
}

func addTransactionCmd(a *app) *cobra.Command {
	var (
		amount      string
		kind        string
		categoryID  int64
		description string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  fintrack transactions add --kind expense --amount 12.50 --category 4 --description lunch
  fintrack transactions add --kind income --amount 3000 --category 1 --date 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := core.ParseKind(kind)
			if err != nil {
				return err
			}
			m, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			var when time.Time
			if date != "" {
				if when, err = core.ParseDate(date); err != nil {
					return err
				}
			}

			_, ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			t, err := ledger.CreateTransaction(cmd.Context(), m, description, k, categoryID, when)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added transaction %d: %s %s in %s on %s\n",
				t.ID, t.Kind, t.Amount.Format(), t.CategoryName, t.Date.Format("2006-01-02"))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	f.StringVar(&kind, "kind", string(core.KindExpense), "income or expense")
	f.Int64Var(&categoryID, "category", 0, "category id (see 'fintrack categories list')")
	f.StringVar(&description, "description", "", "free text, up to 200 characters")
	f.StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func deleteTransactionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			_, ledger, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer ledger.Close()

			if err := ledger.DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted transaction %d\n", id)
			return nil
		},
	}
}
