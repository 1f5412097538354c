package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aurelius/storefront/internal/commerce"
	"github.com/aurelius/storefront/internal/domain/catalog"
	"github.com/aurelius/storefront/internal/domain/newsletter"
	"github.com/aurelius/storefront/internal/domain/order"
	"github.com/aurelius/storefront/internal/domain/review"
	"github.com/aurelius/storefront/pkg/health"
)

var (
	// ErrUsage is returned for malformed command lines.
	ErrUsage = errors.New("invalid usage")
	// ErrUnhealthy is returned by doctor when a check fails.
	ErrUnhealthy = errors.New("unhealthy")
)

const usage = `usage: aurelius <command> [arguments]

commands:
  catalog [-category c] [-sort s] [-visible n]   list products
  search <query>                                 search products
  product <slug>                                 show a product
  faq                                            show frequently asked questions
  cart [add|remove|set|clear] ...                show or change the cart
  wishlist [toggle <id>]                         show or change the wishlist
  checkout -name -email -phone -address [-payment cod|card]
  orders                                         show order history
  review submit <productId> -author -rating [-comment] [-verified] [-publish]
  review list <productId>
  subscribe [-popup] <email>
  popup [dismiss]
  doctor                                         check storage health
`

type commandFunc func(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error

// Execute runs a single command.
func (e *Env) Execute(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		_, _ = io.WriteString(out, usage)
		return ErrUsage
	}
	name, rest := args[0], args[1:]

	if name == "doctor" {
		return e.doctor(ctx, out)
	}

	commands := map[string]commandFunc{
		"catalog":   cmdCatalog,
		"search":    cmdSearch,
		"product":   cmdProduct,
		"faq":       cmdFAQ,
		"cart":      cmdCart,
		"wishlist":  cmdWishlist,
		"checkout":  cmdCheckout,
		"orders":    cmdOrders,
		"review":    cmdReview,
		"subscribe": cmdSubscribe,
		"popup":     cmdPopup,
	}
	run, ok := commands[name]
	if !ok {
		_, _ = io.WriteString(out, usage)
		return errors.Wrapf(ErrUsage, "unknown command %q", name)
	}

	m, lg, err := e.manager(ctx, name)
	if err != nil {
		return err
	}
	start := time.Now()
	err = run(ctx, m, rest, out)
	lg.Debug("Command finished", zap.Duration("took", time.Since(start)), zap.Error(err))
	return err
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs parses flags that may appear before or after positional
// arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, errors.Wrap(ErrUsage, err.Error())
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func cmdCatalog(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	fs := newFlagSet("catalog")
	category := fs.String("category", string(catalog.CategoryAll), "category filter")
	sortOrder := fs.String("sort", string(catalog.SortFeatured), "featured, newest, price-low or price-high")
	visible := fs.Int("visible", catalog.DefaultPageSize, "number of products to show")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	c := catalog.Category(*category)
	if c != catalog.CategoryAll && !c.Valid() {
		return errors.Wrapf(ErrUsage, "unknown category %q", *category)
	}
	page := m.Shop(ctx, commerce.ShopQuery{
		Category: c,
		Sort:     catalog.SortOrder(*sortOrder),
		Visible:  *visible,
	})
	printProducts(out, page.Products)
	if page.HasMore {
		fmt.Fprintf(out, "showing %d of %d\n", len(page.Products), page.Matched)
	}
	return nil
}

func printProducts(out io.Writer, products []catalog.Product) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, money(p.Price))
	}
	_ = tw.Flush()
}

func cmdSearch(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	results := m.Search(ctx, strings.Join(args, " "))
	if len(results) == 0 {
		fmt.Fprintln(out, "no products found")
		return nil
	}
	printProducts(out, results)
	return nil
}

func cmdProduct(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.Wrap(ErrUsage, "product <slug>")
	}
	d, err := m.ProductDetail(ctx, args[0])
	if err != nil {
		return err
	}

	p := d.Product
	fmt.Fprintf(out, "%s (%s)  %s\n", p.Name, p.ID, money(p.Price))
	fmt.Fprintln(out, p.Description)
	for _, detail := range p.Details {
		fmt.Fprintf(out, "  - %s\n", detail)
	}
	if len(p.Sizes) > 0 {
		fmt.Fprintf(out, "sizes: %s\n", strings.Join(p.Sizes, ", "))
	}
	if d.Wishlisted {
		fmt.Fprintln(out, "in your wishlist")
	}
	fmt.Fprintf(out, "rating: %s (%d reviews)\n", d.Rating.StringFixed(1), len(d.Reviews))
	for _, r := range d.Reviews {
		fmt.Fprintf(out, "  %d/5 %s: %s\n", r.Rating, r.Author, r.Comment)
	}
	if len(d.Related) > 0 {
		fmt.Fprintln(out, "related:")
		printProducts(out, d.Related)
	}
	return nil
}

func cmdFAQ(ctx context.Context, m *commerce.Manager, _ []string, out io.Writer) error {
	faqs, err := m.FAQs(ctx)
	if err != nil {
		return err
	}
	for _, f := range faqs {
		fmt.Fprintf(out, "[%s] %s\n  %s\n", f.Category, f.Question, f.Answer)
	}
	return nil
}

func cmdCart(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	if len(args) > 0 {
		fs := newFlagSet("cart")
		qty := fs.Int("qty", 1, "quantity")
		size := fs.String("size", "", "size")

		var err error
		switch args[0] {
		case "add", "remove", "set":
			pos, perr := parseArgs(fs, args[1:])
			if perr != nil {
				return perr
			}
			if len(pos) != 1 {
				return errors.Wrapf(ErrUsage, "cart %s <productId>", args[0])
			}
			switch args[0] {
			case "add":
				_, err = m.AddToCart(ctx, pos[0], *qty, *size)
			case "remove":
				_, err = m.RemoveFromCart(ctx, pos[0], *size)
			case "set":
				_, err = m.UpdateQuantity(ctx, pos[0], max(*qty, 1), *size)
			}
		case "clear":
			err = m.ClearCart(ctx)
		default:
			return errors.Wrapf(ErrUsage, "unknown cart action %q", args[0])
		}
		if err != nil {
			return err
		}
	}

	lines := m.CartLines(ctx)
	if len(lines) == 0 {
		fmt.Fprintln(out, "your bag is empty")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range lines {
		name := "(unavailable)"
		if l.Product != nil {
			name = l.Product.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\tx%d\t%s\n", l.Item.ProductID, name, l.Item.Size, l.Item.Quantity, money(l.Subtotal))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d items, total %s\n", m.ItemCount(ctx), money(m.CartTotal(ctx)))
	return nil
}

func cmdWishlist(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	if len(args) > 0 {
		if args[0] != "toggle" || len(args) != 2 {
			return errors.Wrap(ErrUsage, "wishlist toggle <productId>")
		}
		if _, err := m.ToggleWishlist(ctx, args[1]); err != nil {
			return err
		}
	}

	products := m.WishlistProducts(ctx)
	if len(products) == 0 {
		fmt.Fprintln(out, "your wishlist is empty")
		return nil
	}
	printProducts(out, products)
	return nil
}

func cmdCheckout(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	fs := newFlagSet("checkout")
	var c order.Customer
	fs.StringVar(&c.Name, "name", "", "full name")
	fs.StringVar(&c.Email, "email", "", "email address")
	fs.StringVar(&c.Phone, "phone", "", "phone number")
	fs.StringVar(&c.Address, "address", "", "delivery address")
	payment := fs.String("payment", string(order.PaymentCOD), "cod or card")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	op, err := m.Checkout(ctx, c, order.PaymentMethod(*payment))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "processing payment...")
	o, err := op.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "order %s placed: %d items, total %s\n", o.ID, o.ItemCount(), money(o.Total))
	return nil
}

func cmdOrders(ctx context.Context, m *commerce.Manager, _ []string, out io.Writer) error {
	orders, err := m.Orders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(out, "no orders yet")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d items\t%s\n",
			o.ID, o.CreatedAt.Format(time.DateOnly), o.Status, o.ItemCount(), money(o.Total))
	}
	_ = tw.Flush()
	return nil
}

func cmdReview(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.Wrap(ErrUsage, "review submit|list <productId>")
	}
	switch args[0] {
	case "list":
		if len(args) != 2 {
			return errors.Wrap(ErrUsage, "review list <productId>")
		}
		reviews, err := m.Reviews(ctx, args[1])
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			fmt.Fprintln(out, "no reviews yet")
			return nil
		}
		fmt.Fprintf(out, "average %s\n", review.AverageRating(reviews).StringFixed(1))
		for _, r := range reviews {
			fmt.Fprintf(out, "%d/5 %s (%s): %s\n", r.Rating, r.Author, r.Date.Format(time.DateOnly), r.Comment)
		}
		return nil
	case "submit":
		fs := newFlagSet("review")
		var d review.Draft
		fs.StringVar(&d.Author, "author", "", "reviewer name")
		fs.IntVar(&d.Rating, "rating", 0, "rating from 1 to 5")
		fs.StringVar(&d.Comment, "comment", "", "review text")
		fs.BoolVar(&d.Verified, "verified", false, "verified purchase")
		publish := fs.Bool("publish", false, "publish immediately")
		pos, err := parseArgs(fs, args[1:])
		if err != nil {
			return err
		}
		if len(pos) != 1 {
			return errors.Wrap(ErrUsage, "review submit <productId>")
		}
		d.ProductID = pos[0]
		if *publish {
			d.Status = review.StatusPublished
		}

		r, err := m.SubmitReview(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "review %s submitted (%s)\n", r.ID, r.Status)
		return nil
	default:
		return errors.Wrapf(ErrUsage, "unknown review action %q", args[0])
	}
}

func cmdSubscribe(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	fs := newFlagSet("subscribe")
	popup := fs.Bool("popup", false, "signup from the popup")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.Wrap(ErrUsage, "subscribe <email>")
	}

	src := newsletter.SourceFooter
	if *popup {
		src = newsletter.SourcePopup
	}
	op, err := m.Subscribe(ctx, pos[0], src)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "syncing...")
	if _, err := op.Wait(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "welcome")
	return nil
}

func cmdPopup(ctx context.Context, m *commerce.Manager, args []string, out io.Writer) error {
	if len(args) > 0 {
		if args[0] != "dismiss" {
			return errors.Wrapf(ErrUsage, "unknown popup action %q", args[0])
		}
		if err := m.DismissPopup(ctx); err != nil {
			return err
		}
	}
	if m.PopupDismissed(ctx) {
		fmt.Fprintln(out, "popup dismissed")
	} else {
		fmt.Fprintln(out, "popup active")
	}
	return nil
}

func (e *Env) doctor(ctx context.Context, out io.Writer) error {
	h := health.New()
	h.AddCheck("storage:"+e.cfg.Storage.Driver, 5*time.Second, health.PingCheck(e.gw))
	h.AddCheck("goroutines", time.Second, health.GoroutineCountCheck(10000), health.WithFailureThreshold(1))
	h.AddCheck("gc-pause", time.Second, health.GCMaxPauseCheck(time.Second), health.WithFailureThreshold(1))

	healthy := h.RunOnce(ctx)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range h.Report() {
		status := "ok"
		if !r.Healthy {
			status = "FAIL: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d attempts\t%s\n", r.Name, r.Duration.Round(time.Microsecond), r.Attempts, status)
	}
	_ = tw.Flush()

	if !healthy {
		e.lg.Warn("Health check failed", zap.Any("failures", h.Failures()))
		return ErrUnhealthy
	}
	return nil
}
